package indexstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vectord/internal/vector_service/rag/index"
	"vectord/internal/vector_service/rag/schema"
	"vectord/pkg/logger"
)

// ErrCorruptIndex marks persisted state that could not be read back. It is
// logged and degraded to an empty index, never surfaced to callers.
var ErrCorruptIndex = errors.New("corrupt index state")

// ErrInvalidUsername is returned for usernames that cannot name a storage
// directory. Path separators and dot segments would escape the storage root
// and reach another namespace's files.
var ErrInvalidUsername = errors.New("invalid username")

const (
	indexFileName    = "flat.index"
	metadataFileName = "metadata.json"
)

// Store persists one (vector index, metadata) pair per user namespace under
// BasePath/<username>/. Save keeps both halves row-count consistent by
// writing temp files and renaming; Load degrades unreadable or inconsistent
// state to "no index" rather than failing the caller.
//
// Store does no locking of its own; the service serializes the
// load→mutate→save sequence per user.
type Store struct {
	basePath string
	log      *logger.Logger
}

// NewStore creates a store rooted at basePath, creating it if needed.
func NewStore(basePath string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage path %s: %w", basePath, err)
	}
	return &Store{basePath: basePath, log: log}, nil
}

// BasePath returns the storage root, used by health reporting.
func (s *Store) BasePath() string { return s.basePath }

// userPath returns the user's storage directory, creating it if needed.
// The username must resolve to a direct child of the storage root.
func (s *Store) userPath(username string) (string, error) {
	if !validUsername(username) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	p := filepath.Join(s.basePath, username)
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", fmt.Errorf("failed to create user storage path: %w", err)
	}
	return p, nil
}

func validUsername(username string) bool {
	if username == "" || username == "." || username == ".." {
		return false
	}
	return !strings.ContainsAny(username, `/\`)
}

// Load reads a user's index and metadata. A user with no prior uploads gets
// (nil, empty metadata). Unreadable or mutually inconsistent state is logged
// and treated the same way.
func (s *Store) Load(username string) (*index.Flat, *schema.Metadata, error) {
	userPath, err := s.userPath(username)
	if err != nil {
		return nil, nil, err
	}

	idx, meta, err := s.read(userPath)
	if err != nil {
		s.log.WithUser(username).Warn(fmt.Sprintf("Discarding unreadable index state: %v", err))
		return nil, schema.NewMetadata(), nil
	}
	if idx == nil {
		return nil, schema.NewMetadata(), nil
	}

	if idx.Len() != len(meta.Chunks) {
		s.log.WithUser(username).Warn(fmt.Sprintf(
			"Discarding inconsistent index state: %d vector rows vs %d chunks", idx.Len(), len(meta.Chunks)))
		return nil, schema.NewMetadata(), nil
	}

	return idx, meta, nil
}

// read loads both halves from disk. A missing file on either side means no
// index; any other failure wraps ErrCorruptIndex.
func (s *Store) read(userPath string) (*index.Flat, *schema.Metadata, error) {
	indexPath := filepath.Join(userPath, indexFileName)
	metadataPath := filepath.Join(userPath, metadataFileName)

	f, err := os.Open(indexPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	idx, err := index.ReadFrom(f, info.Size())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}

	raw, err := os.ReadFile(metadataPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	meta := schema.NewMetadata()
	if err := json.Unmarshal(raw, meta); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	if meta.Documents == nil {
		meta.Documents = make(map[string]schema.Document)
	}

	return idx, meta, nil
}

// Save persists both halves. Each file is written to a temp sibling and
// renamed into place, index first and metadata last, so a reader never sees
// a half-written artifact.
func (s *Store) Save(username string, idx *index.Flat, meta *schema.Metadata) error {
	if idx.Len() != len(meta.Chunks) {
		return fmt.Errorf("refusing to save: %d vector rows vs %d chunks", idx.Len(), len(meta.Chunks))
	}

	userPath, err := s.userPath(username)
	if err != nil {
		return err
	}

	indexPath := filepath.Join(userPath, indexFileName)
	if err := writeFileAtomic(indexPath, func(f *os.File) error {
		_, err := idx.WriteTo(f)
		return err
	}); err != nil {
		return fmt.Errorf("failed to save index for user %s: %w", username, err)
	}

	metadataPath := filepath.Join(userPath, metadataFileName)
	if err := writeFileAtomic(metadataPath, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return fmt.Errorf("failed to save metadata for user %s: %w", username, err)
	}

	return nil
}

// Remove deletes both persisted artifacts for a user. Used when the last
// document is deleted, instead of persisting an empty index.
func (s *Store) Remove(username string) error {
	userPath, err := s.userPath(username)
	if err != nil {
		return err
	}
	for _, name := range []string{indexFileName, metadataFileName} {
		if err := os.Remove(filepath.Join(userPath, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s for user %s: %w", name, username, err)
		}
	}
	return nil
}

// writeFileAtomic writes via a temp file in the same directory and renames
// it over the target.
func writeFileAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
