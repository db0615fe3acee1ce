package index

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// On-disk layout, all little-endian: magic, version, dimension, row count,
// then rows*dimension float32 values in row-major order.
const (
	fileMagic   uint32 = 0x46494458 // "FIDX"
	fileVersion uint32 = 1
)

// WriteTo serializes the index.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	header := []uint32{fileMagic, fileVersion, uint32(f.dim), uint32(f.Len())}
	var written int64
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return written, err
		}
		written += 4
	}

	buf := make([]byte, 4*len(f.data))
	for i, v := range f.data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	n, err := w.Write(buf)
	return written + int64(n), err
}

// headerSize is the byte length of the four uint32 header fields.
const headerSize = 16

// ReadFrom deserializes an index previously written with WriteTo. size is
// the total byte length of the serialized index; the header's claimed
// dimensions are checked against it before anything is allocated, so a
// corrupt or crafted header cannot trigger an outsized allocation.
func ReadFrom(r io.Reader, size int64) (*Flat, error) {
	var header [4]uint32
	for i := range header {
		if err := binary.Read(r, binary.LittleEndian, &header[i]); err != nil {
			return nil, fmt.Errorf("failed to read index header: %w", err)
		}
	}
	if header[0] != fileMagic {
		return nil, fmt.Errorf("not an index file: bad magic 0x%08x", header[0])
	}
	if header[1] != fileVersion {
		return nil, fmt.Errorf("unsupported index file version %d", header[1])
	}

	dim, rows := int64(header[2]), int64(header[3])
	if dim <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dim)
	}
	payload := size - headerSize
	if payload < 0 || payload%(4*dim) != 0 || payload/(4*dim) != rows {
		return nil, fmt.Errorf("index header claims %d rows of dimension %d, file has %d payload bytes",
			rows, dim, payload)
	}

	f, err := NewFlat(int(dim))
	if err != nil {
		return nil, err
	}

	buf := make([]byte, payload)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read index payload: %w", err)
	}
	f.data = make([]float32, dim*rows)
	for i := range f.data {
		f.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}

	return f, nil
}
