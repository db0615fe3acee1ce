package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"vectord/internal/vector_service/rag/extractors"
	"vectord/internal/vector_service/rag/index"
	"vectord/internal/vector_service/rag/pipeline"
	"vectord/internal/vector_service/rag/storages/indexstore"
	"vectord/internal/vector_service/service"
)

// Handler holds the handler functions for all vector service endpoints.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new Handler instance.
func NewHandler(s *service.Service) *Handler {
	return &Handler{service: s}
}

// UploadDocument handles POST /documents/upload?username=<u> with a
// multipart "file" part.
func (h *Handler) UploadDocument(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	result, err := h.service.Ingest(c.Request.Context(), data, fileHeader.Filename, username)
	if err != nil {
		status := statusForError(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"document_id":    result.DocumentID,
		"filename":       result.Filename,
		"chunks_created": result.ChunksCreated,
		"message":        "Document uploaded and indexed successfully",
	})
}

// SearchRequest is the JSON body of POST /search.
type SearchRequest struct {
	Query    string `json:"query" binding:"required"`
	Username string `json:"username" binding:"required"`
	TopK     int    `json:"top_k"`
}

// SearchDocuments handles POST /search. A user with no index gets
// {results: [], total: 0}, not an error.
func (h *Handler) SearchDocuments(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}

	results, err := h.service.Search(c.Request.Context(), req.Query, req.Username, req.TopK)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

// ListDocuments handles GET /documents?username=<u>.
func (h *Handler) ListDocuments(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	documents, err := h.service.ListDocuments(c.Request.Context(), username)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, documents)
}

// DeleteDocument handles DELETE /documents/:document_id?username=<u>.
func (h *Handler) DeleteDocument(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	documentID := c.Param("document_id")

	if err := h.service.Delete(c.Request.Context(), documentID, username); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Document %s deleted successfully", documentID)})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Health(c.Request.Context()))
}

// statusForError maps the pipeline error taxonomy to HTTP statuses: client
// mistakes to 4xx, backend and internal failures to 5xx.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrNoContent),
		errors.Is(err, extractors.ErrExtraction),
		errors.Is(err, indexstore.ErrInvalidUsername):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrEmbeddingUnavailable),
		errors.Is(err, index.ErrDimensionMismatch):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
