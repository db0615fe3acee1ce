package api

import "github.com/gin-gonic/gin"

// SetupRouter configures and returns a Gin engine with all vector service
// routes registered. The route shapes match the gateway's expectations.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.POST("/documents/upload", h.UploadDocument)
	r.POST("/search", h.SearchDocuments)
	r.GET("/documents", h.ListDocuments)
	r.DELETE("/documents/:document_id", h.DeleteDocument)
	r.GET("/health", h.Health)

	return r
}
