package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register mounts every public endpoint on r
func Register(r gin.IRouter, ingestor Ingestor, asker Asker, maxFileSize int64) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "All Good!"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	upload := HandleUpload(ingestor, maxFileSize)
	r.POST("/upload", upload)
	r.POST("/upload/pdf", upload)

	ask := HandleAsk(asker)
	r.POST("/ask", ask)
	r.POST("/ask/:sessionId", ask)

	r.GET("/job/status/:sessionId", HandleJobStatus(ingestor))
	r.GET("/job/:sessionId", HandleJobDetail(ingestor))

	r.GET("/session/:sessionId/history", HandleHistory(asker))
	r.GET("/session/:sessionId/export", HandleExport(asker))
}
