package routes

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"docchat-platform/models"
	"docchat-platform/services"
	"docchat-platform/utils"

	"github.com/gin-gonic/gin"
)

// Ingestor accepts uploads and reports job progress
type Ingestor interface {
	Submit(ctx context.Context, up *services.Upload) (*services.SubmitResult, error)
	Status(ctx context.Context, sessionID string) (models.JobState, error)
	Job(ctx context.Context, sessionID string) (*models.JobRecord, error)
}

// uploadFields are accepted multipart field names, in priority order
var uploadFields = []string{"file", "pdf"}

// HandleUpload stores an uploaded document and queues it for ingestion
func HandleUpload(ingestor Ingestor, maxFileSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseMultipartForm(maxFileSize); err != nil {
			utils.RespondWithAppError(c, &models.InvalidUploadError{Reason: "No file uploaded"}, "")
			return
		}

		file, header := formFile(c)
		if file == nil {
			utils.RespondWithAppError(c, &models.InvalidUploadError{Reason: "No file uploaded"}, "")
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			utils.RespondWithAppError(c, &models.InvalidUploadError{Reason: "File size exceeds maximum limit"}, "")
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxFileSize+1))
		if err != nil {
			utils.RespondWithAppError(c, &models.InvalidUploadError{Reason: "Cannot read uploaded file"}, "")
			return
		}

		res, err := ingestor.Submit(c.Request.Context(), &services.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			utils.RespondWithAppError(c, err, "Failed to upload file")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "uploaded",
			"jobId":     res.JobID,
			"sessionId": res.SessionID,
		})
	}
}

func formFile(c *gin.Context) (multipart.File, *multipart.FileHeader) {
	for _, field := range uploadFields {
		file, header, err := c.Request.FormFile(field)
		if err == nil {
			return file, header
		}
	}
	return nil, nil
}

// HandleJobStatus reports only the job state, "not_found" for unknown sessions
func HandleJobStatus(ingestor Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := ingestor.Status(c.Request.Context(), c.Param("sessionId"))
		if errors.Is(err, models.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": models.JobNotFound})
			return
		}
		if err != nil {
			utils.RespondWithAppError(c, err, "Failed to fetch job status")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": state})
	}
}

// HandleJobDetail returns the whole job record including chunk counts
func HandleJobDetail(ingestor Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := ingestor.Job(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			utils.RespondWithAppError(c, err, "Failed to fetch job")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "job": rec})
	}
}
