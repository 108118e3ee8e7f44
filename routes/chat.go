package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"docchat-platform/internal/session"
	"docchat-platform/models"
	"docchat-platform/services"
	"docchat-platform/utils"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookie    = "sessionId"
	sessionCookieAge = 24 * 60 * 60
)

// Asker runs chat turns and exposes stored conversations
type Asker interface {
	Ask(ctx context.Context, sessionID, query string) (*models.Answer, error)
	History(ctx context.Context, sessionID string) (*models.SessionRecord, error)
}

// HandleAsk answers a question about the session's document. Without a
// path parameter the session comes from the cookie, or a new one is started.
func HandleAsk(asker Asker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithAppError(c, &models.InvalidRequestError{Reason: "Missing or invalid query message"}, "")
			return
		}

		sessionID := c.Param("sessionId")
		if sessionID == "" {
			sessionID, _ = c.Cookie(sessionCookie)
		}

		ans, err := asker.Ask(c.Request.Context(), sessionID, req.Message)
		if err != nil {
			utils.RespondWithAppError(c, err, "Failed to process chat request")
			return
		}

		c.SetCookie(sessionCookie, ans.SessionID, sessionCookieAge, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"answerText": ans.Text,
			"message":    ans.Text,
			"sessionId":  ans.SessionID,
		})
	}
}

func HandleHistory(asker Asker) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := loadHistory(c, asker)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "sessionId": rec.SessionID, "history": rec.History})
	}
}

// HandleExport downloads the conversation as an Excel workbook
func HandleExport(asker Asker) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, ok := loadHistory(c, asker)
		if !ok {
			return
		}
		data, err := services.ExportHistory(rec)
		if err != nil {
			utils.RespondWithAppError(c, err, "Failed to export conversation")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.xlsx"`, rec.SessionID))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	}
}

func loadHistory(c *gin.Context, asker Asker) (*models.SessionRecord, bool) {
	rec, err := asker.History(c.Request.Context(), c.Param("sessionId"))
	if errors.Is(err, session.ErrNotFound) {
		utils.RespondWithNotFound(c, "Session not found")
		return nil, false
	}
	if err != nil {
		utils.RespondWithAppError(c, err, "Failed to load conversation")
		return nil, false
	}
	return rec, true
}
