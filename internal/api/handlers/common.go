package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/prepwise/internal/utils"
)

// APIError is the body of every failed response.
type APIError struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, APIError{Error: utils.PublicMessage(err)})
}

func logOrDefault(l *logrus.Logger) *logrus.Logger {
	if l == nil {
		return logrus.New()
	}
	return l
}

// tagSession exposes the session id to the request logger.
func tagSession(c *gin.Context, sessionID string) {
	if sessionID != "" {
		c.Set("session_id", sessionID)
	}
}
