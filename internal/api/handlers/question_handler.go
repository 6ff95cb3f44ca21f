package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/prepwise/internal/services"
	"github.com/yoockh/prepwise/internal/utils"
)

type QuestionHandler struct {
	svc services.QuestionService
}

func NewQuestionHandler(svc services.QuestionService) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *QuestionHandler) Generate(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "QuestionHandler.Generate", "Invalid request body", err))
		return
	}
	tagSession(c, req.SessionID)

	qs, err := h.svc.Generate(c.Request.Context(), req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "questions": qs})
}
