package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/prepwise/internal/services"
	"github.com/yoockh/prepwise/internal/utils"
)

type AnswerHandler struct {
	svc services.AnswerService
}

func NewAnswerHandler(svc services.AnswerService) *AnswerHandler {
	return &AnswerHandler{svc: svc}
}

type SubmitAnswerRequest struct {
	SessionID     string `json:"sessionId"`
	QuestionID    string `json:"questionId"`
	AnswerText    string `json:"answerText"`
	AnswerMode    string `json:"answerMode"`
	ResponseTime  int    `json:"responseTime"`
	AudioData     string `json:"audioData"`
	AudioDuration int    `json:"audioDuration"`
}

func (h *AnswerHandler) Submit(c *gin.Context) {
	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AnswerHandler.Submit", "Invalid request body", err))
		return
	}
	tagSession(c, req.SessionID)

	ans, err := h.svc.Submit(c.Request.Context(), services.SubmitAnswerInput{
		SessionID:     req.SessionID,
		QuestionID:    req.QuestionID,
		AnswerText:    req.AnswerText,
		AnswerMode:    req.AnswerMode,
		ResponseTime:  req.ResponseTime,
		AudioData:     req.AudioData,
		AudioDuration: req.AudioDuration,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "answer": ans})
}
