package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/prepwise/internal/services"
	"github.com/yoockh/prepwise/internal/utils"
)

type SessionHandler struct {
	sessions  services.SessionService
	questions services.QuestionService
	answers   services.AnswerService
}

func NewSessionHandler(sessions services.SessionService, questions services.QuestionService, answers services.AnswerService) *SessionHandler {
	return &SessionHandler{sessions: sessions, questions: questions, answers: answers}
}

type CreateSessionRequest struct {
	Category string `json:"category"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Create", "Invalid request body", err))
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), req.Category)
	if err != nil {
		writeError(c, err)
		return
	}
	tagSession(c, sess.ID)

	c.JSON(http.StatusCreated, gin.H{"success": true, "session": sess})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sessionID := c.Param("session_id")
	tagSession(c, sessionID)

	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) Questions(c *gin.Context) {
	sessionID := c.Param("session_id")
	tagSession(c, sessionID)

	qs, err := h.questions.List(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": qs})
}

func (h *SessionHandler) Answers(c *gin.Context) {
	sessionID := c.Param("session_id")
	tagSession(c, sessionID)

	as, err := h.answers.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": as})
}
