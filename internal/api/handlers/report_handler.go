package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/prepwise/internal/services"
	"github.com/yoockh/prepwise/internal/utils"
)

type ReportHandler struct {
	svc services.ReportService
}

func NewReportHandler(svc services.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) Generate(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ReportHandler.Generate", "Invalid request body", err))
		return
	}
	tagSession(c, req.SessionID)

	rep, err := h.svc.Generate(c.Request.Context(), req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": rep})
}

func (h *ReportHandler) Get(c *gin.Context) {
	sessionID := c.Param("session_id")
	tagSession(c, sessionID)

	rep, err := h.svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
