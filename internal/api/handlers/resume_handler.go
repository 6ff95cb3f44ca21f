package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/prepwise/internal/services"
	"github.com/yoockh/prepwise/internal/utils"
)

type ResumeHandler struct {
	svc      services.ResumeService
	maxBytes int64
}

func NewResumeHandler(svc services.ResumeService, maxBytes int64) *ResumeHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &ResumeHandler{svc: svc, maxBytes: maxBytes}
}

// Parse accepts multipart fields file, category and sessionId.
func (h *ResumeHandler) Parse(c *gin.Context) {
	const op = "ResumeHandler.Parse"

	sessionID := c.PostForm("sessionId")
	category := c.PostForm("category")
	tagSession(c, sessionID)

	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "File and category are required", err))
			return
		}
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "Invalid multipart body", err))
		return
	}
	if fh.Size > h.maxBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "File is too large", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "Failed to read upload", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "Failed to read upload", err))
		return
	}
	if int64(len(data)) > h.maxBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "File is too large", nil))
		return
	}

	res, err := h.svc.Parse(c.Request.Context(), services.ParseResumeInput{
		SessionID:   sessionID,
		Category:    category,
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"sessionId":  res.SessionID,
		"parsedData": res.ParsedData,
	})
}
