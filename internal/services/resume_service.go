package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/prepwise/internal/docparse"
	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/prompts"
	"github.com/yoockh/prepwise/internal/providers/llm"
	pgrepo "github.com/yoockh/prepwise/internal/repositories/postgres"
	"github.com/yoockh/prepwise/internal/storage"
	"github.com/yoockh/prepwise/internal/utils"
	"gorm.io/datatypes"
)

type ParseResumeInput struct {
	SessionID   string
	Category    string
	FileName    string
	ContentType string
	Data        []byte
}

type ParseResumeResult struct {
	SessionID  string            `json:"sessionId"`
	ParsedData models.ResumeData `json:"parsedData"`
	Degraded   bool              `json:"-"`
}

type ResumeService interface {
	Parse(ctx context.Context, in ParseResumeInput) (*ParseResumeResult, error)
}

type resumeService struct {
	sessions pgrepo.SessionRepository
	bucket   storage.Bucket
	llm      llm.Provider
	prompts  *prompts.Set
	events   EventRecorder
	log      *logrus.Logger
}

func NewResumeService(sessions pgrepo.SessionRepository, bucket storage.Bucket, provider llm.Provider, ps *prompts.Set, events EventRecorder, log *logrus.Logger) ResumeService {
	if log == nil {
		log = logrus.New()
	}
	return &resumeService{sessions: sessions, bucket: bucket, llm: provider, prompts: ps, events: events, log: log}
}

func (s *resumeService) Parse(ctx context.Context, in ParseResumeInput) (*ParseResumeResult, error) {
	const op = "ResumeService.Parse"
	started := nowFunc()

	if len(in.Data) == 0 || in.Category == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "File and category are required", nil)
	}
	if !models.Category(in.Category).Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Category must be one of technical, behavioral, communication", nil)
	}

	session, err := loadSession(ctx, s.sessions, op, in.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.Status.In(models.StatusCreated, models.StatusResumeParsed) {
		return nil, utils.E(utils.CodeConflict, op, "Resume can no longer be changed for this session", utils.ErrConflict)
	}

	log := s.log.WithFields(logrus.Fields{"op": op, "session_id": session.ID})

	objectName := fmt.Sprintf("%s/%d_%s", session.ID, nowFunc().UnixMilli(), safeFileName(in.FileName))
	storedPath, err := s.bucket.Upload(ctx, objectName, in.ContentType, bytes.NewReader(in.Data))
	if err != nil {
		log.WithError(err).Error("resume upload failed")
		return nil, utils.E(utils.CodeInternal, op, "Failed to upload file", err)
	}

	stored, err := s.bucket.Download(ctx, storedPath)
	if err != nil {
		log.WithError(err).Error("resume download failed")
		return nil, utils.E(utils.CodeInternal, op, "Failed to download file for parsing", err)
	}

	parsed, degraded := s.extract(ctx, log, stored, in)

	raw, err := json.Marshal(parsed)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "Failed to save parsed data", err)
	}
	updated, err := s.sessions.SaveResume(ctx, session.ID, datatypes.JSON(raw))
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrNotFound):
			return nil, utils.E(utils.CodeNotFound, op, "Session not found", err)
		case errors.Is(err, utils.ErrConflict):
			return nil, utils.E(utils.CodeConflict, op, "Resume can no longer be changed for this session", err)
		}
		log.WithError(err).Error("save parsed resume failed")
		return nil, utils.E(utils.CodeInternal, op, "Failed to save parsed data", err)
	}

	outcome := OutcomeOK
	if degraded {
		outcome = OutcomeDegraded
	}
	ev := newEvent(session.ID, StepParseResume, outcome, started)
	ev.Status = updated.Status
	s.events.Record(ctx, ev)

	return &ParseResumeResult{SessionID: session.ID, ParsedData: parsed, Degraded: degraded}, nil
}

// extract turns the stored file into structured data. Any failure after the
// file is stored degrades to the default resume.
func (s *resumeService) extract(ctx context.Context, log *logrus.Entry, data []byte, in ParseResumeInput) (models.ResumeData, bool) {
	doc, err := docparse.Extract(data, in.ContentType, in.FileName)
	if err != nil {
		log.WithError(err).WithField("degraded", true).Warn("resume text extraction failed")
		return models.DefaultResumeData(), true
	}
	log.WithFields(logrus.Fields{"kind": doc.Kind, "fallback": doc.Fallback, "chars": len(doc.Text)}).Debug("resume text extracted")

	req, err := s.prompts.ResumeRequest(doc.Text)
	if err != nil {
		log.WithError(err).WithField("degraded", true).Warn("resume prompt failed")
		return models.DefaultResumeData(), true
	}
	raw, err := s.llm.GenerateStructured(ctx, req)
	if err != nil {
		log.WithError(err).WithField("degraded", true).Warn("resume parse by ai failed")
		return models.DefaultResumeData(), true
	}

	var out models.ResumeData
	if err := json.Unmarshal(raw, &out); err != nil {
		log.WithError(err).WithField("degraded", true).Warn("resume parse result undecodable")
		return models.DefaultResumeData(), true
	}
	out.Normalize()
	return out, false
}

// safeFileName keeps the base name so a crafted name cannot escape the
// session prefix.
func safeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "resume"
	}
	return name
}
