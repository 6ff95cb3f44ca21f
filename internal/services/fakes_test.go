package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/providers/llm"
	"github.com/yoockh/prepwise/internal/utils"
	"gorm.io/datatypes"
)

// memStore mirrors the postgres repositories, including the status
// transitions and unique constraints.
type memStore struct {
	mu        sync.Mutex
	sessions  map[string]*models.Session
	questions map[string]models.Question
	answers   []models.Answer
	reports   map[string]models.Report

	failCreateQuestions error
	failCreateAnswer    error
	failCreateReport    error
	failListAnswers     error
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  map[string]*models.Session{},
		questions: map[string]models.Question{},
		reports:   map[string]models.Report{},
	}
}

func (m *memStore) transition(id string, to models.SessionStatus, from ...models.SessionStatus) error {
	s, ok := m.sessions[id]
	if !ok {
		return utils.ErrNotFound
	}
	if !s.Status.In(from...) {
		return utils.ErrConflict
	}
	s.Status = to
	s.UpdatedAt = time.Now().UTC()
	return nil
}

type memSessions struct{ *memStore }

func (m memSessions) Create(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m memSessions) GetByID(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m memSessions) SaveResume(_ context.Context, id string, data datatypes.JSON) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.transition(id, models.StatusResumeParsed, models.StatusCreated, models.StatusResumeParsed); err != nil {
		return nil, err
	}
	s := m.sessions[id]
	s.ResumeData = data
	cp := *s
	return &cp, nil
}

type memQuestions struct{ *memStore }

func (m memQuestions) CreateForSession(_ context.Context, sessionID string, qs []models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateQuestions != nil {
		return m.failCreateQuestions
	}
	if err := m.transition(sessionID, models.StatusQuestionsGenerated, models.StatusCreated, models.StatusResumeParsed); err != nil {
		return err
	}
	for _, q := range qs {
		m.questions[q.ID] = q
	}
	return nil
}

func (m memQuestions) ListBySession(_ context.Context, sessionID string) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Question
	for _, q := range m.questions {
		if q.SessionID == sessionID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionOrder < out[j].QuestionOrder })
	return out, nil
}

func (m memQuestions) GetByID(_ context.Context, id string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &q, nil
}

type memAnswers struct{ *memStore }

func (m memAnswers) Create(_ context.Context, a *models.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateAnswer != nil {
		return m.failCreateAnswer
	}
	for _, existing := range m.answers {
		if existing.SessionID == a.SessionID && existing.QuestionID == a.QuestionID {
			return utils.ErrConflict
		}
	}
	if err := m.transition(a.SessionID, models.StatusAnswering, models.StatusQuestionsGenerated, models.StatusAnswering); err != nil {
		return err
	}
	m.answers = append(m.answers, *a)
	return nil
}

func (m memAnswers) ListBySession(_ context.Context, sessionID string) ([]models.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failListAnswers != nil {
		return nil, m.failListAnswers
	}
	var out []models.Answer
	for _, a := range m.answers {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memReports struct{ *memStore }

func (m memReports) CreateForSession(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateReport != nil {
		return m.failCreateReport
	}
	if _, ok := m.reports[r.SessionID]; ok {
		return utils.ErrConflict
	}
	if err := m.transition(r.SessionID, models.StatusReported,
		models.StatusCreated, models.StatusResumeParsed, models.StatusQuestionsGenerated, models.StatusAnswering); err != nil {
		return err
	}
	m.reports[r.SessionID] = *r
	return nil
}

func (m memReports) GetBySession(_ context.Context, sessionID string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[sessionID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &r, nil
}

// fakeLLM answers by function name.
type fakeLLM struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []llm.Request
}

func (f *fakeLLM) GenerateStructured(_ context.Context, req llm.Request) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if err := f.errs[req.Name]; err != nil {
		return nil, err
	}
	raw, ok := f.responses[req.Name]
	if !ok {
		return nil, llm.ErrNoStructuredResult
	}
	if err := llm.Validate(req.Schema, []byte(raw)); err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

type memBucket struct {
	mu          sync.Mutex
	objects     map[string][]byte
	types       map[string]string
	uploadErr   error
	downloadErr error
}

func newMemBucket() *memBucket {
	return &memBucket{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *memBucket) Upload(_ context.Context, name, contentType string, r io.Reader) (string, error) {
	if b.uploadErr != nil {
		return "", b.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = data
	b.types[name] = contentType
	return name, nil
}

func (b *memBucket) Download(_ context.Context, name string) ([]byte, error) {
	if b.downloadErr != nil {
		return nil, b.downloadErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[name]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (b *memBucket) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.objects))
	for k := range b.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type fakeSTT struct {
	text  string
	err   error
	calls int
}

func (f *fakeSTT) Transcribe(context.Context, []byte, string) (string, float64, error) {
	f.calls++
	if f.err != nil {
		return "", 0, f.err
	}
	return f.text, 0.9, nil
}

func (f *fakeSTT) Close() error { return nil }

type captureRecorder struct {
	mu     sync.Mutex
	events []models.SessionEvent
}

func (c *captureRecorder) Record(_ context.Context, e models.SessionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureRecorder) outcomes(step string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.events {
		if e.Step == step {
			out = append(out, e.Outcome)
		}
	}
	return out
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func newMemLocker() *memLocker { return &memLocker{held: map[string]bool{}} }

func (l *memLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, true, nil
}

var errBoom = errors.New("boom")
