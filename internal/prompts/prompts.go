// Package prompts holds the instructions and response schemas sent to the
// generative text service.
package prompts

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/yoockh/prepwise/internal/models"
	"github.com/yoockh/prepwise/internal/providers/llm"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var catalogueYAML []byte

type entry struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	System      string            `yaml:"system"`
	User        string            `yaml:"user"`
	Focus       map[string]string `yaml:"focus"`
}

type catalogue struct {
	Resume     entry `yaml:"resume"`
	Questions  entry `yaml:"questions"`
	Evaluation entry `yaml:"evaluation"`
}

// MaxResumeChars bounds the resume text embedded in the parse prompt.
const MaxResumeChars = 10000

// NoAnswer stands in for a question the candidate skipped.
const NoAnswer = "[No answer provided]"

var funcs = template.FuncMap{
	"list": func(items []string) string {
		if len(items) == 0 {
			return "Not specified"
		}
		return strings.Join(items, ", ")
	},
	"inc": func(i int) int { return i + 1 },
}

// Set is a parsed prompt catalogue.
type Set struct {
	cat catalogue
	tpl map[string]*template.Template
}

var (
	defaultOnce sync.Once
	defaultSet  *Set
	defaultErr  error
)

// Default returns the embedded catalogue.
func Default() (*Set, error) {
	defaultOnce.Do(func() {
		defaultSet, defaultErr = Parse(catalogueYAML)
	})
	return defaultSet, defaultErr
}

// Parse reads a YAML catalogue and compiles its templates.
func Parse(data []byte) (*Set, error) {
	var c catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("prompts: parse catalogue: %w", err)
	}
	s := &Set{cat: c, tpl: map[string]*template.Template{}}
	for name, text := range map[string]string{
		"resume.system":     c.Resume.System,
		"resume.user":       c.Resume.User,
		"questions.desc":    c.Questions.Description,
		"questions.system":  c.Questions.System,
		"questions.user":    c.Questions.User,
		"evaluation.system": c.Evaluation.System,
		"evaluation.user":   c.Evaluation.User,
	} {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("prompts: %s is empty", name)
		}
		t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("prompts: %s: %w", name, err)
		}
		s.tpl[name] = t
	}
	return s, nil
}

func (s *Set) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.tpl[name].Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompts: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ResumeRequest builds the extraction call for raw resume text. Text beyond
// MaxResumeChars is dropped.
func (s *Set) ResumeRequest(text string) (llm.Request, error) {
	text = Truncate(text, MaxResumeChars)
	sys, err := s.render("resume.system", nil)
	if err != nil {
		return llm.Request{}, err
	}
	user, err := s.render("resume.user", map[string]any{"Text": text})
	if err != nil {
		return llm.Request{}, err
	}
	return llm.Request{
		Name:        s.cat.Resume.Name,
		Description: s.cat.Resume.Description,
		System:      sys,
		Prompt:      user,
		Schema:      ResumeSchema(),
	}, nil
}

// QuestionsRequest builds the generation call for a category. r may be nil
// when no resume was parsed.
func (s *Set) QuestionsRequest(category models.Category, r *models.ResumeData) (llm.Request, error) {
	if r == nil {
		d := models.DefaultResumeData()
		r = &d
	}
	name := r.Name
	if name == "" {
		name = "Candidate"
	}
	data := map[string]any{
		"Count":          models.QuestionsPerSession,
		"Category":       string(category),
		"Focus":          s.cat.Questions.Focus[string(category)],
		"Name":           name,
		"Skills":         r.Skills,
		"Projects":       r.Projects,
		"Experience":     r.Experience,
		"Education":      r.Education,
		"Certifications": r.Certifications,
	}
	desc, err := s.render("questions.desc", data)
	if err != nil {
		return llm.Request{}, err
	}
	sys, err := s.render("questions.system", data)
	if err != nil {
		return llm.Request{}, err
	}
	user, err := s.render("questions.user", data)
	if err != nil {
		return llm.Request{}, err
	}
	return llm.Request{
		Name:        s.cat.Questions.Name,
		Description: desc,
		System:      sys,
		Prompt:      user,
		Schema:      QuestionsSchema(models.QuestionsPerSession),
	}, nil
}

// QA is one transcript entry of the evaluation prompt.
type QA struct {
	Question     string
	Answer       string
	Mode         string
	ResponseTime int
}

// EvaluationRequest builds the scoring call. resumeData is the raw stored
// resume_data column and may be empty.
func (s *Set) EvaluationRequest(category models.Category, resumeData []byte, pairs []QA) (llm.Request, error) {
	resume := "null"
	if len(resumeData) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, resumeData, "", "  "); err == nil {
			resume = buf.String()
		} else {
			resume = string(resumeData)
		}
	}
	data := map[string]any{
		"Category": string(category),
		"Resume":   resume,
		"Pairs":    pairs,
	}
	sys, err := s.render("evaluation.system", data)
	if err != nil {
		return llm.Request{}, err
	}
	user, err := s.render("evaluation.user", data)
	if err != nil {
		return llm.Request{}, err
	}
	return llm.Request{
		Name:        s.cat.Evaluation.Name,
		Description: s.cat.Evaluation.Description,
		System:      sys,
		Prompt:      user,
		Schema:      EvaluationSchema(),
	}, nil
}

// Truncate keeps at most n characters of s.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
