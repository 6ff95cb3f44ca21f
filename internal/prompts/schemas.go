package prompts

import "github.com/yoockh/prepwise/internal/providers/llm"

func stringList() *llm.Schema {
	return &llm.Schema{Type: "array", Items: &llm.Schema{Type: "string"}}
}

func ResumeSchema() *llm.Schema {
	return &llm.Schema{
		Type: "object",
		Properties: map[string]*llm.Schema{
			"name":           {Type: "string"},
			"email":          {Type: "string"},
			"education":      stringList(),
			"skills":         stringList(),
			"projects":       stringList(),
			"experience":     stringList(),
			"certifications": stringList(),
		},
		Required: []string{"name", "skills"},
	}
}

func QuestionsSchema(n int64) *llm.Schema {
	return &llm.Schema{
		Type: "object",
		Properties: map[string]*llm.Schema{
			"questions": {
				Type: "array",
				Items: &llm.Schema{
					Type: "object",
					Properties: map[string]*llm.Schema{
						"text": {Type: "string"},
						"type": {Type: "string"},
					},
					Required: []string{"text", "type"},
				},
				MinItems: llm.Int(n),
				MaxItems: llm.Int(n),
			},
		},
		Required: []string{"questions"},
	}
}

func score() *llm.Schema {
	return &llm.Schema{Type: "integer", Minimum: llm.Float(0), Maximum: llm.Float(100)}
}

func EvaluationSchema() *llm.Schema {
	bounded := func() *llm.Schema {
		s := stringList()
		s.MinItems, s.MaxItems = llm.Int(3), llm.Int(5)
		return s
	}
	return &llm.Schema{
		Type: "object",
		Properties: map[string]*llm.Schema{
			"clarity_score":    score(),
			"content_score":    score(),
			"confidence_score": score(),
			"structure_score":  score(),
			"strengths":        bounded(),
			"improvements":     bounded(),
			"feedback": {
				Type: "array",
				Items: &llm.Schema{
					Type: "object",
					Properties: map[string]*llm.Schema{
						"question": {Type: "string"},
						"feedback": {Type: "string"},
					},
				},
			},
		},
		Required: []string{"clarity_score", "content_score", "confidence_score", "structure_score", "strengths", "improvements"},
	}
}
