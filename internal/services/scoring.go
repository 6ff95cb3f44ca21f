package services

import "github.com/yoockh/prepwise/internal/models"

// OverallScore is the mean of the four sub-scores rounded half up.
func OverallScore(clarity, content, confidence, structure int) int {
	sum := clarity + content + confidence + structure
	return roundDiv(sum, 4)
}

// roundDiv divides non-negative a by positive b, rounding halves up.
func roundDiv(a, b int) int {
	return (2*a + b) / (2 * b)
}

type Statistics struct {
	TotalQuestions         int `json:"totalQuestions"`
	AvgResponseTime        int `json:"avgResponseTime"`
	TotalRecordingDuration int `json:"totalRecordingDuration"`
}

// ComputeStatistics summarises a session. It is derived on every read and
// never stored.
func ComputeStatistics(questions []models.Question, answers []models.Answer) Statistics {
	st := Statistics{TotalQuestions: len(questions)}
	if len(answers) == 0 {
		return st
	}
	var rt int
	for _, a := range answers {
		rt += max(a.ResponseTime, 0)
		st.TotalRecordingDuration += max(a.AudioDuration, 0)
	}
	st.AvgResponseTime = roundDiv(rt, len(answers))
	return st
}
