package models

// ResumeData is the structured extraction stored on a session.
type ResumeData struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Education      []string `json:"education"`
	Skills         []string `json:"skills"`
	Projects       []string `json:"projects"`
	Experience     []string `json:"experience"`
	Certifications []string `json:"certifications"`
}

// DefaultResumeData is stored when the resume could not be parsed.
func DefaultResumeData() ResumeData {
	return ResumeData{
		Name:           "Candidate",
		Email:          "",
		Education:      []string{},
		Skills:         []string{},
		Projects:       []string{},
		Experience:     []string{},
		Certifications: []string{},
	}
}

// Normalize replaces nil lists with empty ones so the stored JSON always
// carries arrays.
func (r *ResumeData) Normalize() {
	for _, p := range []*[]string{&r.Education, &r.Skills, &r.Projects, &r.Experience, &r.Certifications} {
		if *p == nil {
			*p = []string{}
		}
	}
	if r.Name == "" {
		r.Name = "Candidate"
	}
}
