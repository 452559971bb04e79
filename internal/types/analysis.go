// Package types defines the structured records exchanged with the language model.
package types

// Shape names a structured record the model is asked to produce.
type Shape string

// Shape constants, one per record type
const (
	ShapeResumeAnalysis      Shape = "resume_analysis"
	ShapeJobAnalysis         Shape = "job_analysis"
	ShapeResumeCustomization Shape = "resume_customization"
	ShapeJobMatch            Shape = "job_match"
)

// ResumeAnalysis is the structured view of a candidate's resume.
type ResumeAnalysis struct {
	Skills     []string         `json:"skills"`
	Experience []map[string]any `json:"experience"`
	Education  []map[string]any `json:"education"`
	Summary    string           `json:"summary"`
}

// JobAnalysis is the structured view of a job description.
type JobAnalysis struct {
	RequiredSkills   []string `json:"required_skills"`
	PreferredSkills  []string `json:"preferred_skills"`
	Responsibilities []string `json:"responsibilities"`
	CompanyValues    []string `json:"company_values"`
	Keywords         []string `json:"keywords"`
}

// ResumeCustomization holds suggestions for tailoring a resume to a job.
type ResumeCustomization struct {
	HighlightedSkills   []string            `json:"highlighted_skills"`
	ExperienceEmphasize map[string][]string `json:"experience_emphasize"`
	SuggestedAdditions  []string            `json:"suggested_additions"`
	SuggestedRemovals   []string            `json:"suggested_removals"`
}

// JobMatch is an assessment of how well a resume fits a job description.
type JobMatch struct {
	MatchScore          int      `json:"match_score"` // 0-100
	MatchingSkills      []string `json:"matching_skills"`
	MissingSkills       []string `json:"missing_skills"`
	ExperienceAlignment string   `json:"experience_alignment"`
	Recommendations     []string `json:"recommendations"`
	Strengths           []string `json:"strengths"`
	Weaknesses          []string `json:"weaknesses"`
}
