package schemas

import (
	"encoding/json"
	"testing"

	"github.com/jonathan/resume-tools/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allShapes = []types.Shape{
	types.ShapeResumeAnalysis,
	types.ShapeJobAnalysis,
	types.ShapeResumeCustomization,
	types.ShapeJobMatch,
}

func TestAllSchemas_ValidJSON(t *testing.T) {
	for _, shape := range allShapes {
		t.Run(string(shape), func(t *testing.T) {
			raw, err := Raw(shape)
			require.NoError(t, err)

			var v map[string]any
			require.NoError(t, json.Unmarshal([]byte(raw), &v))
			assert.Equal(t, false, v["additionalProperties"], "schema must reject unknown fields")
			assert.NotEmpty(t, v["required"])
		})
	}
}

func TestRaw_UnknownShape(t *testing.T) {
	_, err := Raw(types.Shape("nope"))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		shape     types.Shape
		doc       string
		wantError bool
	}{
		{
			name:  "valid resume analysis",
			shape: types.ShapeResumeAnalysis,
			doc:   `{"skills":["Go"],"experience":[{"company":"Acme"}],"education":[],"summary":"Engineer"}`,
		},
		{
			name:      "resume analysis missing summary",
			shape:     types.ShapeResumeAnalysis,
			doc:       `{"skills":["Go"],"experience":[],"education":[]}`,
			wantError: true,
		},
		{
			name:      "resume analysis with extra field",
			shape:     types.ShapeResumeAnalysis,
			doc:       `{"skills":[],"experience":[],"education":[],"summary":"","age":3}`,
			wantError: true,
		},
		{
			name:      "job analysis wrong item type",
			shape:     types.ShapeJobAnalysis,
			doc:       `{"required_skills":[1],"preferred_skills":[],"responsibilities":[],"company_values":[],"keywords":[]}`,
			wantError: true,
		},
		{
			name:  "customization with emphasis map",
			shape: types.ShapeResumeCustomization,
			doc:   `{"highlighted_skills":["Go"],"experience_emphasize":{"Acme":["led migration"]},"suggested_additions":[],"suggested_removals":[]}`,
		},
		{
			name:      "customization emphasis values must be lists",
			shape:     types.ShapeResumeCustomization,
			doc:       `{"highlighted_skills":[],"experience_emphasize":{"Acme":"led"},"suggested_additions":[],"suggested_removals":[]}`,
			wantError: true,
		},
		{
			name:      "job match score out of range",
			shape:     types.ShapeJobMatch,
			doc:       `{"match_score":140,"matching_skills":[],"missing_skills":[],"experience_alignment":"","recommendations":[],"strengths":[],"weaknesses":[]}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.shape, tt.doc)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "skills", Message: "is required"},
			{Field: "summary", Message: "must be a string"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "skills")
	assert.Contains(t, errorMsg, "summary")
}

func TestFormatInstructions(t *testing.T) {
	text, err := FormatInstructions(types.ShapeJobAnalysis)
	require.NoError(t, err)
	assert.Contains(t, text, "JSON schema")
	assert.Contains(t, text, `"required_skills"`)
	assert.Contains(t, text, "Skills that are preferred but not required")
}
