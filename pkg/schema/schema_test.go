package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberSchema() *Schema {
	min, max := 0.0, 100.0
	return &Schema{
		MachineName: "H5P.Test",
		Fields: []Field{
			{Name: "title", Kind: KindText, Required: true},
			{Name: "score", Kind: KindNumber, Min: &min, Max: &max},
			{Name: "active", Kind: KindBoolean},
			{Name: "difficulty", Kind: KindSelect, Options: []string{"easy", "hard"}},
			{Name: "library", Kind: KindLibraryRef},
			{
				Name: "cover",
				Kind: KindImage,
			},
			{
				Name: "section",
				Kind: KindGroup,
				Fields: []Field{
					{Name: "heading", Kind: KindText, Required: true},
				},
			},
			{
				Name: "questions",
				Kind: KindList,
				Item: &Field{
					Kind: KindGroup,
					Fields: []Field{
						{Name: "text", Kind: KindText, Required: true},
					},
				},
			},
		},
	}
}

func TestValidate_HappyPath(t *testing.T) {
	value := map[string]any{
		"title":      "intro",
		"score":      42.0,
		"active":     true,
		"difficulty": "easy",
		"library":    "H5P.AdvancedText 1.1",
		"cover":      map[string]any{"path": "images/0.jpg"},
		"section":    map[string]any{"heading": "hi"},
		"questions": []any{
			map[string]any{"text": "q1"},
		},
	}
	errs, warnings := Validate(value, numberSchema())
	assert.Empty(t, errs)
	assert.Empty(t, warnings)
}

func TestValidate_MissingRequiredField(t *testing.T) {
	errs, _ := Validate(map[string]any{}, numberSchema())
	require.NotEmpty(t, errs)
	assert.Equal(t, "title", errs[0].Path)
}

func TestValidate_NumberOutOfRange(t *testing.T) {
	value := map[string]any{"title": "x", "score": 150.0}
	errs, _ := Validate(value, numberSchema())
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "score")
}

func TestValidate_SelectNotInOptions(t *testing.T) {
	value := map[string]any{"title": "x", "difficulty": "medium"}
	errs, _ := Validate(value, numberSchema())
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "difficulty")
}

func TestValidate_BadLibraryReference(t *testing.T) {
	value := map[string]any{"title": "x", "library": "not-a-ref"}
	errs, _ := Validate(value, numberSchema())
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "library")
}

func TestValidate_UnknownFieldIsWarningNotError(t *testing.T) {
	value := map[string]any{"title": "x", "extra": "surprise"}
	errs, warnings := Validate(value, numberSchema())
	assert.Empty(t, errs)
	require.NotEmpty(t, warnings)
	assert.Equal(t, "extra", warnings[0].Path)
}

func TestValidate_NestedGroupPathIsDotted(t *testing.T) {
	value := map[string]any{"title": "x", "section": map[string]any{}}
	errs, _ := Validate(value, numberSchema())
	require.NotEmpty(t, errs)
	assert.Equal(t, "section.heading", errs[0].Path)
}

func TestValidate_ListItemPathIsIndexed(t *testing.T) {
	value := map[string]any{
		"title":     "x",
		"questions": []any{map[string]any{}},
	}
	errs, _ := Validate(value, numberSchema())
	require.NotEmpty(t, errs)
	assert.Equal(t, "questions[0].text", errs[0].Path)
}
