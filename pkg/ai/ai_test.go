package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeJSON_PlainObject(t *testing.T) {
	raw, err := SanitizeJSON(`{"a": 1, "b": "two"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1, "b": "two"}`, string(raw))
}

func TestSanitizeJSON_StripsCodeFence(t *testing.T) {
	raw, err := SanitizeJSON("Here you go:\n```json\n{\"a\": 1}\n```\nHope that helps!")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(raw))
}

func TestSanitizeJSON_StripsSurroundingProseWithoutFence(t *testing.T) {
	raw, err := SanitizeJSON(`Sure! {"a": 1} Let me know if you need changes.`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(raw))
}

func TestSanitizeJSON_Array(t *testing.T) {
	raw, err := SanitizeJSON(`[{"a": 1}, {"b": 2}]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a": 1}, {"b": 2}]`, string(raw))
}

func TestSanitizeJSON_NestedBracketsDontConfuseDepth(t *testing.T) {
	raw, err := SanitizeJSON(`{"items": [1, 2, {"nested": true}], "done": true}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": [1, 2, {"nested": true}], "done": true}`, string(raw))
}

func TestSanitizeJSON_NoJSONFound(t *testing.T) {
	_, err := SanitizeJSON("I'm sorry, I can't help with that.")
	assert.Error(t, err)
}

func TestSanitizeJSON_BraceInsideString(t *testing.T) {
	raw, err := SanitizeJSON(`{"text": "use a { brace } inside"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text": "use a { brace } inside"}`, string(raw))
}

func TestBuildPrompt_IncludesAllSections(t *testing.T) {
	prompt := BuildPrompt("Write a quiz question.", `{"question": "string"}`, `{"question": "What is 2+2?"}`)
	assert.Contains(t, prompt, "Write a quiz question.")
	assert.Contains(t, prompt, `{"question": "string"}`)
	assert.Contains(t, prompt, "What is 2+2?")
}
