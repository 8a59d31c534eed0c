package personas

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/models"
)

func TestNewRegistry_Defaults(t *testing.T) {
	r := NewRegistry("claude-sonnet-4-20250514", "gemini-2.5-flash", arbor.NewLogger())

	developer, err := r.Get(models.PersonaDeveloper)
	require.NoError(t, err)
	assert.Equal(t, float32(0.2), developer.Temperature)
	assert.Equal(t, "claude-sonnet-4-20250514", developer.Model)
	assert.False(t, developer.AsksOwnQuestions)

	sales, err := r.Get(models.PersonaSales)
	require.NoError(t, err)
	assert.Equal(t, float32(0.7), sales.Temperature)
	assert.True(t, sales.AsksOwnQuestions)

	router, err := r.Get(models.PersonaRouter)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", router.Model)
	assert.Equal(t, float32(0.0), router.Temperature)
}

func TestRegistry_AnswerPersonasExcludesRouter(t *testing.T) {
	r := NewRegistry("claude-model", "gemini-model", arbor.NewLogger())

	answerers := r.AnswerPersonas()
	require.Len(t, answerers, 4)
	for _, p := range answerers {
		assert.NotEqual(t, models.PersonaRouter, p.ID)
	}
	// Stable order
	assert.Equal(t, models.PersonaDeveloper, answerers[0].ID)
	assert.Equal(t, models.PersonaSales, answerers[3].ID)
}

func TestLoadDefinitions_OverridesKnownPersona(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	content := `personas:
  - id: developer
    description: "Answers deep technical questions about the codebase"
    temperature: 0.3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r := NewRegistry("claude-model", "gemini-model", arbor.NewLogger())
	require.NoError(t, r.LoadDefinitions(path))

	developer, err := r.Get(models.PersonaDeveloper)
	require.NoError(t, err)
	assert.Equal(t, "Answers deep technical questions about the codebase", developer.Description)
	assert.Equal(t, float32(0.3), developer.Temperature)
	// Unset fields keep their defaults
	assert.Equal(t, "Developer Agent", developer.Name)
	assert.Equal(t, "claude-model", developer.Model)
}

func TestLoadDefinitions_RejectsUnknownPersona(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	content := `personas:
  - id: lawyer
    description: "Reviews contracts"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r := NewRegistry("claude-model", "gemini-model", arbor.NewLogger())
	err := r.LoadDefinitions(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lawyer")
}

func TestRender_FallbacksForEmptySections(t *testing.T) {
	r := NewRegistry("claude-model", "gemini-model", arbor.NewLogger())
	spec, err := r.Prompt(models.PersonaWriter)
	require.NoError(t, err)

	rendered := spec.Render(PromptInput{
		PersonaName:        "Writer Agent",
		PersonaDescription: "Explains things clearly",
		Query:              "What is a deductible?",
	})

	assert.Contains(t, rendered, NoHistoryMarker)
	assert.Contains(t, rendered, "No relevant documents found.")
	assert.Contains(t, rendered, "Question: What is a deductible?")
	assert.False(t, strings.Contains(rendered, "{"), "unsubstituted placeholder in rendered prompt")
}

func TestRouterPrompt_ListsAnswerPersonas(t *testing.T) {
	r := NewRegistry("claude-model", "gemini-model", arbor.NewLogger())

	prompt := RouterPrompt(r.AnswerPersonas(), "How do I file a claim?")

	assert.Contains(t, prompt, "- developer:")
	assert.Contains(t, prompt, "- writer:")
	assert.Contains(t, prompt, "- tester:")
	assert.Contains(t, prompt, "- sales:")
	assert.NotContains(t, prompt, "- router:")
	assert.Contains(t, prompt, "Query: How do I file a claim?")
}

func TestVerificationPrompt_Shape(t *testing.T) {
	prompt := VerificationPrompt("Is hail covered?", "Yes, under comprehensive cover.")

	assert.Equal(t, "Question: Is hail covered?\n\nProposed answer: Yes, under comprehensive cover.\n\nIs this answer accurate?", prompt)
}
