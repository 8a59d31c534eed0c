package chat

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/models"
	"github.com/ternarybob/parley/internal/services/functions"
)

func newTestPostProcessor() *PostProcessor {
	return NewPostProcessor(
		functions.NewRegistry(arbor.NewLogger()),
		rand.New(rand.NewSource(1)),
		arbor.NewLogger(),
	)
}

func writerPersona() *models.Persona {
	return &models.Persona{ID: models.PersonaWriter, Name: "Writer Agent"}
}

func TestExecuteFunctions_Substitution(t *testing.T) {
	p := newTestPostProcessor()

	text, calls := p.ExecuteFunctions("result: premOp(4,1)")

	assert.Equal(t, "result: premOp(4,1) = 6", text)
	require.Len(t, calls, 1)
	assert.Equal(t, "premOp", calls[0].Function)
	assert.Equal(t, []interface{}{int64(4), int64(1)}, calls[0].Arguments)
	assert.Equal(t, int64(6), calls[0].Result)
	assert.Empty(t, calls[0].Error)
}

func TestExecuteFunctions_MultipleCallsOffsetCorrection(t *testing.T) {
	p := newTestPostProcessor()

	text, calls := p.ExecuteFunctions("first premOp(1,1) then factorial(4) done")

	assert.Equal(t, "first premOp(1,1) = 3 then factorial(4) = 24 done", text)
	assert.Len(t, calls, 2)
}

func TestExecuteFunctions_UnknownNameLeftUntouched(t *testing.T) {
	p := newTestPostProcessor()

	text, calls := p.ExecuteFunctions("see also unknownFn(1,2) here")

	assert.Equal(t, "see also unknownFn(1,2) here", text)
	assert.Empty(t, calls)
}

func TestExecuteFunctions_ErrorEmbedded(t *testing.T) {
	p := newTestPostProcessor()

	text, calls := p.ExecuteFunctions("try factorial(-1) now")

	assert.Contains(t, text, "factorial(-1) [ERROR:")
	require.Len(t, calls, 1)
	assert.NotEmpty(t, calls[0].Error)
}

func TestExecuteFunctions_DedupKeepsFirst(t *testing.T) {
	p := newTestPostProcessor()

	text, calls := p.ExecuteFunctions("premOp(1,2) and again premOp(1,2)")

	// both spans are rewritten but the call log records one entry
	assert.Equal(t, 2, strings.Count(text, "premOp(1,2) = 5"))
	assert.Len(t, calls, 1)
}

func TestExecuteFunctions_QuotedCommaArguments(t *testing.T) {
	p := newTestPostProcessor()

	text, calls := p.ExecuteFunctions(`translate_text("hello", "es")`)

	assert.Contains(t, text, "= hola")
	require.Len(t, calls, 1)
	assert.Equal(t, []interface{}{"hello", "es"}, calls[0].Arguments)
}

func TestParseArguments_Classification(t *testing.T) {
	args := parseArguments(`"quoted, with comma", true, FALSE, null, none, 3.5, 42, raw`)

	assert.Equal(t, []interface{}{
		"quoted, with comma", true, false, nil, nil, 3.5, int64(42), "raw",
	}, args)
}

func TestParseArguments_Empty(t *testing.T) {
	assert.Nil(t, parseArguments(""))
	assert.Nil(t, parseArguments("   "))
}

func TestEnsureFollowUp_AlreadyQuestion(t *testing.T) {
	p := newTestPostProcessor()

	response := "Coverage depends on your policy. Does that answer your question?"
	assert.Equal(t, response, p.EnsureFollowUp(response, writerPersona()))
}

func TestEnsureFollowUp_AppendsOneQuestion(t *testing.T) {
	p := newTestPostProcessor()

	response := p.EnsureFollowUp("Coverage varies by state.", writerPersona())

	assert.True(t, strings.HasSuffix(response, "?"))
	assert.True(t, strings.HasPrefix(response, "Coverage varies by state. "))
	assert.Equal(t, 1, strings.Count(response, "?"))
}

func TestEnsureFollowUp_NoTerminalPunctuation(t *testing.T) {
	p := newTestPostProcessor()

	response := p.EnsureFollowUp("Coverage varies by state", writerPersona())

	assert.True(t, strings.HasPrefix(response, "Coverage varies by state. "))
	assert.True(t, strings.HasSuffix(response, "?"))
}

func TestEnsureFollowUp_QuestionInEarlierParagraph(t *testing.T) {
	p := newTestPostProcessor()

	// a question in an earlier paragraph does not count; only the last
	// sentence of the last paragraph is inspected
	response := p.EnsureFollowUp("Is that clear?\n\nIt works fine.", writerPersona())
	assert.True(t, strings.HasSuffix(response, "?"))
	assert.NotEqual(t, "Is that clear?\n\nIt works fine.", response)
}

func TestEnsureFollowUp_SkippedForSelfQuestioningPersona(t *testing.T) {
	p := newTestPostProcessor()

	sales := &models.Persona{ID: models.PersonaSales, AsksOwnQuestions: true}
	response := "Our premium plan covers that."
	assert.Equal(t, response, p.EnsureFollowUp(response, sales))
}

func TestProcess_FunctionsBeforeFollowUp(t *testing.T) {
	p := newTestPostProcessor()

	response, calls := p.Process("The answer is premOp(2,3)", writerPersona())

	assert.Contains(t, response, "premOp(2,3) = 8")
	assert.True(t, strings.HasSuffix(response, "?"))
	assert.Len(t, calls, 1)
}
