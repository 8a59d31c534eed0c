package chat

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/models"
	"github.com/ternarybob/parley/internal/services/functions"
)

// followUpPool holds the questions appended when a response does not close
// with one of its own
var followUpPool = []string{
	"May I ask what specific aspects of this topic are most important to you?",
	"Have you considered how this might impact your understanding?",
	"Would you like to know about different approaches to this topic?",
	"Is there a particular area of this topic you'd like to explore further?",
	"Do you feel your current knowledge on this topic is sufficient for your needs?",
	"Have you explored other aspects of this topic before?",
	"What interests you most about this particular subject?",
	"Would you like me to provide more details about any specific part?",
}

// callPattern matches name(args) spans in generated text
var callPattern = regexp.MustCompile(`(\w+)\(([^)]*)\)`)

// sentenceBreak marks sentence-ending punctuation followed by whitespace
var sentenceBreak = regexp.MustCompile(`[.!]\s+`)

// PostProcessor applies the two response-rewriting passes: inline function
// execution, then follow-up question enforcement. Each call operates on a
// fresh call log; no state persists between responses.
type PostProcessor struct {
	registry *functions.Registry
	logger   arbor.ILogger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPostProcessor creates a post-processor. rng selects follow-up
// questions; pass a seeded source in tests for determinism.
func NewPostProcessor(registry *functions.Registry, rng *rand.Rand, logger arbor.ILogger) *PostProcessor {
	return &PostProcessor{
		registry: registry,
		logger:   logger,
		rng:      rng,
	}
}

// Process rewrites a raw response: executes embedded function calls and
// ensures the response closes with a question. Never returns an error; all
// execution failures are embedded in the text.
func (p *PostProcessor) Process(response string, persona *models.Persona) (string, []models.FunctionCall) {
	processed, calls := p.ExecuteFunctions(response)
	processed = p.EnsureFollowUp(processed, persona)
	return processed, calls
}

// ExecuteFunctions scans the text once for name(args) spans, executes
// registered functions, and rewrites each matched span in place. Unknown
// names are left untouched. Detection runs against the raw text before any
// substitution, so substituted results never re-trigger execution.
func (p *PostProcessor) ExecuteFunctions(text string) (string, []models.FunctionCall) {
	matches := callPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var calls []models.FunctionCall
	offset := 0

	for _, m := range matches {
		name := text[m[2]+offset : m[3]+offset]
		argsStr := text[m[4]+offset : m[5]+offset]

		if !p.registry.Has(name) {
			p.logger.Debug().Str("function", name).Msg("Unregistered function span skipped")
			continue
		}

		args := parseArguments(argsStr)
		call := models.FunctionCall{Function: name, Arguments: args}

		start := m[0] + offset
		end := m[1] + offset
		original := text[start:end]

		var replacement string
		result, err := p.registry.Call(name, args)
		if err != nil {
			call.Error = err.Error()
			replacement = fmt.Sprintf("%s [ERROR: %s]", original, err.Error())
		} else {
			call.Result = result
			replacement = fmt.Sprintf("%s = %s", original, formatResult(result))
		}

		calls = append(calls, call)
		text = text[:start] + replacement + text[end:]
		offset += len(replacement) - len(original)
	}

	return text, dedupeCalls(calls)
}

// parseArguments splits a comma-separated argument string, respecting
// quoted-string boundaries, and classifies each token.
func parseArguments(argsStr string) []interface{} {
	if strings.TrimSpace(argsStr) == "" {
		return nil
	}

	var tokens []string
	var current strings.Builder
	inQuotes := false
	var quoteChar byte

	for i := 0; i < len(argsStr); i++ {
		ch := argsStr[i]
		switch {
		case ch == '"' || ch == '\'':
			if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else if ch == quoteChar {
				inQuotes = false
			}
			current.WriteByte(ch)
		case ch == ',' && !inQuotes:
			tokens = append(tokens, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		tokens = append(tokens, s)
	}

	args := make([]interface{}, 0, len(tokens))
	for _, token := range tokens {
		args = append(args, classifyArgument(token))
	}
	return args
}

// classifyArgument converts a raw token to its typed value. Priority:
// quoted string, boolean, null, number, then raw string.
func classifyArgument(token string) interface{} {
	if len(token) >= 2 {
		first, last := token[0], token[len(token)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return token[1 : len(token)-1]
		}
	}

	switch strings.ToLower(token) {
	case "true":
		return true
	case "false":
		return false
	case "null", "none":
		return nil
	}

	if strings.Contains(token, ".") {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return f
		}
	} else if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return n
	}

	return token
}

// formatResult renders a function result for inline substitution. Maps and
// slices render as indented JSON, scalars as their string form.
func formatResult(result interface{}) string {
	switch result.(type) {
	case nil:
		return "null"
	case map[string]interface{}, []interface{}, []float64, []string:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", result)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", result)
	}
}

// dedupeCalls removes duplicate (function, arguments) entries from a call
// log, keeping the first occurrence
func dedupeCalls(calls []models.FunctionCall) []models.FunctionCall {
	if len(calls) < 2 {
		return calls
	}

	seen := make(map[string]struct{}, len(calls))
	out := calls[:0]
	for _, call := range calls {
		key := fmt.Sprintf("%s(%v)", call.Function, call.Arguments)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, call)
	}
	return out
}

// EnsureFollowUp appends a follow-up question when the response's last
// sentence does not already contain one. Skipped for personas whose prompt
// closes with its own question.
func (p *PostProcessor) EnsureFollowUp(response string, persona *models.Persona) string {
	if persona == nil || persona.AsksOwnQuestions {
		return response
	}

	if strings.Contains(lastSentence(response), "?") {
		return response
	}

	followUp := p.pickFollowUp()
	if strings.HasSuffix(response, ".") || strings.HasSuffix(response, "!") {
		response += " " + followUp
	} else {
		response += ". " + followUp
	}

	p.logger.Debug().
		Str("persona", string(persona.ID)).
		Msg("Appended follow-up question")

	return response
}

// lastSentence extracts the final sentence of the final paragraph
func lastSentence(text string) string {
	paragraph := text
	if idx := strings.LastIndex(text, "\n\n"); idx >= 0 {
		paragraph = text[idx+2:]
	}

	breaks := sentenceBreak.FindAllStringIndex(paragraph, -1)
	if len(breaks) == 0 {
		return paragraph
	}
	last := breaks[len(breaks)-1]
	return paragraph[last[1]:]
}

func (p *PostProcessor) pickFollowUp() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return followUpPool[p.rng.Intn(len(followUpPool))]
}
