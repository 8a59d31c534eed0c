package personas

import (
	"fmt"
	"strings"

	"github.com/ternarybob/parley/internal/models"
)

// NoHistoryMarker is rendered into prompts when a session has no prior turns
const NoHistoryMarker = "No previous conversation history available."

// PromptSpec is a parameterized prompt template for one persona. Render
// performs placeholder substitution; the template text itself never changes
// after registration.
type PromptSpec struct {
	Template string
}

// PromptInput carries the values substituted into a PromptSpec
type PromptInput struct {
	PersonaName        string
	PersonaDescription string
	Documents          string
	HistorySection     string
	Query              string
}

// Render substitutes the input values into the template. Missing sections
// render as their fallback text rather than empty placeholders.
func (s *PromptSpec) Render(in PromptInput) string {
	history := in.HistorySection
	if strings.TrimSpace(history) == "" {
		history = NoHistoryMarker
	}
	documents := in.Documents
	if strings.TrimSpace(documents) == "" {
		documents = "No relevant documents found."
	}

	replacer := strings.NewReplacer(
		"{persona_name}", in.PersonaName,
		"{persona_description}", in.PersonaDescription,
		"{documents}", documents,
		"{history_section}", history,
		"{query}", in.Query,
	)
	return replacer.Replace(s.Template)
}

const answerTemplate = `You are {persona_name}. {persona_description}

Use the following context to answer the question. If the context does not
contain the answer, say so rather than inventing one.

Context documents:
{documents}

Conversation history:
{history_section}

Question: {query}

Answer:`

const salesTemplate = `You are {persona_name}. {persona_description}

You are speaking with a potential customer. Use the context and the
conversation so far to move the discussion forward. Always end your reply
with a question that advances the sale.

Context documents:
{documents}

Conversation history:
{history_section}

Customer message: {query}

Reply:`

const testerTemplate = `You are {persona_name}. {persona_description}

Review the material below and respond with a concise assessment of its
accuracy. Point out any factual errors you find.

Context documents:
{documents}

Conversation history:
{history_section}

Material to review: {query}

Assessment:`

// defaultPromptSpec returns the built-in template for a persona
func defaultPromptSpec(id models.PersonaID) *PromptSpec {
	switch id {
	case models.PersonaSales:
		return &PromptSpec{Template: salesTemplate}
	case models.PersonaTester:
		return &PromptSpec{Template: testerTemplate}
	case models.PersonaRouter:
		return &PromptSpec{Template: ""}
	default:
		return &PromptSpec{Template: answerTemplate}
	}
}

// RouterPrompt builds the classification prompt for the routing tier. The
// model is expected to answer with exactly one persona identifier.
func RouterPrompt(personas []*models.Persona, query string) string {
	var b strings.Builder
	b.WriteString("Classify the following query to the best-suited agent.\n\n")
	b.WriteString("Available agents:\n")
	for _, p := range personas {
		fmt.Fprintf(&b, "- %s: %s\n", p.ID, p.Description)
	}
	b.WriteString("\nQuery: ")
	b.WriteString(query)
	b.WriteString("\n\nRespond with exactly one word, the agent identifier.")
	return b.String()
}

// SalesIntentPrompt asks the routing tier whether a query shows purchase
// intent. The model is expected to answer yes or no.
func SalesIntentPrompt(query string) string {
	return fmt.Sprintf("Does the following message express intent to buy, subscribe, or purchase a product or service? Answer with exactly one word, yes or no.\n\nMessage: %s", query)
}

// VerificationPrompt builds the review prompt submitted to the tester
// persona during ExecuteWithReview.
func VerificationPrompt(query, answer string) string {
	return fmt.Sprintf("Question: %s\n\nProposed answer: %s\n\nIs this answer accurate?", query, answer)
}
