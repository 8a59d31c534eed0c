package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPersona is returned when a raw string names no registered persona
var ErrUnknownPersona = errors.New("unknown persona")

// ErrReservedPersona is returned when a caller requests the router or
// system persona, which only the pipeline itself may use
var ErrReservedPersona = errors.New("persona is reserved")

// PersonaID identifies a registered persona. The set is closed at startup:
// routing never produces an ID outside this set, and explicit overrides
// with unknown IDs are rejected at the request edge.
type PersonaID string

const (
	// PersonaDeveloper answers technical questions with precise detail
	PersonaDeveloper PersonaID = "developer"
	// PersonaWriter explains complex concepts in plain language (routing default)
	PersonaWriter PersonaID = "writer"
	// PersonaTester fact-checks and validates answers
	PersonaTester PersonaID = "tester"
	// PersonaSales handles purchase-intent conversations
	PersonaSales PersonaID = "sales"
	// PersonaRouter classifies queries; never answers directly
	PersonaRouter PersonaID = "router"
	// PersonaSystem tags synthesized meta responses (history listings).
	// Reserved: not registered, not routable.
	PersonaSystem PersonaID = "system"
)

// ParsePersonaID validates a raw string against the closed persona set.
// The system and router IDs are reserved and not accepted from callers.
func ParsePersonaID(raw string) (PersonaID, error) {
	id := PersonaID(strings.ToLower(strings.TrimSpace(raw)))
	switch id {
	case PersonaDeveloper, PersonaWriter, PersonaTester, PersonaSales:
		return id, nil
	case PersonaRouter, PersonaSystem:
		return "", fmt.Errorf("%w: %q cannot be requested", ErrReservedPersona, raw)
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownPersona, raw)
	}
}

// DisplayName returns a capitalized form of the ID for transcripts and UI
func (id PersonaID) DisplayName() string {
	s := string(id)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Persona is a named role with its own prompt template, temperature, and
// model tier. Immutable after registration.
type Persona struct {
	ID          PersonaID `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Temperature float32   `json:"temperature" yaml:"temperature"`
	Model       string    `json:"model" yaml:"model"`
	// AsksOwnQuestions marks personas whose prompt already instructs them to
	// close with a question; follow-up enforcement is skipped for these to
	// avoid doubling.
	AsksOwnQuestions bool `json:"asks_own_questions" yaml:"asks_own_questions"`
}
