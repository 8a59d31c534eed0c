// Package personas owns the closed persona set and the prompt template
// registered for each persona.
package personas

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/models"
	"gopkg.in/yaml.v3"
)

// Registry maps persona identifiers to their definitions and prompt specs.
// Populated at process start; immutable afterwards.
type Registry struct {
	personas map[models.PersonaID]*models.Persona
	prompts  map[models.PersonaID]*PromptSpec
	logger   arbor.ILogger
}

// personaDefinitionsFile is the shape of the optional YAML overrides file
type personaDefinitionsFile struct {
	Personas []models.Persona `yaml:"personas"`
}

// NewRegistry creates a registry with the built-in persona set.
// claudeModel and geminiModel set the model tiers: answer personas use the
// primary (Claude) tier, the router uses the cheap (Gemini) tier.
func NewRegistry(claudeModel, geminiModel string, logger arbor.ILogger) *Registry {
	r := &Registry{
		personas: make(map[models.PersonaID]*models.Persona),
		prompts:  make(map[models.PersonaID]*PromptSpec),
		logger:   logger,
	}

	defaults := []models.Persona{
		{
			ID:          models.PersonaDeveloper,
			Name:        "Developer Agent",
			Description: "Specializes in technical concepts and detailed explanations",
			Temperature: 0.2,
			Model:       claudeModel,
		},
		{
			ID:          models.PersonaWriter,
			Name:        "Writer Agent",
			Description: "Specializes in clear, concise explanations of complex concepts",
			Temperature: 0.5,
			Model:       claudeModel,
		},
		{
			ID:          models.PersonaTester,
			Name:        "Tester Agent",
			Description: "Validates answers for factual accuracy and correctness",
			Temperature: 0.0,
			Model:       claudeModel,
		},
		{
			ID:               models.PersonaSales,
			Name:             "Sales Agent",
			Description:      "Guides purchase-ready conversations toward next steps",
			Temperature:      0.7,
			Model:            claudeModel,
			AsksOwnQuestions: true,
		},
		{
			ID:          models.PersonaRouter,
			Name:        "Query Router",
			Description: "Classifies queries to select the answering persona",
			Temperature: 0.0,
			Model:       geminiModel,
		},
	}

	for i := range defaults {
		p := defaults[i]
		r.personas[p.ID] = &p
		r.prompts[p.ID] = defaultPromptSpec(p.ID)
	}

	return r
}

// LoadDefinitions applies persona overrides from a YAML file. Only fields
// present for a known persona ID are applied; unknown IDs are rejected so
// the persona set stays closed.
func (r *Registry) LoadDefinitions(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read persona definitions %s: %w", path, err)
	}

	var file personaDefinitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse persona definitions %s: %w", path, err)
	}

	for _, override := range file.Personas {
		existing, ok := r.personas[override.ID]
		if !ok {
			return fmt.Errorf("persona definitions reference unknown persona %q", override.ID)
		}

		updated := *existing
		if override.Name != "" {
			updated.Name = override.Name
		}
		if override.Description != "" {
			updated.Description = override.Description
		}
		if override.Model != "" {
			updated.Model = override.Model
		}
		if override.Temperature != 0 {
			updated.Temperature = override.Temperature
		}
		r.personas[override.ID] = &updated

		r.logger.Debug().
			Str("persona", string(override.ID)).
			Str("model", updated.Model).
			Msg("Applied persona definition override")
	}

	r.logger.Info().
		Str("path", path).
		Int("overrides", len(file.Personas)).
		Msg("Loaded persona definitions")

	return nil
}

// Get returns the persona for an ID
func (r *Registry) Get(id models.PersonaID) (*models.Persona, error) {
	p, ok := r.personas[id]
	if !ok {
		return nil, fmt.Errorf("persona %q is not registered", id)
	}
	return p, nil
}

// Prompt returns the prompt spec for a persona
func (r *Registry) Prompt(id models.PersonaID) (*PromptSpec, error) {
	spec, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("no prompt template for persona %q", id)
	}
	return spec, nil
}

// Has reports whether an ID names a registered persona
func (r *Registry) Has(id models.PersonaID) bool {
	_, ok := r.personas[id]
	return ok
}

// AnswerPersonas returns the personas eligible to answer queries
// (the registered set minus the router), in a stable order.
func (r *Registry) AnswerPersonas() []*models.Persona {
	order := []models.PersonaID{models.PersonaDeveloper, models.PersonaWriter, models.PersonaTester, models.PersonaSales}
	out := make([]*models.Persona, 0, len(order))
	for _, id := range order {
		if p, ok := r.personas[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
