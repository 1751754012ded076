package pipeline

import (
	"github.com/raphaelgruber/datacopilot/internal/models"
	"github.com/raphaelgruber/datacopilot/internal/prompts"
	"github.com/raphaelgruber/datacopilot/internal/validators"
)

// dataNeed encodes a generator's grounding requirement. When it is unmet the
// generator is skipped with a deterministic substitute entry and no model
// call.
type dataNeed int

const (
	// needNone: the generator runs with or without a dataset.
	needNone dataNeed = iota
	// needSchemaOrContext: a schema summary or clarification text must be
	// present (query generation).
	needSchemaOrContext
	// needSchema: only an actual dataset will do (chart generation).
	needSchema
)

// generatorEntry pairs one intent's prompt builder with its validator.
type generatorEntry struct {
	build    func(question, schemaText, clarifications string) string
	validate validators.Func
	need     dataNeed
}

// registry is the intent dispatch table, built once at startup. Adding an
// intent means adding one entry here, not touching call sites.
type registry map[models.Intent]generatorEntry

func defaultRegistry() registry {
	return registry{
		models.IntentBusinessStrategy: {
			build:    prompts.Business,
			validate: validators.Business,
			need:     needNone,
		},
		models.IntentProductAnalytics: {
			build:    prompts.Product,
			validate: validators.Product,
			need:     needNone,
		},
		models.IntentSQLInvestigation: {
			build:    prompts.SQL,
			validate: validators.SQL,
			need:     needSchemaOrContext,
		},
		models.IntentVisualization: {
			build:    prompts.Viz,
			validate: validators.Viz,
			need:     needSchema,
		},
	}
}

// satisfied reports whether the grounding requirement is met.
func (n dataNeed) satisfied(hasSchema bool, clarifications string) bool {
	switch n {
	case needSchemaOrContext:
		return hasSchema || clarifications != ""
	case needSchema:
		return hasSchema
	default:
		return true
	}
}

// skippedEntry is the deterministic substitute stored when a grounding
// requirement is unmet. No model call occurs and the score is exactly zero.
func skippedEntry() models.ResultEntry {
	return models.ResultEntry{
		Output:    "Missing Dataset",
		Valid:     false,
		Feedback:  "skipped: missing schema",
		Score:     0.0,
		Rationale: "No CSV",
		Skipped:   true,
	}
}
