package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/datacopilot/internal/models"
)

var routerPrompt = strings.TrimSpace(fmt.Sprintf(`
Classify the user's analytics question into one or more intents from:
%s.

If the request is unrelated to business, data, or analytics, return 'OUT_OF_SCOPE'.

Guidance:
- BUSINESS_STRATEGY: Strategy, ROI, unit economics, KPI tradeoffs.
- PRODUCT_ANALYTICS: Funnels, cohorts, segmentation, experiment design.
- SQL_INVESTIGATION: Specific requests for database queries/code.
- VISUALIZATION: Requests for charts, graphs, or visual trends.

Return ONLY a comma-separated list of labels. No extra text.
`, intentList()))

func intentList() string {
	labels := make([]string, len(models.AllIntents))
	for n, intent := range models.AllIntents {
		labels[n] = string(intent)
	}
	return strings.Join(labels, ", ")
}

// Router maps a free-text question onto the fixed intent set.
type Router struct {
	model  Model
	logger *slog.Logger
}

// NewRouter creates an intent classifier backed by the given model.
func NewRouter(model Model, logger *slog.Logger) *Router {
	return &Router{model: model, logger: logger}
}

// Classify returns an ordered, de-duplicated intent set for the question.
// A question may map to several intents at once; mutual exclusivity is never
// forced. OUT_OF_SCOPE anywhere in the model output takes precedence over
// other labels. An empty or failed classification falls back to the default
// intent so the pipeline always attempts to produce something.
func (r *Router) Classify(ctx context.Context, question string) (intents []models.Intent, degraded bool) {
	raw, err := r.model.GenerateWithSystem(ctx, routerPrompt, strings.TrimSpace(question))
	if err != nil {
		r.logger.Warn("intent classification failed, using default intent", "error", err)
		return []models.Intent{models.DefaultIntent}, true
	}

	raw = strings.ToUpper(strings.TrimSpace(raw))
	if strings.Contains(raw, string(models.IntentOutOfScope)) {
		return []models.Intent{models.IntentOutOfScope}, false
	}

	seen := make(map[models.Intent]bool)
	for _, label := range strings.Split(raw, ",") {
		intent, ok := models.ParseIntent(label)
		if !ok || seen[intent] {
			continue
		}
		seen[intent] = true
		intents = append(intents, intent)
	}

	if len(intents) == 0 {
		return []models.Intent{models.DefaultIntent}, false
	}
	return intents, false
}
