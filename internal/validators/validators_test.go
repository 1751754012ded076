package validators

import "testing"

func TestBusiness(t *testing.T) {
	tests := []struct {
		name   string
		output string
		valid  bool
	}{
		{
			name:   "strategy with metrics",
			output: "Focus on retention. Metrics to track: churn rate, expansion revenue, NPS.",
			valid:  true,
		},
		{
			name:   "sql leakage fails",
			output: "Key metric: churn. To compute it, GROUP BY plan_type over the subscriptions table.",
			valid:  false,
		},
		{
			name:   "funnel artifact fails",
			output: "Build a conversion funnel to track the metric.",
			valid:  false,
		},
		{
			name:   "funnel dropoff analysis fails",
			output: "The funnel shows a 40% dropoff at checkout; key metric is conversion.",
			valid:  false,
		},
		{
			name:   "no explicit metrics fails",
			output: "Invest in onboarding and improve the pricing page.",
			valid:  false,
		},
		{
			name:   "sql in trailing note is excluded",
			output: "Track the churn metric quarterly.\nNote: a SELECT * query could verify this.",
			valid:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, feedback := Business(tt.output)
			if valid != tt.valid {
				t.Errorf("Business(%q) = (%v, %q), want valid=%v", tt.output, valid, feedback, tt.valid)
			}
			if !valid && feedback == "" {
				t.Error("failing validation must explain itself")
			}
		})
	}
}

func TestProduct(t *testing.T) {
	tests := []struct {
		name   string
		output string
		valid  bool
	}{
		{
			name:   "funnel analysis passes",
			output: "Define an activation funnel: signup -> first upload -> first query.",
			valid:  true,
		},
		{
			name:   "cohort analysis passes",
			output: "Build weekly cohort retention over the signup date.",
			valid:  true,
		},
		{
			name:   "budget language fails",
			output: "Segment users by plan, then allocate budget to the weakest funnel stage.",
			valid:  false,
		},
		{
			name:   "sql leakage fails",
			output: "Cohort query: SELECT * FROM events ORDER BY ts.",
			valid:  false,
		},
		{
			name:   "no product artifact fails",
			output: "Users seem unhappy with the dashboard.",
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, feedback := Product(tt.output)
			if valid != tt.valid {
				t.Errorf("Product(%q) = (%v, %q), want valid=%v", tt.output, valid, feedback, tt.valid)
			}
		})
	}
}

func TestSQL(t *testing.T) {
	if valid, _ := SQL("WITH churned AS (SELECT * FROM subs) SELECT count(*) FROM churned"); !valid {
		t.Error("query with SELECT must pass")
	}
	if valid, _ := SQL("I would aggregate the subscriptions table by plan."); valid {
		t.Error("prose without SELECT must fail")
	}
}

func TestViz(t *testing.T) {
	chart := "```python\nimport plotly.express as px\nfig = px.bar(df, x='plan_type', y='amount')\nfig.show()\n```"
	if valid, _ := Viz(chart); !valid {
		t.Error("fenced px chart must pass")
	}

	if valid, _ := Viz("fig = px.bar(df, x='plan_type')"); valid {
		t.Error("unfenced code must fail")
	}

	matplotlib := "```python\nimport matplotlib.pyplot as plt\nplt.bar(x, y)\n```"
	if valid, _ := Viz(matplotlib); valid {
		t.Error("non-plotly chart must fail")
	}
}

// Validators are pure: the same output always yields the same verdict and
// feedback.
func TestValidatorsAreDeterministic(t *testing.T) {
	outputs := []string{
		"Track the churn metric.",
		"SELECT * FROM data GROUP BY plan_type",
		"```python\npx.line(df)\n```",
		"",
	}
	fns := map[string]Func{"business": Business, "product": Product, "sql": SQL, "viz": Viz}

	for name, fn := range fns {
		for _, out := range outputs {
			v1, f1 := fn(out)
			v2, f2 := fn(out)
			if v1 != v2 || f1 != f2 {
				t.Errorf("%s(%q) not deterministic", name, out)
			}
		}
	}
}
