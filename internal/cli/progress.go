package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/datacopilot/internal/models"
	"github.com/raphaelgruber/datacopilot/internal/pipeline"
	"github.com/raphaelgruber/datacopilot/internal/schema"
)

// stageMsg carries a pipeline stage event into the model.
type stageMsg pipeline.StageEvent

// pipelineDoneMsg carries the final session state once the run completes.
type pipelineDoneMsg struct {
	state models.SessionState
}

// stageLabels maps stages to display text.
var stageLabels = map[pipeline.Stage]string{
	pipeline.StageGate:       "Screening question",
	pipeline.StageRouting:    "Routing intents",
	pipeline.StageClarifying: "Checking clarity",
	pipeline.StageGenerating: "Generating",
	pipeline.StageValidating: "Validating",
	pipeline.StageScoring:    "Scoring",
	pipeline.StageDone:       "Done",
}

// stageModel is the bubbletea model for live pipeline progress.
type stageModel struct {
	progress progress.Model
	current  pipeline.StageEvent
	state    models.SessionState
	theme    Theme
	done     bool
	quitting bool
}

func newStageModel() stageModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return stageModel{
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m stageModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m stageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stageMsg:
		m.current = pipeline.StageEvent(msg)
		return m, nil

	case pipelineDoneMsg:
		m.state = msg.state
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m stageModel) View() tea.View {
	if m.done || m.quitting {
		return tea.NewView("")
	}

	label := stageLabels[m.current.Stage]
	if label == "" {
		label = "Thinking"
	}
	if m.current.Detail != "" {
		label = fmt.Sprintf("%s: %s", label, m.current.Detail)
	}

	var pct float64
	if m.current.Total > 0 {
		pct = float64(m.current.Step) / float64(m.current.Total)
	}

	status := m.theme.headerStyle().Render(label + "...")
	bar := m.progress.ViewAs(pct)
	return tea.NewView(fmt.Sprintf("%s\n%s\n", status, bar))
}

// runWithProgress executes one controller invocation behind a live progress
// display and returns the updated session state.
func runWithProgress(ctx context.Context, ctrl *pipeline.Controller, state models.SessionState, summary *schema.Summary) models.SessionState {
	p := tea.NewProgram(newStageModel())

	go func() {
		result := ctrl.Run(ctx, state, summary, func(ev pipeline.StageEvent) {
			p.Send(stageMsg(ev))
		})
		p.Send(pipelineDoneMsg{state: result})
	}()

	finalModel, err := p.Run()
	if err != nil {
		// Progress display is cosmetic; fall back to a plain blocking run.
		return ctrl.Run(ctx, state, summary, nil)
	}

	m, ok := finalModel.(stageModel)
	if !ok || !m.done {
		// Interrupted before the pipeline finished.
		return state
	}
	return m.state
}
