// Package tui renders projectrag's terminal views: the folder-ingestion
// progress view and styled summaries. It is a driving adapter over the
// ingestion and knowledge services.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/projectrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/projectrag/internal/core/domain"
	"github.com/custodia-labs/projectrag/internal/core/ports/driving"
)

// maxRecent is the number of file results kept on screen.
const maxRecent = 5

// maxBarWidth caps the progress bar width.
const maxBarWidth = 60

// FileDoneMsg reports one processed file.
type FileDoneMsg struct {
	Done    int
	Total   int
	Outcome domain.IngestOutcome
}

// FolderDoneMsg reports the end of a folder ingestion.
type FolderDoneMsg struct {
	Outcome domain.FolderOutcome
}

// IngestModel is the bubbletea model of the folder-ingestion progress view.
type IngestModel struct {
	styles  *styles.Styles
	bar     progress.Model
	spinner spinner.Model

	path   string
	done   int
	total  int
	recent []string

	outcome     *domain.FolderOutcome
	interrupted bool
}

// NewIngestModel creates a progress view for a folder.
func NewIngestModel(path string) IngestModel {
	st := styles.DefaultStyles()
	start, end := st.ProgressGradient()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.Subtitle

	return IngestModel{
		styles:  st,
		bar:     progress.New(progress.WithGradient(start, end), progress.WithWidth(40)),
		spinner: sp,
		path:    path,
	}
}

// Init starts the spinner.
func (m IngestModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles progress messages and quit keys.
func (m IngestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-20, 10), maxBarWidth)
		return m, nil

	case FileDoneMsg:
		m.done = msg.Done
		m.total = msg.Total
		m.recent = append(m.recent, OutcomeLine(m.styles, msg.Outcome))
		if len(m.recent) > maxRecent {
			m.recent = m.recent[len(m.recent)-maxRecent:]
		}
		return m, nil

	case FolderDoneMsg:
		outcome := msg.Outcome
		m.outcome = &outcome
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress bar and the latest results, or the final totals.
func (m IngestModel) View() string {
	if m.outcome != nil {
		return RenderFolderOutcome(m.styles, *m.outcome)
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.styles.Title.Render("Ingesting " + m.path))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %d/%d files", m.done, m.total)))
	b.WriteString("\n\n")
	for _, line := range m.recent {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render("\nq to stop"))
	b.WriteString("\n")
	return b.String()
}

// Percent returns the completed fraction in [0, 1].
func (m IngestModel) Percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// Outcome returns the final outcome once the ingestion has finished.
func (m IngestModel) Outcome() (domain.FolderOutcome, bool) {
	if m.outcome == nil {
		return domain.FolderOutcome{}, false
	}
	return *m.outcome, true
}

// Interrupted reports whether the user quit before the ingestion finished.
func (m IngestModel) Interrupted() bool {
	return m.interrupted
}

// IngestFunc runs a folder ingestion, reporting each file to progress.
type IngestFunc func(ctx context.Context, progress driving.ProgressFunc) domain.FolderOutcome

// RunFolderIngest runs ingest while showing the progress view on out.
// Quitting the view cancels the ingestion and returns ErrInterrupted along
// with the partial outcome.
func RunFolderIngest(
	ctx context.Context,
	path string,
	ingest IngestFunc,
	out io.Writer,
	opts ...tea.ProgramOption,
) (domain.FolderOutcome, error) {
	if ingest == nil {
		return domain.FolderOutcome{}, ErrNoIngestFunc
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(out)}, opts...)
	p := tea.NewProgram(NewIngestModel(path), opts...)

	result := make(chan domain.FolderOutcome, 1)
	go func() {
		outcome := ingest(ctx, func(done, total int, o domain.IngestOutcome) {
			p.Send(FileDoneMsg{Done: done, Total: total, Outcome: o})
		})
		result <- outcome
		p.Send(FolderDoneMsg{Outcome: outcome})
	}()

	final, err := p.Run()
	cancel()
	outcome := <-result

	if m, ok := final.(IngestModel); ok && m.Interrupted() {
		return outcome, ErrInterrupted
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return outcome, fmt.Errorf("progress view: %w", err)
	}
	return outcome, nil
}
