// Package tui is the interactive review screen for a bill import: extract, pick, commit.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joseph-ayodele/bills-tracker/internal/entity"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
	"github.com/joseph-ayodele/bills-tracker/internal/reconcile"
)

type phase int

const (
	phaseExtracting phase = iota
	phaseSelecting
	phaseCommitting
	phaseDone
)

type extractedMsg struct {
	bills []llm.ParsedBill
	err   error
}

type committedMsg struct {
	report *entity.ImportReport
	err    error
}

// Model drives one import through the reconciliation session.
type Model struct {
	ctx        context.Context
	text       string
	extractor  llm.BillExtractor
	reconciler *reconcile.Reconciler
	session    *reconcile.Session
	keys       KeyMap
	spinner    spinner.Model

	phase     phase
	cursor    int
	notice    string
	cancelled bool
	err       error
	report    *entity.ImportReport
}

// New returns a model that extracts text on start. ctx must carry the user id used for commit.
func New(ctx context.Context, text string, extractor llm.BillExtractor, reconciler *reconcile.Reconciler, session *reconcile.Session) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primary)
	return Model{
		ctx:        ctx,
		text:       text,
		extractor:  extractor,
		reconciler: reconciler,
		session:    session,
		keys:       DefaultKeyMap(),
		spinner:    s,
	}
}

// Report is the commit outcome, nil if nothing was committed.
func (m Model) Report() *entity.ImportReport { return m.report }

// Err is the extraction failure, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.extract())
}

func (m Model) extract() tea.Cmd {
	return func() tea.Msg {
		bills, err := m.extractor.ExtractBills(m.ctx, m.text)
		return extractedMsg{bills: bills, err: err}
	}
}

func (m Model) commit() tea.Cmd {
	return func() tea.Msg {
		report, err := m.reconciler.Commit(m.ctx, m.session, nil)
		return committedMsg{report: report, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case extractedMsg:
		if m.cancelled {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.phase = phaseDone
			return m, tea.Quit
		}
		found, err := m.session.Present(msg.bills)
		if err != nil || !found {
			m.err = err
			m.phase = phaseDone
			return m, tea.Quit
		}
		m.phase = phaseSelecting
		return m, nil

	case committedMsg:
		if msg.err != nil {
			// Preconditions leave the session selectable.
			m.notice = msg.err.Error()
			m.phase = phaseSelecting
			return m, nil
		}
		m.report = msg.report
		m.phase = phaseDone
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.phase == phaseCommitting {
		return m, nil
	}
	if key.Matches(msg, m.keys.Quit) {
		switch m.phase {
		case phaseSelecting:
			_ = m.session.Reset()
			m.cancelled = true
		case phaseExtracting:
			m.cancelled = true
		}
		m.phase = phaseDone
		return m, tea.Quit
	}
	if m.phase != phaseSelecting {
		return m, nil
	}

	view := m.session.View()
	m.notice = ""
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(view.Candidates)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if _, err := m.session.Toggle(m.cursor); err != nil {
			m.notice = err.Error()
		}
	case key.Matches(msg, m.keys.SelectAll):
		_ = m.session.SetAll(true)
	case key.Matches(msg, m.keys.DeselectAll):
		_ = m.session.SetAll(false)
	case key.Matches(msg, m.keys.Commit):
		if view.SelectedCount == 0 {
			m.notice = "Please select at least one bill to import"
			return m, nil
		}
		m.phase = phaseCommitting
		return m, tea.Batch(m.spinner.Tick, m.commit())
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Import bills"))
	b.WriteString("\n")

	switch m.phase {
	case phaseExtracting:
		fmt.Fprintf(&b, "%s Reading your bills...\n", m.spinner.View())
	case phaseCommitting:
		fmt.Fprintf(&b, "%s Importing %d bills...\n", m.spinner.View(), m.session.View().SelectedCount)
	case phaseSelecting:
		b.WriteString(m.renderCandidates())
	case phaseDone:
		b.WriteString(m.renderResult())
	}
	return b.String()
}

func (m Model) renderCandidates() string {
	view := m.session.View()
	var rows []string
	for i, c := range view.Candidates {
		pointer := "  "
		if i == m.cursor {
			pointer = cursorStyle.Render("> ")
		}
		box := mutedStyle.Render("[ ]")
		if c.Selected {
			box = checkedStyle.Render("[x]")
		}
		rows = append(rows, fmt.Sprintf("%s%s %-28s %10.2f  %s  %s  %s",
			pointer, box, truncate(c.Name, 28), c.Amount, c.DueDate,
			categoryStyle.Render(c.Category), mutedStyle.Render(c.Frequency)))
	}

	var b strings.Builder
	b.WriteString(boxStyle.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d of %d selected\n", view.SelectedCount, len(view.Candidates))
	if m.notice != "" {
		b.WriteString(errorStyle.Render(m.notice))
		b.WriteString("\n")
	}
	help := []string{}
	for _, k := range []key.Binding{m.keys.Up, m.keys.Down, m.keys.Toggle, m.keys.SelectAll, m.keys.DeselectAll, m.keys.Commit, m.keys.Quit} {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(mutedStyle.Render(strings.Join(help, " • ")))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderResult() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("Failed to parse bills: "+m.err.Error()) + "\n"
	case m.cancelled:
		return mutedStyle.Render("Import cancelled.") + "\n"
	case m.report == nil:
		return mutedStyle.Render("No bills found.") + "\n"
	case m.report.ErrorCount == 0:
		return successStyle.Render(fmt.Sprintf("Successfully imported %d bills", m.report.SuccessCount)) + "\n"
	default:
		return errorStyle.Render(fmt.Sprintf("Imported %d bills, %d failed", m.report.SuccessCount, m.report.ErrorCount)) + "\n"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
