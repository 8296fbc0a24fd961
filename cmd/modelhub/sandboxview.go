// Package main provides the sandbox view for the modelhub CLI.
//
// This file implements the SandboxViewModel: an input area seeded from the
// selected endpoint or example, pickers for endpoints and examples, the
// remaining trial count, and the result of the last attempt.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modelhub-sdk/cmd/modelhub/internal/ui/components"
	"modelhub-sdk/cmd/modelhub/internal/utils"
	"modelhub-sdk/models"
	"modelhub-sdk/sandbox"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pickerKind int

const (
	pickNone pickerKind = iota
	pickerEndpoint
	pickExample
)

type pickerItem struct {
	title       string
	description string
	index       int
}

func (i pickerItem) Title() string       { return i.title }
func (i pickerItem) Description() string { return i.description }
func (i pickerItem) FilterValue() string { return i.title }

type submitDoneMsg struct {
	outcome sandbox.Outcome
	started bool
}

type SandboxViewModel struct {
	app     *app
	sb      *sandbox.Sandbox
	input   textarea.Model
	spinner spinner.Model
	elapsed stopwatch.Model
	picker  list.Model
	picking pickerKind
	waiting bool
	width   int
	err     error
}

func NewSandboxViewModel(a *app, model *models.Model, width int) SandboxViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if width <= 0 {
		width = 80
	}

	ta := textarea.New()
	ta.Placeholder = "Type text or a JSON body"
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(8)
	ta.Focus()

	m := SandboxViewModel{
		app:     a,
		input:   ta,
		spinner: s,
		elapsed: stopwatch.NewWithInterval(100 * time.Millisecond),
		width:   width,
	}

	sb, err := sandbox.New(model, a.newController(), a.store)
	if err != nil {
		utils.LogDebug("cannot open sandbox: %v", err)
		m.err = err
		return m
	}
	m.sb = sb
	m.input.SetValue(sb.State().Input)

	return m
}

func (m SandboxViewModel) Init() tea.Cmd {
	return textarea.Blink
}

func submit(sb *sandbox.Sandbox) tea.Cmd {
	return func() tea.Msg {
		outcome, started := sb.Submit(context.Background())
		return submitDoneMsg{outcome: outcome, started: started}
	}
}

// syncInput records free edits without dropping an untouched example selection
func (m *SandboxViewModel) syncInput() {
	if value := m.input.Value(); value != m.sb.State().Input {
		m.sb.UpdateInput(value)
	}
}

func (m SandboxViewModel) openPicker(kind pickerKind) SandboxViewModel {
	model := m.sb.Model()
	var items []list.Item
	title := "Select Endpoint"

	switch kind {
	case pickerEndpoint:
		for i, ep := range model.Endpoints {
			items = append(items, pickerItem{title: ep.Label(), description: ep.Description, index: i})
		}
	case pickExample:
		title = "Select Example"
		for i, ex := range model.Examples {
			desc := ex.Description
			if desc == "" {
				desc = firstLine(ex.Input)
			}
			items = append(items, pickerItem{title: ex.Name, description: desc, index: i})
		}
	}

	if len(items) == 0 {
		return m
	}

	l := list.New(items, list.NewDefaultDelegate(), m.width, 14)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	m.picker = l
	m.picking = kind
	m.input.Blur()
	return m
}

func (m SandboxViewModel) choose() SandboxViewModel {
	selected, ok := m.picker.SelectedItem().(pickerItem)
	kind := m.picking
	m.picking = pickNone
	m.input.Focus()
	if !ok {
		return m
	}

	model := m.sb.Model()
	switch kind {
	case pickerEndpoint:
		m.sb.SelectEndpoint(model.Endpoints[selected.index])
	case pickExample:
		if err := m.sb.SelectExample(model.Examples[selected.index].ID); err != nil {
			utils.LogDebug("select example: %v", err)
		}
	}
	m.input.SetValue(m.sb.State().Input)
	return m
}

func (m SandboxViewModel) Update(msg tea.Msg) (SandboxViewModel, tea.Cmd) {
	if m.err != nil {
		if key, ok := msg.(tea.KeyMsg); ok && (key.String() == "esc" || key.String() == "q") {
			return m, func() tea.Msg { return NavigateMsg{view: ViewModelSelector} }
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(msg.Width - 4)
		if m.picking != pickNone {
			m.picker.SetSize(msg.Width, 14)
		}
		return m, nil

	case submitDoneMsg:
		m.waiting = false
		if msg.started {
			utils.LogDebug("sandbox %s: %s", m.sb.Model().ID, msg.outcome.String())
		}
		return m, m.elapsed.Stop()

	case stopwatch.TickMsg, stopwatch.StartStopMsg, stopwatch.ResetMsg:
		var cmd tea.Cmd
		m.elapsed, cmd = m.elapsed.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.picking != pickNone {
			switch msg.String() {
			case "esc":
				m.picking = pickNone
				m.input.Focus()
				return m, nil
			case "enter":
				return m.choose(), nil
			}
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return NavigateMsg{view: ViewModelSelector} }
		case "ctrl+s":
			if m.waiting {
				return m, nil
			}
			m.syncInput()
			if !m.sb.State().CanSubmit() {
				return m, nil
			}
			m.waiting = true
			return m, tea.Batch(m.spinner.Tick, m.elapsed.Reset(), m.elapsed.Start(), submit(m.sb))
		case "ctrl+e":
			if m.waiting {
				return m, nil
			}
			return m.openPicker(pickerEndpoint), nil
		case "ctrl+x":
			if m.waiting {
				return m, nil
			}
			return m.openPicker(pickExample), nil
		case "ctrl+l":
			m.sb.Clear()
			m.input.Reset()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m SandboxViewModel) View() string {
	var (
		titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true).MarginLeft(2)
		mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginLeft(2)
		errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).MarginLeft(2)
		okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).MarginLeft(2)
		helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).MarginLeft(2).MarginTop(1)
		bannerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#B00020")).
				Padding(0, 1).
				MarginLeft(2)
		boxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#444444")).
				Padding(0, 1).
				MarginLeft(2)
	)

	var content strings.Builder
	content.WriteString(components.RenderHeader(m.app.session()) + "\n")

	if m.err != nil {
		var noEndpoints *sandbox.NoEndpointsError
		if errors.As(m.err, &noEndpoints) {
			content.WriteString(errorStyle.Render("This model has no endpoints to try."))
		} else {
			content.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error())))
		}
		content.WriteString("\n")
		content.WriteString(helpStyle.Render("Esc/q: Back"))
		return content.String()
	}

	if m.picking != pickNone {
		content.WriteString(m.picker.View())
		content.WriteString("\n")
		content.WriteString(helpStyle.Render("Enter: Select • Esc: Cancel"))
		return content.String()
	}

	state := m.sb.State()
	model := m.sb.Model()

	content.WriteString(titleStyle.Render(model.Name))
	content.WriteString("\n")
	if state.SelectedEndpoint != nil {
		content.WriteString(mutedStyle.Render(state.SelectedEndpoint.Label()))
		if state.SelectedEndpoint.Description != "" {
			content.WriteString(mutedStyle.Render("· " + state.SelectedEndpoint.Description))
		}
		content.WriteString("\n")
	}

	trials := fmt.Sprintf("Trials left: %d/%d", state.TrialsLeft(), sandbox.TrialCeiling)
	if state.TrialsLeft() == 0 {
		content.WriteString(errorStyle.Render(trials + " (trial limit reached)"))
	} else {
		content.WriteString(mutedStyle.Render(trials))
	}
	if state.SelectedExample != "" {
		if ex, ok := model.Example(state.SelectedExample); ok {
			content.WriteString(mutedStyle.Render("· example: " + ex.Name))
		}
	}
	content.WriteString("\n\n")

	if state.Banner {
		content.WriteString(bannerStyle.Render("Technical problem: the model service cannot be reached right now. Try again later."))
		content.WriteString("\n\n")
	}

	content.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(m.input.View()))
	content.WriteString("\n")

	if state.InlineError != "" {
		content.WriteString(errorStyle.Render(state.InlineError))
		content.WriteString("\n")
	}

	if m.waiting {
		content.WriteString(mutedStyle.Render(fmt.Sprintf("%s Calling the model... %s", m.spinner.View(), m.elapsed.View())))
		content.WriteString("\n")
	} else if success, ok := state.Outcome.(*sandbox.Success); ok {
		content.WriteString(okStyle.Render(fmt.Sprintf("✓ %d in %d ms", success.Status, success.ElapsedMs)))
		content.WriteString("\n")
		content.WriteString(boxStyle.Render(prettyJSON(success.ResponseBody)))
		content.WriteString("\n")
	} else if state.Outcome != nil && sandbox.Degraded(state.Outcome) {
		content.WriteString(mutedStyle.Render(state.Outcome.String()))
		content.WriteString("\n")
	}

	content.WriteString(helpStyle.Render("Ctrl+S: Send • Ctrl+E: Endpoint • Ctrl+X: Example • Ctrl+L: Clear • Esc: Back"))

	return content.String()
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if len(line) > 60 {
		return line[:57] + "..."
	}
	return line
}
