// Package main provides the model selector view for the modelhub CLI.
//
// This file implements the ModelSelectorModel which displays a searchable list
// of published models. Selecting one fetches its full description (endpoints
// and examples) and opens it in the sandbox.
package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"modelhub-sdk/cmd/modelhub/internal/ui/components"
	"modelhub-sdk/cmd/modelhub/internal/utils"
	"modelhub-sdk/models"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type ModelSelectorModel struct {
	app     *app
	list    list.Model
	loading bool
	opening string
	err     error
}

type modelItem struct {
	model *models.ModelListItem
}

func (i modelItem) FilterValue() string { return i.model.Name }
func (i modelItem) Title() string       { return i.model.Name }
func (i modelItem) Description() string {
	if i.model.Description != nil {
		return *i.model.Description
	}
	return fmt.Sprintf("%s • %d endpoints", i.model.ID, i.model.Endpoints)
}

type modelsLoadedMsg struct {
	models []*models.ModelListItem
	err    error
}

type modelLoadedMsg struct {
	model *models.Model
	err   error
}

func loadModels(a *app) tea.Cmd {
	return func() tea.Msg {
		items, err := a.source.List(context.Background())
		return modelsLoadedMsg{models: items, err: err}
	}
}

func loadModel(a *app, modelID string) tea.Cmd {
	return func() tea.Msg {
		m, err := a.source.Get(context.Background(), modelID)
		return modelLoadedMsg{model: m, err: err}
	}
}

type modelItemDelegate struct{}

func (d modelItemDelegate) Height() int                             { return 2 }
func (d modelItemDelegate) Spacing() int                            { return 1 }
func (d modelItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d modelItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(modelItem)
	if !ok {
		return
	}

	var (
		titleStyle    = lipgloss.NewStyle().PaddingLeft(4)
		selectedStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("#7D56F4"))
		descStyle     = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("#666666"))
	)

	title := i.Title()
	desc := i.Description()

	if index == m.Index() {
		title = selectedStyle.Render("> " + title)
		desc = selectedStyle.Render("  " + desc)
	} else {
		title = titleStyle.Render(title)
		desc = descStyle.Render(desc)
	}

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

func NewModelSelectorModel(a *app) ModelSelectorModel {
	l := list.New([]list.Item{}, modelItemDelegate{}, 80, 20)
	l.Title = "Select Model"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return ModelSelectorModel{
		app:     a,
		list:    l,
		loading: true,
	}
}

func (m ModelSelectorModel) Init() tea.Cmd {
	return loadModels(m.app)
}

func (m ModelSelectorModel) Update(msg tea.Msg) (ModelSelectorModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, 20)
		return m, nil

	case modelsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			utils.LogDebug("listing models failed: %v", msg.err)
			m.err = msg.err
			return m, nil
		}

		items := make([]list.Item, 0, len(msg.models))
		for _, model := range msg.models {
			items = append(items, modelItem{model: model})
		}
		m.list.SetItems(items)
		return m, nil

	case modelLoadedMsg:
		m.opening = ""
		if msg.err != nil {
			utils.LogDebug("loading model failed: %v", msg.err)
			m.err = msg.err
			return m, nil
		}
		model := msg.model
		return m, func() tea.Msg {
			return navigateToSandboxMsg{model: model}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			// Only go back if NOT filtering (so you can type 'q' in filter)
			if m.list.FilterState() != list.Filtering {
				return m, func() tea.Msg {
					return NavigateMsg{view: ViewMainMenu}
				}
			}
		case "enter":
			if !m.loading && m.opening == "" && m.list.FilterState() != list.Filtering {
				selectedItem := m.list.SelectedItem()
				if selectedItem != nil {
					item := selectedItem.(modelItem)
					m.err = nil
					m.opening = item.model.Name
					return m, loadModel(m.app, item.model.ID)
				}
			}
		case "esc":
			// If filtering, clear the filter
			if m.list.FilterState() == list.Filtering || m.list.FilterState() == list.FilterApplied {
				m.list.ResetFilter()
				return m, nil
			}
			return m, func() tea.Msg {
				return NavigateMsg{view: ViewMainMenu}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ModelSelectorModel) View() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666")).
		MarginLeft(2).
		MarginTop(1)

	mutedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginLeft(2)

	var content strings.Builder
	content.WriteString(components.RenderHeader(m.app.session()) + "\n")

	if m.loading {
		content.WriteString(mutedStyle.Render("Loading models..."))
		return content.String()
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			MarginLeft(2)
		content.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error())))
		content.WriteString("\n")
	}

	if m.opening != "" {
		content.WriteString(mutedStyle.Render(fmt.Sprintf("Opening %s...", m.opening)))
		content.WriteString("\n")
	}

	content.WriteString(m.list.View())
	content.WriteString("\n")
	content.WriteString(helpStyle.Render("Enter: Open sandbox • /: Filter • Esc/q: Back"))

	return content.String()
}
