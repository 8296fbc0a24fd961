package main

import (
	"modelhub-sdk/cmd/modelhub/internal/ui/components"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type MainMenuModel struct {
	app     *app
	choices list.Model
}

type menuItem struct {
	title       string
	description string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.description }
func (i menuItem) FilterValue() string { return i.title }

func NewMainMenuModel(a *app) MainMenuModel {
	items := []list.Item{
		menuItem{title: "Browse Models", description: "Pick a published model and try it in the sandbox"},
		menuItem{title: "Settings", description: "Quota storage and endpoint origin"},
		menuItem{title: "Quit", description: "Exit the CLI"},
	}

	l := list.New(items, list.NewDefaultDelegate(), 80, 15)
	l.Title = "Main Menu"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return MainMenuModel{
		app:     a,
		choices: l,
	}
}

func (m MainMenuModel) Init() tea.Cmd {
	return nil
}

func (m MainMenuModel) Update(msg tea.Msg) (MainMenuModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h := 15 // Fixed reasonable height for menu items
		m.choices.SetSize(msg.Width, h)
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			selectedItem := m.choices.SelectedItem()
			if selectedItem != nil {
				item := selectedItem.(menuItem)
				switch item.title {
				case "Browse Models":
					return m, func() tea.Msg {
						return NavigateMsg{view: ViewModelSelector}
					}
				case "Settings":
					return m, func() tea.Msg {
						return NavigateMsg{view: ViewSettings}
					}
				case "Quit":
					return m, tea.Quit
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.choices, cmd = m.choices.Update(msg)
	return m, cmd
}

func (m MainMenuModel) View() string {
	return components.RenderHeader(m.app.session()) + "\n" + m.choices.View()
}
