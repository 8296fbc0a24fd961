package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"modelhub-sdk/cmd/modelhub/internal/config"
	"modelhub-sdk/cmd/modelhub/internal/ui/components"
	"modelhub-sdk/cmd/modelhub/internal/utils"
	"modelhub-sdk/models"

	tea "github.com/charmbracelet/bubbletea"
)

type ViewState int

type NavigateMsg struct {
	view ViewState
}

type navigateToSandboxMsg struct {
	model *models.Model
}

const (
	ViewMainMenu ViewState = iota
	ViewModelSelector
	ViewSandbox
	ViewSettings
)

type Model struct {
	app           *app
	currentView   ViewState
	mainMenu      MainMenuModel
	modelSelector ModelSelectorModel
	sandbox       SandboxViewModel
	settings      SettingsModel
	width         int
	quitting      bool
}

func newModel(a *app) Model {
	return Model{
		app:           a,
		currentView:   ViewMainMenu,
		mainMenu:      NewMainMenuModel(a),
		modelSelector: NewModelSelectorModel(a),
		settings:      NewSettingsModel(a),
	}
}

func (m Model) Init() tea.Cmd {
	return m.mainMenu.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle navigation to the sandbox with the loaded model
	if navMsg, ok := msg.(navigateToSandboxMsg); ok {
		m.sandbox = NewSandboxViewModel(m.app, navMsg.model, m.width)
		m.currentView = ViewSandbox
		return m, m.sandbox.Init()
	}

	// Handle navigation messages
	if navMsg, ok := msg.(NavigateMsg); ok {
		m.currentView = navMsg.view
		switch navMsg.view {
		case ViewModelSelector:
			m.modelSelector = NewModelSelectorModel(m.app)
			return m, m.modelSelector.Init()
		case ViewSettings:
			m.settings = NewSettingsModel(m.app)
			return m, m.settings.Init()
		}
		return m, nil
	}

	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
	}

	// Handle global key commands
	if msg, ok := msg.(tea.KeyMsg); ok {
		k := msg.String()

		if k == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	}

	// Route updates to current view
	var cmd tea.Cmd
	switch m.currentView {
	case ViewMainMenu:
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case ViewModelSelector:
		m.modelSelector, cmd = m.modelSelector.Update(msg)
	case ViewSandbox:
		m.sandbox, cmd = m.sandbox.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	}

	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return "bye!\n"
	}

	// Route view to current view
	switch m.currentView {
	case ViewMainMenu:
		return m.mainMenu.View()
	case ViewModelSelector:
		return m.modelSelector.View()
	case ViewSandbox:
		return m.sandbox.View()
	case ViewSettings:
		return m.settings.View()
	default:
		return "Unknown view\n"
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := utils.InitLogger(); err != nil {
		fmt.Fprintln(stderr, "warning: debug log disabled:", err)
	}

	command := "tui"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	switch command {
	case "tui":
		return runTUI(args, stderr)
	case "invoke":
		return runInvoke(args, stdin, stdout, stderr)
	case "mock":
		return runMock(args, stderr)
	case "version":
		fmt.Fprintf(stdout, "modelhub %s, built %s\n", components.VersionString(), components.BuildTime)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\nusage: modelhub [tui|invoke|mock|version] [flags]\n", command)
		return 1
	}
}

func runTUI(args []string, stderr io.Writer) int {
	cfg, err := config.ParseTUIFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer a.Close()

	p := tea.NewProgram(newModel(a))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(stderr, "could not run program:", err)
		return 1
	}
	return 0
}
