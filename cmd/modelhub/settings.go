// Package main provides the settings view for the modelhub CLI.
//
// This file implements the SettingsModel: it shows the current marketplace
// configuration and lets the user switch the quota store for the session.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"modelhub-sdk/cmd/modelhub/internal/ui/components"
	"modelhub-sdk/cmd/modelhub/internal/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var settingsAccent = lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#7D56F4"}

type SettingsModel struct {
	app     *app
	form    *huh.Form
	applied bool
	err     error
}

type quotaReconfiguredMsg struct {
	err error
}

func reconfigureQuota(a *app, driver, dsn string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return quotaReconfiguredMsg{err: a.reconfigureQuota(ctx, driver, dsn)}
	}
}

func NewSettingsModel(a *app) SettingsModel {
	theme := huh.ThemeCharm()
	theme.Focused.Base = theme.Focused.Base.BorderForeground(settingsAccent)
	theme.Focused.Title = theme.Focused.Title.Foreground(settingsAccent)

	driver := a.cfg.QuotaDriver
	dsn := a.cfg.QuotaDSN

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("driver").
				Title("Quota store").
				Description("Where trial counts are kept").
				Options(huh.NewOptions("file", "memory", "sqlite", "postgres", "mysql", "redis")...).
				Value(&driver),

			huh.NewInput().
				Key("dsn").
				Title("Location").
				Description("File path, database DSN or redis:// URL (empty for the default)").
				Value(&dsn),

			huh.NewConfirm().
				Key("apply").
				Title("Apply").
				Affirmative("Apply").
				Negative("Cancel"),
		),
	).
		WithWidth(60).
		WithShowHelp(true).
		WithShowErrors(true).
		WithTheme(theme)

	return SettingsModel{
		app:  a,
		form: form,
	}
}

func (m SettingsModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m SettingsModel) Update(msg tea.Msg) (SettingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case quotaReconfiguredMsg:
		m.err = msg.err
		if msg.err != nil {
			utils.LogDebug("quota reconfiguration failed: %v", msg.err)
			return m, nil
		}
		utils.LogDebug("quota store switched to %s", m.app.cfg.QuotaDriver)
		return m, func() tea.Msg { return NavigateMsg{view: ViewMainMenu} }

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, func() tea.Msg { return NavigateMsg{view: ViewMainMenu} }
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted && !m.applied {
		m.applied = true
		if !m.form.GetBool("apply") {
			return m, func() tea.Msg { return NavigateMsg{view: ViewMainMenu} }
		}
		return m, reconfigureQuota(m.app, m.form.GetString("driver"), m.form.GetString("dsn"))
	}

	return m, cmd
}

func (m SettingsModel) View() string {
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7D56F4")).
		Bold(true).
		Width(12)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FAFAFA"))

	notSetStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true)

	containerStyle := lipgloss.NewStyle().
		MarginLeft(2)

	row := func(label, value string) string {
		rendered := notSetStyle.Render("Not set")
		if value != "" {
			rendered = valueStyle.Render(value)
		}
		return containerStyle.Render(labelStyle.Render(label)) + " " + rendered + "\n"
	}

	var content strings.Builder
	content.WriteString(components.RenderHeader(m.app.session()))
	content.WriteString("\n")

	apiKey := m.app.cfg.APIKey
	if apiKey != "" {
		apiKey = maskKey(apiKey)
	}
	content.WriteString(row("API Key:", apiKey))
	content.WriteString(row("Base URL:", m.app.cfg.BaseURL))
	content.WriteString(row("Origin:", m.app.origin()))
	content.WriteString(row("Catalog:", m.app.cfg.CatalogDir))
	content.WriteString("\n")

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			MarginLeft(2)
		content.WriteString(errorStyle.Render(fmt.Sprintf("Error: %s", m.err.Error())))
		content.WriteString("\n")
	}

	content.WriteString(containerStyle.Render(m.form.View()))
	return content.String()
}

// maskKey keeps the last four characters of a secret
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
