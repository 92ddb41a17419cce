package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"snowchat/applog"
	"snowchat/config"
)

// Start launches the chat UI with the loaded configuration. A connection
// failure surfaces as a returned error so the process exits non-zero.
func Start(cfg config.Config) error {
	applog.Info("snowchat v%s starting", appVersion)
	defer func() {
		applog.Info("snowchat exiting")
		applog.Close()
	}()

	app := NewApp(cfg)
	p := tea.NewProgram(app, tea.WithAltScreen())

	model, err := p.Run()
	if err != nil {
		return err
	}
	if a, ok := model.(*App); ok && a.fatalErr != nil {
		return a.fatalErr
	}
	return nil
}
