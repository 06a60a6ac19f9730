package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/roessland/fitbridge/bridge"
	"github.com/roessland/fitbridge/googlefit"
	"github.com/roessland/fitbridge/pkg/output"
	"github.com/roessland/fitbridge/plugin"
)

// AppConfig holds all configuration needed to talk to Google Fit
type AppConfig struct {
	ClientID     string
	ClientSecret string
	AccountPath  string
	Timezone     string
	JSONMode     bool
}

// app is the wired plugin together with its output
type app struct {
	ol           *output.OutputLogger
	logger       output.Logger
	presentation *bridge.PresentationService
	plugin       *plugin.GoogleFitPlugin
	loc          *time.Location
}

// setupApp creates the output logger, the Google Fit client and the plugin,
// and routes flow results from the client back into the plugin
func setupApp(ctx context.Context, config AppConfig) (*app, error) {
	ol, err := output.New(config.JSONMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create output system: %w", err)
	}
	presentation := bridge.NewPresentationService(ol)

	loc, err := loadLocation(config.Timezone)
	if err != nil {
		presentation.ShowError(err, "Invalid time zone %q", config.Timezone)
		return nil, err
	}

	accountPath, err := homedir.Expand(config.AccountPath)
	if err != nil {
		presentation.ShowError(err, "Failed to expand account path")
		return nil, err
	}

	store, err := googlefit.NewAccountStore(googlefit.NewOSFileSystem(), accountPath)
	if err != nil {
		presentation.ShowError(err, "Failed to load signed-in account from %s", accountPath)
		return nil, err
	}

	client, err := googlefit.New(ctx, googlefit.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
	}, store, ol, ol.Component("googlefit"))
	if err != nil {
		presentation.ShowError(err, "Failed to create Google Fit client")
		return nil, err
	}

	history := googlefit.NewHistory(client, ol.Component("history"))
	p := plugin.NewGoogleFitPlugin(client, history, ol.Component("plugin"))
	p.SetLocation(loc)
	client.OnActivityResult(p.HandleActivityResult)

	return &app{
		ol:           ol,
		logger:       ol.Component("cli"),
		presentation: presentation,
		plugin:       p,
		loc:          loc,
	}, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// invoke runs a plugin method the way the bridge would and shows the outcome
func (a *app) invoke(ctx context.Context, method string, options map[string]any) error {
	fn, ok := a.plugin.Method(method)
	if !ok {
		return fmt.Errorf("unknown plugin method %q", method)
	}

	call := bridge.NewPluginCall(ctx, method, options)
	logger := a.logger.With("method", method, "callback_id", call.ID())
	logger.Info("invoking plugin method")

	fn(call)
	a.presentation.ShowProgress("Waiting for %s to complete", method)
	outcome, err := call.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			a.presentation.ShowStatus("Interrupted before %s finished", method)
		}
		return fmt.Errorf("%s did not complete: %w", method, err)
	}

	logger.Info("plugin method settled", "rejected", outcome.Rejected)
	return a.presentation.ShowOutcome(call, outcome)
}
