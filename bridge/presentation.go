package bridge

import (
	"fmt"

	"github.com/roessland/fitbridge/pkg/output"
	"github.com/roessland/fitbridge/plugin"
)

// PresentationService renders call outcomes for the command line
type PresentationService struct {
	ol *output.OutputLogger
}

// NewPresentationService creates a new presentation service
func NewPresentationService(ol *output.OutputLogger) *PresentationService {
	return &PresentationService{ol: ol}
}

// ShowProgress displays a progress message
func (ps *PresentationService) ShowProgress(msg string, args ...any) {
	ps.ol.Progress(msg, args...)
}

// ShowStatus displays a status message
func (ps *PresentationService) ShowStatus(msg string, args ...any) {
	ps.ol.Status(msg, args...)
}

// ShowError logs and displays an error
func (ps *PresentationService) ShowError(err error, msg string, args ...any) {
	ps.ol.LogAndShowError(err, msg, args...)
}

// ShowOutcome displays how a call was settled. Rejections are returned as
// errors so the command exits non-zero.
func (ps *PresentationService) ShowOutcome(call *PluginCall, outcome Outcome) error {
	if ps.ol.JSONMode() {
		env := Envelope{CallbackID: call.ID(), Success: !outcome.Rejected, Data: outcome.Data}
		if outcome.Rejected {
			env.Error = &CallError{Message: outcome.Message}
		}
		if err := ps.ol.JSON(env); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		if outcome.Rejected {
			return fmt.Errorf("%s rejected: %s", call.Method(), outcome.Message)
		}
		return nil
	}

	if outcome.Rejected {
		err := fmt.Errorf("%s rejected: %s", call.Method(), outcome.Message)
		ps.ShowError(err, "%s", outcome.Message)
		return err
	}
	return ps.showData(call.Method(), outcome.Data)
}

func (ps *PresentationService) showData(method string, data plugin.JSObject) error {
	switch method {
	case "connectToGoogleFit":
		ps.ol.Result("Connected to Google Fit")
	case "isAllowed":
		if allowed, _ := data["allowed"].(bool); allowed {
			ps.ol.Result("All Google Fit permissions granted")
		} else {
			ps.ol.Result("Google Fit permissions missing, run 'fitbridge connect'")
		}
	case "getSteps":
		return ps.showEntries(data, "steps", "Steps")
	case "getWeight":
		return ps.showEntries(data, "weights", "Weight (kg)")
	case "getActivities":
		return ps.showActivities(data)
	default:
		ps.ol.Result("%s completed", method)
	}
	return nil
}

func (ps *PresentationService) showEntries(data plugin.JSObject, key, valueColumn string) error {
	entries, _ := data[key].([]plugin.JSObject)
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			fmt.Sprint(e["startTime"]),
			fmt.Sprint(e["endTime"]),
			formatValue(e["value"]),
		})
	}
	if err := ps.ol.Table([]string{"Start", "End", valueColumn}, rows); err != nil {
		return fmt.Errorf("failed to render %s: %w", key, err)
	}
	ps.ol.Result("%d %s entries", len(entries), key)
	return nil
}

func (ps *PresentationService) showActivities(data plugin.JSObject) error {
	entries, _ := data["activities"].([]plugin.JSObject)
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		calories := "-"
		if v, ok := e["calories"]; ok {
			calories = formatValue(v)
		}
		rows = append(rows, []string{
			fmt.Sprint(e["startTime"]),
			fmt.Sprint(e["endTime"]),
			fmt.Sprint(e["name"]),
			calories,
		})
	}
	if err := ps.ol.Table([]string{"Start", "End", "Activity", "Calories"}, rows); err != nil {
		return fmt.Errorf("failed to render activities: %w", err)
	}
	ps.ol.Result("%d activities", len(entries))
	return nil
}

func formatValue(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1f", f)
	}
	return fmt.Sprint(v)
}
