package plugin

import (
	"time"

	"github.com/roessland/fitbridge/googlefit"
)

// Name is the name the plugin is registered under on the bridge
const Name = "GoogleFit"

// Rejection messages returned across the bridge
const (
	MsgNoAccess            = "No access"
	MsgInvalidRange        = "Must provide a start time and end time"
	MsgSignInCanceled      = "Sign-in was cancelled"
	MsgPermissionsCanceled = "Permission request was cancelled"
	MsgSuperseded          = "Superseded by a newer connect request"
)

// FitnessSignInOptions declares the data types and access the plugin needs
func FitnessSignInOptions() googlefit.FitnessOptions {
	return googlefit.NewFitnessOptions().
		AddDataType(googlefit.TypeStepCountDelta, googlefit.AccessRead).
		AddDataType(googlefit.AggregateStepCountDelta, googlefit.AccessRead).
		AddDataType(googlefit.TypeCaloriesExpended, googlefit.AccessRead).
		AddDataType(googlefit.AggregateCaloriesExpended, googlefit.AccessRead).
		AddDataType(googlefit.TypeActivitySegment, googlefit.AccessRead).
		AddDataType(googlefit.TypeHeight, googlefit.AccessRead).
		AddDataType(googlefit.TypeWeight, googlefit.AccessRead).
		Build()
}

// GoogleFitPlugin exposes Google Fit history reads and account connection
// to a bridge host
type GoogleFitPlugin struct {
	accounts    AccountService
	history     HistoryService
	logger      Logger
	loc         *time.Location
	options     googlefit.FitnessOptions
	completions completionTable
}

// NewGoogleFitPlugin creates a plugin. Timestamps are rendered in local time
// unless SetLocation is called.
func NewGoogleFitPlugin(accounts AccountService, history HistoryService, logger Logger) *GoogleFitPlugin {
	return &GoogleFitPlugin{
		accounts: accounts,
		history:  history,
		logger:   logger,
		loc:      time.Local,
		options:  FitnessSignInOptions(),
	}
}

// SetLocation sets the time zone returned timestamps are rendered in
func (p *GoogleFitPlugin) SetLocation(loc *time.Location) {
	p.loc = loc
}

// Method looks up a bridge method by name
func (p *GoogleFitPlugin) Method(name string) (func(Call), bool) {
	switch name {
	case "connectToGoogleFit":
		return p.ConnectToGoogleFit, true
	case "isAllowed":
		return p.IsAllowed, true
	case "getSteps":
		return p.GetSteps, true
	case "getWeight":
		return p.GetWeight, true
	case "getActivities":
		return p.GetActivities, true
	default:
		return nil, false
	}
}

// ConnectToGoogleFit signs the user in and requests read permissions. The call
// stays pending until the external flows complete.
func (p *GoogleFitPlugin) ConnectToGoogleFit(call Call) {
	account := p.accounts.LastSignedInAccount()
	if account == nil {
		p.logger.Info("no signed-in account, starting sign-in")
		p.suspend(SignInRequestCode, call)
		p.accounts.StartSignIn(SignInRequestCode)
		return
	}

	if p.accounts.HasPermissions(account, p.options) {
		p.logger.Debug("account already holds all scopes", "email", account.Email)
		call.Resolve(nil)
		return
	}

	p.logger.Info("requesting fitness permissions", "email", account.Email)
	p.suspend(PermissionsRequestCode, call)
	p.accounts.RequestPermissions(PermissionsRequestCode, account, p.options)
}

// IsAllowed reports whether a signed-in account holds every required scope
func (p *GoogleFitPlugin) IsAllowed(call Call) {
	account := p.accounts.LastSignedInAccount()
	allowed := account != nil && p.accounts.HasPermissions(account, p.options)

	result := JSObject{}
	if err := result.Put("allowed", allowed); err != nil {
		call.Reject(err.Error())
		return
	}
	call.Resolve(result)
}

// HandleActivityResult resumes the call suspended under requestCode once the
// matching external flow has finished
func (p *GoogleFitPlugin) HandleActivityResult(requestCode, resultCode int) {
	switch requestCode {
	case PermissionsRequestCode:
		call := p.completions.take(requestCode)
		if call == nil {
			p.logger.Warn("permission result without pending call")
			return
		}
		if resultCode != googlefit.ResultOK {
			call.Reject(MsgPermissionsCanceled)
			return
		}
		call.Resolve(nil)

	case SignInRequestCode:
		call := p.completions.take(requestCode)
		if call == nil {
			p.logger.Warn("sign-in result without pending call")
			return
		}
		if resultCode != googlefit.ResultOK {
			call.Reject(MsgSignInCanceled)
			return
		}

		account := p.accounts.LastSignedInAccount()
		if account == nil {
			call.Reject(MsgNoAccess)
			return
		}
		if !p.accounts.HasPermissions(account, p.options) {
			p.suspend(PermissionsRequestCode, call)
			p.accounts.RequestPermissions(PermissionsRequestCode, account, p.options)
			return
		}
		call.Resolve(nil)

	default:
		p.logger.Debug("ignoring unknown activity result", "request_code", requestCode)
	}
}

func (p *GoogleFitPlugin) suspend(requestCode int, call Call) {
	displaced, _ := p.completions.save(requestCode, call)
	if displaced != nil {
		displaced.Reject(MsgSuperseded)
	}
}
