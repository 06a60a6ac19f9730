package googlefit

import (
	"sort"
	"strings"

	"google.golang.org/api/fitness/v1"
)

// Access levels a data type can be requested with
const (
	AccessRead  = 0
	AccessWrite = 1
)

// Scopes requested by the plain sign-in flow
var SignInScopes = []string{"openid", "email"}

// FitnessOptions declares which data types and access levels the app needs
type FitnessOptions struct {
	entries []fitnessOption
}

type fitnessOption struct {
	dataType DataType
	access   int
}

// FitnessOptionsBuilder assembles FitnessOptions
type FitnessOptionsBuilder struct {
	opts FitnessOptions
}

// NewFitnessOptions starts a new options builder
func NewFitnessOptions() *FitnessOptionsBuilder {
	return &FitnessOptionsBuilder{}
}

// AddDataType adds a data type at the given access level
func (b *FitnessOptionsBuilder) AddDataType(dt DataType, access int) *FitnessOptionsBuilder {
	b.opts.entries = append(b.opts.entries, fitnessOption{dataType: dt, access: access})
	return b
}

// Build returns the options
func (b *FitnessOptionsBuilder) Build() FitnessOptions {
	return b.opts
}

// Scopes returns the sorted, deduplicated OAuth scopes these options require
func (o FitnessOptions) Scopes() []string {
	seen := make(map[string]struct{})
	for _, e := range o.entries {
		seen[scopeFor(e.dataType, e.access)] = struct{}{}
	}
	scopes := make([]string, 0, len(seen))
	for s := range seen {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return scopes
}

// scopeFor maps a data type to the Fit scope family that gates it
func scopeFor(dt DataType, access int) string {
	body := strings.HasPrefix(dt.Name, "com.google.weight") ||
		strings.HasPrefix(dt.Name, "com.google.height") ||
		strings.HasPrefix(dt.Name, "com.google.body")

	switch {
	case body && access == AccessWrite:
		return fitness.FitnessBodyWriteScope
	case body:
		return fitness.FitnessBodyReadScope
	case access == AccessWrite:
		return fitness.FitnessActivityWriteScope
	default:
		return fitness.FitnessActivityReadScope
	}
}
