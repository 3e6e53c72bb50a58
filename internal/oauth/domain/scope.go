package domain

import (
	"sort"
	"strings"
	"time"
)

// ScopeDefinition describes a scope clients may request. Scopes marked as
// default are granted when an authorization request omits the scope
// parameter.
type ScopeDefinition struct {
	Name        string
	Description string
	IsDefault   bool
	CreatedAt   time.Time
}

// CreateScopeInput contains the input data for scope registration.
type CreateScopeInput struct {
	Name        string
	Description string
	IsDefault   bool
}

// ParseScope splits a space-delimited scope string into a deduplicated,
// sorted list. An empty string yields nil.
func ParseScope(scope string) []string {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// JoinScope renders a scope list back to the space-delimited wire form.
func JoinScope(scopes []string) string {
	return strings.Join(scopes, " ")
}
