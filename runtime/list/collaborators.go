package list

import "context"

type (
	// CheckFunc validates a payload before it reaches the document store.
	CheckFunc func(payload any) error

	// Consistency selects the payload check for an action on a named list.
	Consistency interface {
		For(action Action, listName string) CheckFunc
	}

	// ConsistencyFunc adapts a function to Consistency.
	ConsistencyFunc func(action Action, listName string) CheckFunc

	// Sanitizer rewrites nested keys so they are legal document field names.
	Sanitizer interface {
		SanitizeFields(v any) any
	}

	// SanitizerFunc adapts a function to Sanitizer.
	SanitizerFunc func(v any) any

	// ComplianceRecalculator recomputes whether a session satisfies its
	// project template. Called after files are removed from a session or one
	// of its acquisitions.
	ComplianceRecalculator interface {
		RecalcSessionCompliance(ctx context.Context, sessionID any) error
	}

	// SessionResolver returns the id of the session owning an acquisition.
	SessionResolver interface {
		SessionOf(ctx context.Context, acquisitionID any) (any, error)
	}
)

// For implements Consistency.
func (f ConsistencyFunc) For(action Action, listName string) CheckFunc {
	return f(action, listName)
}

// SanitizeFields implements Sanitizer.
func (f SanitizerFunc) SanitizeFields(v any) any {
	return f(v)
}

// NoCheck accepts every payload.
func NoCheck(any) error { return nil }

// NoConsistency returns NoCheck for every action and list.
var NoConsistency Consistency = ConsistencyFunc(func(Action, string) CheckFunc { return NoCheck })
