// Package list defines the contract for reading and mutating lists embedded in
// container documents (projects, sessions, acquisitions, ...).
//
// A container holds an ordered list under a named field. Elements are either
// structured documents (permissions, notes, files) or bare scalar values
// (tags). Store implementations translate a Request into a single atomic
// filter-and-update against the container document; they never lock, retry or
// coordinate across documents.
package list

import (
	"context"
	"fmt"
	"strings"
)

type (
	// Action identifies the list operation carried by a Request.
	Action string

	// IDKind describes how container identifiers are stored.
	IDKind string

	// Params carries caller supplied filter or payload shapes. For structured
	// lists the keys are element field names; for scalar lists the value is
	// wrapped under the "value" key.
	Params map[string]any

	// Request describes one list operation against a single container.
	Request struct {
		// Action selects the operation. Use ParseAction to build it from a
		// method name.
		Action Action
		// ID is the container identifier as received from the caller.
		ID string
		// Query selects the element(s) to read, update or delete.
		Query Params
		// Payload is the element (POST) or the fields to merge (PUT).
		Payload Params
		// Exclude is the duplicate guard: the operation only applies when no
		// element of the list matches it.
		Exclude Params
	}

	// Result is the outcome of a Request. Reads populate Element, mutations
	// populate Update.
	Result struct {
		// Element is the matched element for GET requests, nil when nothing
		// matched.
		Element any
		// Update reports matched and modified counts for mutations.
		Update UpdateResult
	}

	// UpdateResult reports the counts returned by the document store for a
	// single update.
	UpdateResult struct {
		MatchedCount  int64
		ModifiedCount int64
	}

	// Store executes list operations for one (collection, list) pair.
	Store interface {
		// Container loads the container document. When query is set the
		// document only carries the first matching element along with the
		// permissions and public fields. Returns nil when nothing matched.
		Container(ctx context.Context, id string, query Params) (map[string]any, error)
		// Exec runs the request. Not found is not an error: GET returns a nil
		// element and mutations report zero matched documents.
		Exec(ctx context.Context, req Request) (Result, error)
		// ModifyInfo patches the info map of the element matching query.
		ModifyInfo(ctx context.Context, id string, query Params, patch InfoPatch) (UpdateResult, error)
	}
)

const (
	// ActionGet reads one element.
	ActionGet Action = "GET"
	// ActionCreate appends one element.
	ActionCreate Action = "POST"
	// ActionUpdate merges fields into the matched element.
	ActionUpdate Action = "PUT"
	// ActionDelete removes every matching element.
	ActionDelete Action = "DELETE"

	// IDObjectID identifies containers keyed by BSON ObjectIDs.
	IDObjectID IDKind = "objectid"
	// IDString identifies containers keyed by plain strings.
	IDString IDKind = "string"
)

// ParseAction maps an HTTP style method name to an Action. Unknown names are
// rejected here so that dispatch never sees them.
func ParseAction(method string) (Action, error) {
	switch a := Action(strings.ToUpper(strings.TrimSpace(method))); a {
	case ActionGet, ActionCreate, ActionUpdate, ActionDelete:
		return a, nil
	default:
		return "", fmt.Errorf("%w: action should be one of GET, POST, PUT, DELETE, got %q", ErrInvalidArgument, method)
	}
}

// Valid reports whether a is one of the four list actions.
func (a Action) Valid() bool {
	switch a {
	case ActionGet, ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Mutates reports whether a changes the container.
func (a Action) Mutates() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// ParseIDKind parses the textual id kind used in configuration. The empty
// string defaults to IDObjectID.
func ParseIDKind(s string) (IDKind, error) {
	switch k := IDKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return IDObjectID, nil
	case IDObjectID, IDString:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown id kind %q", ErrInvalidArgument, s)
	}
}

// Found reports whether the update matched a container.
func (r UpdateResult) Found() bool {
	return r.MatchedCount > 0
}
