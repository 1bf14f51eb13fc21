// Package check implements the consistency checks run on list payloads before
// any document is touched. Checks are JSON schemas keyed by action and list
// name; pairs without a schema accept every payload.
package check

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/imaging-api/containerlists/runtime/list"
)

type (
	// Checker holds compiled payload schemas. It implements list.Consistency
	// and is safe for concurrent use.
	Checker struct {
		mu      sync.RWMutex
		schemas map[key]*jsonschema.Schema
	}

	key struct {
		action list.Action
		list   string
	}
)

// Compile-time check that Checker implements list.Consistency.
var _ list.Consistency = (*Checker)(nil)

// New returns a Checker loaded with the built-in schemas for permissions,
// notes and tags.
func New() (*Checker, error) {
	c := &Checker{schemas: make(map[key]*jsonschema.Schema)}
	for _, b := range builtin {
		for _, action := range b.actions {
			if err := c.Register(action, b.list, b.schema); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Register compiles schema and uses it for payloads of action on listName,
// replacing any previous schema for the pair.
func (c *Checker) Register(action list.Action, listName, schema string) error {
	if !action.Valid() {
		return fmt.Errorf("%w: unknown action %q", list.ErrInvalidArgument, action)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(schema)))
	if err != nil {
		return fmt.Errorf("unmarshal schema for %s %s: %w", action, listName, err)
	}
	url := fmt.Sprintf("%s-%s.json", listName, action)
	comp := jsonschema.NewCompiler()
	if err := comp.AddResource(url, doc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := comp.Compile(url)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schemas[key{action: action, list: listName}] = compiled
	return nil
}

// For returns the check for payloads of action on listName.
func (c *Checker) For(action list.Action, listName string) list.CheckFunc {
	c.mu.RLock()
	schema, ok := c.schemas[key{action: action, list: listName}]
	c.mu.RUnlock()
	if !ok {
		return list.NoCheck
	}
	return func(payload any) error {
		if payload == nil {
			return nil
		}
		doc, err := normalize(payload)
		if err != nil {
			return fmt.Errorf("%w: %v", list.ErrInvalidPayload, err)
		}
		if err := schema.Validate(doc); err != nil {
			return fmt.Errorf("%w: %s %s: %v", list.ErrInvalidPayload, action, listName, err)
		}
		return nil
	}
}

// normalize converts payload into the generic JSON shape the validator
// expects.
func normalize(payload any) (any, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}
