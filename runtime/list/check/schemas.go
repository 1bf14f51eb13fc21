package check

import "github.com/imaging-api/containerlists/runtime/list"

type builtinSchema struct {
	list    string
	actions []list.Action
	schema  string
}

var builtin = []builtinSchema{
	{
		list:    "permissions",
		actions: []list.Action{list.ActionCreate},
		schema: `{
			"type": "object",
			"properties": {
				"_id": {"type": "string", "minLength": 1},
				"access": {"enum": ["ro", "rw", "admin"]}
			},
			"required": ["_id", "access"],
			"additionalProperties": false
		}`,
	},
	{
		list:    "permissions",
		actions: []list.Action{list.ActionUpdate},
		schema: `{
			"type": "object",
			"properties": {
				"_id": {"type": "string", "minLength": 1},
				"access": {"enum": ["ro", "rw", "admin"]}
			},
			"minProperties": 1,
			"additionalProperties": false
		}`,
	},
	{
		list:    "notes",
		actions: []list.Action{list.ActionCreate},
		schema: `{
			"type": "object",
			"properties": {
				"text": {"type": "string", "minLength": 1}
			},
			"required": ["text"]
		}`,
	},
	{
		list:    "notes",
		actions: []list.Action{list.ActionUpdate},
		schema: `{
			"type": "object",
			"properties": {
				"text": {"type": "string", "minLength": 1}
			},
			"minProperties": 1
		}`,
	},
	{
		list:    "tags",
		actions: []list.Action{list.ActionCreate, list.ActionUpdate},
		schema:  `{"type": "string", "minLength": 1}`,
	},
}
