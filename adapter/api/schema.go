package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/quadra/internal/matrix/application/commands"
	"github.com/felixgeelhaar/quadra/internal/matrix/domain/task"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const createTaskSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["title", "is_important"],
  "properties": {
    "title":        {"type": "string"},
    "description":  {"type": ["string", "null"]},
    "is_important": {"type": "boolean"},
    "is_urgent":    {"type": "boolean"},
    "deadline_at":  {"type": ["string", "null"], "format": "date-time"}
  }
}`

const updateTaskSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "title":        {"type": "string"},
    "description":  {"type": ["string", "null"]},
    "is_important": {"type": "boolean"},
    "deadline_at":  {"type": ["string", "null"], "format": "date-time"},
    "completed":    {"type": "boolean"}
  }
}`

// schemas holds the compiled request body schemas.
type schemas struct {
	createTask *jsonschema.Schema
	updateTask *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	create, err := compileSchema("create_task.json", createTaskSchema)
	if err != nil {
		return nil, err
	}
	update, err := compileSchema("update_task.json", updateTaskSchema)
	if err != nil {
		return nil, err
	}
	return &schemas{createTask: create, updateTask: update}, nil
}

func compileSchema(name, source string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// RequestError reports a body that does not have the expected shape.
// It maps to 422 Unprocessable Entity.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// validateBody checks body against schema and returns its top-level fields.
func validateBody(schema *jsonschema.Schema, body []byte) (map[string]json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, &RequestError{Message: "request body is required"}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &RequestError{Message: "request body is not valid JSON"}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &RequestError{Message: "request body is not valid JSON"}
	}

	if err := schema.Validate(doc); err != nil {
		return nil, schemaError(err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &RequestError{Message: "request body must be a JSON object"}
	}
	return fields, nil
}

// schemaError reduces a schema failure to its first leaf cause.
func schemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &RequestError{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &RequestError{
		Field:   strings.TrimPrefix(ve.InstanceLocation, "/"),
		Message: ve.Message,
	}
}

func decodeCreateTask(s *schemas, body []byte) (commands.CreateTaskCommand, error) {
	fields, err := validateBody(s.createTask, body)
	if err != nil {
		return commands.CreateTaskCommand{}, err
	}

	var cmd commands.CreateTaskCommand
	if err := decodeField(fields, "title", &cmd.Title); err != nil {
		return commands.CreateTaskCommand{}, err
	}
	if err := decodeField(fields, "is_important", &cmd.IsImportant); err != nil {
		return commands.CreateTaskCommand{}, err
	}
	if cmd.Description, err = optionalString(fields, "description"); err != nil {
		return commands.CreateTaskCommand{}, err
	}

	if _, ok := fields["is_urgent"]; ok {
		var urgent bool
		if err := decodeField(fields, "is_urgent", &urgent); err != nil {
			return commands.CreateTaskCommand{}, err
		}
		cmd.IsUrgent = &urgent
	}

	deadline, _, err := optionalTime(fields, "deadline_at")
	if err != nil {
		return commands.CreateTaskCommand{}, err
	}
	cmd.DeadlineAt = deadline

	return cmd, nil
}

func decodeTaskPatch(s *schemas, body []byte) (task.Patch, error) {
	fields, err := validateBody(s.updateTask, body)
	if err != nil {
		return task.Patch{}, err
	}

	var patch task.Patch

	if _, ok := fields["title"]; ok {
		var title string
		if err := decodeField(fields, "title", &title); err != nil {
			return task.Patch{}, err
		}
		patch.Title = &title
	}

	if raw, ok := fields["description"]; ok {
		if isNull(raw) {
			patch.ClearDescription = true
		} else if patch.Description, err = optionalString(fields, "description"); err != nil {
			return task.Patch{}, err
		}
	}

	if _, ok := fields["is_important"]; ok {
		var important bool
		if err := decodeField(fields, "is_important", &important); err != nil {
			return task.Patch{}, err
		}
		patch.IsImportant = &important
	}

	deadline, present, err := optionalTime(fields, "deadline_at")
	if err != nil {
		return task.Patch{}, err
	}
	if present && deadline == nil {
		patch.ClearDeadline = true
	}
	patch.DeadlineAt = deadline

	if _, ok := fields["completed"]; ok {
		var completed bool
		if err := decodeField(fields, "completed", &completed); err != nil {
			return task.Patch{}, err
		}
		patch.Completed = &completed
	}

	return patch, nil
}

// decodeField unmarshals fields[key] into dst. A missing key leaves dst
// untouched.
func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &RequestError{Field: key, Message: fmt.Sprintf("cannot decode: %v", err)}
	}
	return nil
}

func optionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return nil, nil
	}
	var s string
	if err := decodeField(fields, key, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// optionalTime parses an RFC 3339 field. present reports whether the key
// exists, so an explicit null comes back as (nil, true).
func optionalTime(fields map[string]json.RawMessage, key string) (*time.Time, bool, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, false, nil
	}
	if isNull(raw) {
		return nil, true, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, true, &RequestError{Field: key, Message: "must be a string"}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, true, &RequestError{Field: key, Message: "must be an RFC 3339 timestamp"}
	}
	return &t, true, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
