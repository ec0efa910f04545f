package todo

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/todo-go/internal/utils"
)

//go:embed todos.schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "https://github.com/nibzard/todo-go/todos.schema.json"

var (
	embeddedOnce     sync.Once
	embeddedCompiled *jsonschema.Schema
	embeddedErr      error
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // Dotted path to the error location, e.g. "[2].id"
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationOptions controls validation behavior.
type ValidationOptions struct {
	// SchemaPath overrides the embedded schema with a file on disk.
	// If the file cannot be used, validation falls back to minimal checks.
	SchemaPath string

	// AllowDuplicateIDs skips the distinct-id check.
	AllowDuplicateIDs bool
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool // true if JSON Schema validation was performed
}

func (r *ValidationResult) fail(err error) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// Err returns the first validation error, or nil when the document is valid.
func (r *ValidationResult) Err() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	if len(r.Errors) == 1 {
		return r.Errors[0]
	}
	return fmt.Errorf("%w (and %d more)", r.Errors[0], len(r.Errors)-1)
}

// Validate checks a raw todos.json document.
func Validate(data []byte, opts ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		result.fail(&ValidationError{Err: fmt.Errorf("invalid JSON: %w", err)})
		return result
	}

	schema, warning := loadSchema(opts.SchemaPath)
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}
	if schema != nil {
		result.UsedSchema = true
		if err := schema.Validate(doc); err != nil {
			result.Valid = false
			appendSchemaErrors(result, err)
		}
	} else {
		result.Warnings = append(result.Warnings, "JSON Schema validation not available, using minimal checks")
		validateShape(doc, result)
	}

	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		// The schema already explained what is wrong.
		if !result.UsedSchema {
			result.fail(&ValidationError{Err: fmt.Errorf("not a list of todos: %w", err)})
		}
		return result
	}
	if !opts.AllowDuplicateIDs {
		validateMinimal(tasks, result)
	}

	return result
}

// DecodeList validates data as a list of complete todo records and decodes
// it. The returned slice is never nil.
func DecodeList(data []byte, allowDuplicateIDs bool) ([]Task, error) {
	if err := Validate(data, ValidationOptions{AllowDuplicateIDs: allowDuplicateIDs}).Err(); err != nil {
		return nil, err
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, err
	}
	return Clone(tasks), nil
}

// validateShape requires an array of objects carrying every Task field.
// It stands in for the schema when no schema could be loaded.
func validateShape(doc any, result *ValidationResult) {
	items, ok := doc.([]any)
	if !ok {
		result.fail(&ValidationError{Err: fmt.Errorf("expected an array of todos")})
		return
	}
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			result.fail(&ValidationError{Path: fmt.Sprintf("[%d]", i), Err: fmt.Errorf("expected an object")})
			continue
		}
		for _, key := range []string{"id", "text", "completed"} {
			if _, ok := obj[key]; !ok {
				result.fail(&ValidationError{Path: fmt.Sprintf("[%d]", i), Err: fmt.Errorf("missing property %q", key)})
			}
		}
	}
}

// validateMinimal reports duplicate ids.
func validateMinimal(tasks []Task, result *ValidationResult) {
	seen := make(map[uint32]int, len(tasks))
	for i, t := range tasks {
		if first, ok := seen[t.ID]; ok {
			result.fail(&ValidationError{
				Path: fmt.Sprintf("[%d].id", i),
				Err:  fmt.Errorf("duplicate id %d (first at [%d])", t.ID, first),
			})
			continue
		}
		seen[t.ID] = i
	}
}

// loadSchema returns the compiled schema and an optional warning. A nil
// schema means only minimal checks can run.
func loadSchema(schemaPath string) (*jsonschema.Schema, string) {
	if schemaPath == "" {
		embeddedOnce.Do(func() {
			compiler := jsonschema.NewCompiler()
			if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
				embeddedErr = err
				return
			}
			embeddedCompiled, embeddedErr = compiler.Compile(embeddedSchemaURL)
		})
		if embeddedErr != nil {
			return nil, fmt.Sprintf("invalid embedded schema: %v", embeddedErr)
		}
		return embeddedCompiled, ""
	}

	absPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Sprintf("invalid schema path: %v", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Sprintf("schema file not found: %s", absPath)
		}
		return nil, fmt.Sprintf("failed to read schema file: %v", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Sprintf("invalid schema file: %v", err)
	}
	return schema, ""
}

func appendSchemaErrors(result *ValidationResult, err error) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}
	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}
