// Package validator checks bloktastic documents against their JSON Schemas.
package validator

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/kaptinlin/jsonschema"

	"github.com/bloktastic/bloktastic/internal/errs"
	"github.com/bloktastic/bloktastic/internal/filemanager"
)

//go:embed schemas/*.schema.json
var embedded embed.FS

// SchemaID names one of the published schemas.
type SchemaID string

const (
	SchemaManifest SchemaID = "bloktastic"
	SchemaRegistry SchemaID = "registry"
	SchemaConfig   SchemaID = "config"
)

// FileName is the schema's file name, both embedded and in a schema/ dir.
func (id SchemaID) FileName() string {
	return string(id) + ".schema.json"
}

// Result is the outcome of one validation. Errors are "<pointer>: <message>"
// strings in sorted order.
type Result struct {
	Valid  bool
	Errors []string
}

// Option configures a Validator.
type Option func(*Validator)

// WithWorkDir makes the validator prefer schema/<name>.schema.json found in
// dir or one of its parents over the embedded copy.
func WithWorkDir(dir string) Option {
	return func(v *Validator) { v.workDir = dir }
}

// Validator compiles each schema on first use and reuses it afterwards.
// It is safe for concurrent use.
type Validator struct {
	workDir string

	mu       sync.Mutex
	compiler *jsonschema.Compiler
	schemas  map[SchemaID]*jsonschema.Schema
}

// New creates a validator.
func New(opts ...Option) *Validator {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	v := &Validator{
		compiler: compiler,
		schemas:  make(map[SchemaID]*jsonschema.Schema),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateManifest validates a bloktastic.json document.
func (v *Validator) ValidateManifest(data []byte) (Result, error) {
	return v.Validate(SchemaManifest, data)
}

// ValidateRegistry validates a registry.json document.
func (v *Validator) ValidateRegistry(data []byte) (Result, error) {
	return v.Validate(SchemaRegistry, data)
}

// ValidateConfig validates a bloktastic.config.json document.
func (v *Validator) ValidateConfig(data []byte) (Result, error) {
	return v.Validate(SchemaConfig, data)
}

// Validate checks data against the schema id. The error return is reserved
// for schemas that cannot be loaded; invalid documents produce a Result.
func (v *Validator) Validate(id SchemaID, data []byte) (Result, error) {
	schema, err := v.schema(id)
	if err != nil {
		return Result{}, err
	}

	if !json.Valid(data) {
		return Result{Errors: []string{"/: invalid JSON"}}, nil
	}

	eval := schema.ValidateJSON(data)
	if eval.IsValid() {
		return Result{Valid: true}, nil
	}
	return Result{Errors: collectErrors(eval)}, nil
}

func (v *Validator) schema(id SchemaID) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.schemas[id]; ok {
		return s, nil
	}

	raw, source, err := v.load(id)
	if err != nil {
		return nil, err
	}
	s, err := v.compiler.Compile(raw)
	if err != nil {
		return nil, errs.Wrap(fmt.Errorf("compiling %s: %w", source, err), errs.KindLoadFailure, "")
	}
	v.schemas[id] = s
	return s, nil
}

func (v *Validator) load(id SchemaID) ([]byte, string, error) {
	if v.workDir != "" {
		if found, ok := filemanager.FindUpwards(v.workDir, filepath.Join("schema", id.FileName())); ok {
			raw, err := os.ReadFile(found)
			if err != nil {
				return nil, found, errs.Wrap(fmt.Errorf("reading schema %s: %w", found, err), errs.KindLoadFailure, "")
			}
			return raw, found, nil
		}
	}

	name := "schemas/" + id.FileName()
	raw, err := embedded.ReadFile(name)
	if err != nil {
		return nil, name, errs.Wrap(fmt.Errorf("schema %q was not loaded: %w", id, err), errs.KindLoadFailure, "")
	}
	return raw, name, nil
}

func collectErrors(eval *jsonschema.EvaluationResult) []string {
	seen := make(map[string]bool)
	var out []string

	var walk func(r *jsonschema.EvaluationResult)
	walk = func(r *jsonschema.EvaluationResult) {
		if r == nil {
			return
		}
		pointer := r.InstanceLocation
		if pointer == "" {
			pointer = "/"
		}
		for _, e := range r.Errors {
			line := pointer + ": " + e.Error()
			if !seen[line] {
				seen[line] = true
				out = append(out, line)
			}
		}
		for _, d := range r.Details {
			walk(d)
		}
	}
	walk(eval)

	slices.Sort(out)
	return out
}
