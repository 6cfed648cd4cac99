package storyblok

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/wI2L/jsondiff"

	"github.com/bloktastic/bloktastic/internal/errs"
)

// MetadataKey is the registry-internal key stripped before a push.
const MetadataKey = "$bloktastic"

// PushOptions control PushComponent.
type PushOptions struct {
	// Force updates a component that already exists.
	Force bool
}

// PushResult reports which of the three outcomes a push had. Changes is
// only filled for updates.
type PushResult struct {
	Created bool
	Updated bool
	Skipped bool
	Changes []string
}

// CleanSchema returns a shallow copy of schema without MetadataKey.
func CleanSchema(schema map[string]any) map[string]any {
	cleaned := maps.Clone(schema)
	delete(cleaned, MetadataKey)
	return cleaned
}

// PushComponent creates the component, or updates it when it exists and
// Force is set, or skips it. The existence check and the write are two
// separate calls; a concurrent writer between them is not detected.
func (c *Client) PushComponent(ctx context.Context, spaceID string, schema map[string]any, opts PushOptions) (*PushResult, error) {
	name, _ := schema["name"].(string)
	if name == "" {
		return nil, errs.New(errs.KindInvalidArgument, "invalid schema: missing component name")
	}

	existing, err := c.GetComponent(ctx, spaceID, name)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if _, err := c.CreateComponent(ctx, spaceID, schema); err != nil {
			return nil, err
		}
		return &PushResult{Created: true}, nil
	}

	if !opts.Force {
		return &PushResult{Skipped: true}, nil
	}

	changes, err := Diff(existing.Raw, CleanSchema(schema))
	if err != nil {
		c.logger.Debug("schema diff failed", slog.String("component", name), slog.Any("error", err))
	}
	if _, err := c.UpdateComponent(ctx, spaceID, existing.ID, schema); err != nil {
		return nil, err
	}
	return &PushResult{Updated: true, Changes: changes}, nil
}

// Diff describes how local differs from remote, looking only at the keys
// local defines. Remote-only fields such as id or timestamps are ignored.
func Diff(remote, local map[string]any) ([]string, error) {
	projected := make(map[string]any, len(local))
	for key := range local {
		if v, ok := remote[key]; ok {
			projected[key] = v
		}
	}

	source, err := json.Marshal(projected)
	if err != nil {
		return nil, err
	}
	target, err := json.Marshal(local)
	if err != nil {
		return nil, err
	}

	patch, err := jsondiff.CompareJSON(source, target)
	if err != nil {
		return nil, fmt.Errorf("comparing schemas: %w", err)
	}
	return Translate(patch), nil
}

// Translate turns patch operations into one line per affected field.
func Translate(patch jsondiff.Patch) []string {
	var lines []string
	seen := make(map[string]bool)
	for _, op := range patch {
		line := translateOperation(op)
		if line != "" && !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}
	return lines
}

func translateOperation(op jsondiff.Operation) string {
	parts := strings.Split(strings.TrimPrefix(op.Path, "/"), "/")
	for i, p := range parts {
		parts[i] = unescapePointer(p)
	}

	// Field definitions live under /schema/<field>.
	if len(parts) >= 2 && parts[0] == "schema" {
		field := parts[1]
		switch {
		case len(parts) > 2:
			return fmt.Sprintf("field %q changed", field)
		case op.Type == jsondiff.OperationAdd:
			return fmt.Sprintf("field %q added", field)
		case op.Type == jsondiff.OperationRemove:
			return fmt.Sprintf("field %q removed", field)
		default:
			return fmt.Sprintf("field %q changed", field)
		}
	}

	key := parts[0]
	if key == "" {
		return ""
	}
	switch op.Type {
	case jsondiff.OperationAdd:
		return fmt.Sprintf("%s set", key)
	case jsondiff.OperationRemove:
		return fmt.Sprintf("%s removed", key)
	case jsondiff.OperationReplace:
		return fmt.Sprintf("%s changed", key)
	}
	return ""
}

func unescapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
}
