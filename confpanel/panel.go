// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package confpanel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/tidwall/jsonc"

	"github.com/hawk-tui/hawk-go/telemetry"
)

// ErrUnknownKey reports a SetValue call against a key that was never
// added. Unlike a validation failure, this is a programmer error.
var ErrUnknownKey = errors.New("confpanel: unknown configuration key")

// Emitter is the slice of the telemetry client the panel needs.
// *telemetry.Client satisfies it.
type Emitter interface {
	Emit(method string, params any)
}

// ChangeFunc observes a successful value change.
type ChangeFunc func(key string, oldValue, newValue any)

// Panel is a named set of configuration fields and their current
// values. Safe for concurrent use.
type Panel struct {
	name    string
	emitter Emitter

	mu        sync.Mutex
	fields    map[string]Field
	values    map[string]any
	callbacks map[string]ChangeFunc

	// persistPath enables auto-save once set by SaveToFile or
	// LoadFromFile.
	persistPath string
	autoSave    bool
}

// New creates a Panel emitting through emitter. Auto-save is enabled
// but inert until a persistence path is established.
func New(name string, emitter Emitter) *Panel {
	return &Panel{
		name:      name,
		emitter:   emitter,
		fields:    make(map[string]Field),
		values:    make(map[string]any),
		callbacks: make(map[string]ChangeFunc),
		autoSave:  true,
	}
}

// SetAutoSave toggles saving after every successful SetValue. Only
// effective once a persistence path exists.
func (p *Panel) SetAutoSave(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoSave = enabled
}

// AddField registers a field and emits its definition envelope.
// Idempotent per key: re-adding replaces the metadata but preserves a
// value that has already been set. The default is coerced into the
// value store if no value exists yet.
func (p *Panel) AddField(field Field) {
	if field.Category == "" {
		field.Category = "General"
	}

	p.mu.Lock()
	p.fields[field.Key] = field
	if _, exists := p.values[field.Key]; !exists && field.Default != nil {
		if coerced, ok := field.coerce(field.Default); ok {
			p.values[field.Key] = coerced
		} else {
			p.values[field.Key] = field.Default
		}
	}
	params := p.fieldParamsLocked(field)
	p.mu.Unlock()

	p.emitter.Emit(telemetry.MethodConfig, params)
}

// fieldParamsLocked builds the definition envelope, including the
// current value when one is set. Caller holds p.mu.
func (p *Panel) fieldParamsLocked(field Field) telemetry.ConfigParams {
	params := telemetry.ConfigParams{
		Key:             field.Key,
		Type:            field.Type,
		Description:     field.Description,
		Default:         field.Default,
		Required:        field.Required,
		Min:             field.Min,
		Max:             field.Max,
		Options:         field.Options,
		RestartRequired: field.RestartRequired,
		Category:        field.Category,
		Panel:           p.name,
	}
	if value, ok := p.values[field.Key]; ok {
		params.Value = value
	}
	return params
}

// SetValue validates and stores a new value. The validation chain is
// type coercion, numeric bounds, enum membership, then the field's
// custom validator; any failure leaves the stored value unchanged and
// returns false with a nil error. An unknown key returns
// ErrUnknownKey. On success the update envelope is emitted, the
// registered change callback (if any) runs synchronously, and the
// panel auto-saves when persistence is configured.
func (p *Panel) SetValue(key string, value any) (bool, error) {
	p.mu.Lock()
	field, ok := p.fields[key]
	if !ok {
		p.mu.Unlock()
		return false, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	coerced, ok := field.coerce(value)
	if !ok || !field.validate(coerced) {
		p.mu.Unlock()
		return false, nil
	}

	oldValue := p.values[key]
	p.values[key] = coerced
	callback := p.callbacks[key]
	savePath := ""
	if p.autoSave && p.persistPath != "" {
		savePath = p.persistPath
	}
	snapshot := p.valuesSnapshotLocked()
	p.mu.Unlock()

	p.emitter.Emit(telemetry.MethodConfig, telemetry.ConfigParams{
		Key:   key,
		Value: coerced,
		Panel: p.name,
	})

	if callback != nil {
		p.runCallback(callback, key, oldValue, coerced)
	}
	if savePath != "" {
		if err := writeValuesFile(savePath, snapshot); err != nil {
			p.reportError(fmt.Sprintf("Failed to save config to %s: %v", savePath, err))
		}
	}
	return true, nil
}

// runCallback invokes a change callback, containing any panic so a
// misbehaving observer cannot fail the SetValue caller.
func (p *Panel) runCallback(callback ChangeFunc, key string, oldValue, newValue any) {
	defer func() {
		if r := recover(); r != nil {
			p.reportError(fmt.Sprintf("Config callback error for %s: %v", key, r))
		}
	}()
	callback(key, oldValue, newValue)
}

// reportError surfaces an internal failure through the transport.
func (p *Panel) reportError(message string) {
	p.emitter.Emit(telemetry.MethodLog, telemetry.LogParams{
		Message:   message,
		Level:     telemetry.LevelError,
		Component: "confpanel." + p.name,
	})
}

// Value returns the current value for key and whether one is set.
func (p *Panel) Value(key string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	value, ok := p.values[key]
	return value, ok
}

// Values returns a snapshot of all current values.
func (p *Panel) Values() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.valuesSnapshotLocked()
}

func (p *Panel) valuesSnapshotLocked() map[string]any {
	snapshot := make(map[string]any, len(p.values))
	for k, v := range p.values {
		snapshot[k] = v
	}
	return snapshot
}

// OnChange registers the callback for a key, replacing any previous
// one. The callback runs synchronously inside successful SetValue
// calls with (key, old, new).
func (p *Panel) OnChange(key string, callback ChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks[key] = callback
}

// FieldSchema is one field's exported schema entry.
type FieldSchema struct {
	Type            telemetry.FieldType `json:"type"`
	Description     string              `json:"description,omitempty"`
	Default         any                 `json:"default,omitempty"`
	Required        bool                `json:"required,omitempty"`
	Category        string              `json:"category,omitempty"`
	Min             *float64            `json:"min,omitempty"`
	Max             *float64            `json:"max,omitempty"`
	Options         []string            `json:"options,omitempty"`
	RestartRequired bool                `json:"restart_required,omitempty"`
}

// Schema is the panel's full exported schema.
type Schema struct {
	Name       string                 `json:"name"`
	Categories []string               `json:"categories"`
	Fields     map[string]FieldSchema `json:"fields"`
}

// ExportSchema returns the panel's field definitions in a form
// suitable for documentation or external tooling.
func (p *Panel) ExportSchema() Schema {
	p.mu.Lock()
	defer p.mu.Unlock()

	schema := Schema{
		Name:   p.name,
		Fields: make(map[string]FieldSchema, len(p.fields)),
	}
	categories := make(map[string]struct{})
	for key, field := range p.fields {
		categories[field.Category] = struct{}{}
		schema.Fields[key] = FieldSchema{
			Type:            field.Type,
			Description:     field.Description,
			Default:         field.Default,
			Required:        field.Required,
			Category:        field.Category,
			Min:             field.Min,
			Max:             field.Max,
			Options:         field.Options,
			RestartRequired: field.RestartRequired,
		}
	}
	for category := range categories {
		schema.Categories = append(schema.Categories, category)
	}
	sort.Strings(schema.Categories)
	return schema
}

// SaveToFile writes the current values as a flat JSON object and
// makes path the panel's persistence target for auto-save.
func (p *Panel) SaveToFile(path string) error {
	p.mu.Lock()
	p.persistPath = path
	snapshot := p.valuesSnapshotLocked()
	p.mu.Unlock()
	return writeValuesFile(path, snapshot)
}

// LoadFromFile reads a flat JSON (or JSONC) object and applies each
// known key through SetValue, so the validation chain still guards
// every loaded value. Unknown keys are skipped. The file becomes the
// panel's persistence target.
func (p *Panel) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("confpanel: read %s: %w", path, err)
	}
	var loaded map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &loaded); err != nil {
		return fmt.Errorf("confpanel: parse %s: %w", path, err)
	}

	p.mu.Lock()
	known := make([]string, 0, len(loaded))
	for key := range loaded {
		if _, ok := p.fields[key]; ok {
			known = append(known, key)
		}
	}
	p.mu.Unlock()
	sort.Strings(known)

	for _, key := range known {
		if _, err := p.SetValue(key, loaded[key]); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.persistPath = path
	p.mu.Unlock()
	return nil
}

// writeValuesFile persists values atomically: write to a temporary
// file, sync, then rename into place.
func writeValuesFile(path string, values map[string]any) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config values: %w", err)
	}
	data = append(data, '\n')

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating temporary config file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary config file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary config file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary config file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming config file into place: %w", err)
	}

	// Make the rename durable across power loss.
	if parent, err := os.Open(filepath.Dir(path)); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}
