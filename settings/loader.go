// Package settings resolves the pool's free-form settings from a default
// layer and an override layer, and reports which names the override changed.
package settings

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/goliatone/go-mining/core"
)

const (
	// DebugSetting gates the custom settings diagnostic.
	DebugSetting = "DEBUG"
	// MaskedValue replaces values whose name looks like a password.
	MaskedValue = "********"

	diagnosticRule   = "----------------"
	diagnosticHeader = "Custom settings:"
	internalPrefix   = "__"
	passwordFragment = "passw"
)

// Layer is one named-value source, such as module defaults or a deployment file.
type Layer map[string]any

// Change records an override entry that was absent from the defaults or
// carried a different value.
type Change struct {
	Name  string
	Value any
}

// ChangeSet is ordered by name.
type ChangeSet []Change

func (c ChangeSet) Len() int { return len(c) }

func (c ChangeSet) Names() []string {
	names := make([]string, 0, len(c))
	for _, change := range c {
		names = append(names, change.Name)
	}
	return names
}

func (c ChangeSet) Has(name string) bool {
	_, ok := c.Value(name)
	return ok
}

func (c ChangeSet) Value(name string) (any, bool) {
	for _, change := range c {
		if change.Name == name {
			return change.Value, true
		}
	}
	return nil, false
}

// Result is the outcome of Load.
type Result struct {
	Settings *Settings
	Changes  ChangeSet
}

type Option func(*loadOptions)

type loadOptions struct {
	output io.Writer
}

// WithOutput redirects the custom settings diagnostic. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *loadOptions) {
		if w != nil {
			o.output = w
		}
	}
}

// Load copies defaults, applies every override entry on top and returns the
// resolved settings with the change set. When DEBUG resolves to true and the
// override changed anything, the changes are printed with password-like
// values masked.
func Load(defaults, override Layer, opts ...Option) (*Result, error) {
	options := loadOptions{output: os.Stdout}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	resolved := make(map[string]any, len(defaults)+len(override))
	for name, value := range defaults {
		if isInternal(name) {
			continue
		}
		resolved[name] = value
	}

	changes := make(ChangeSet, 0, len(override))
	for name, value := range override {
		if isInternal(name) {
			continue
		}
		current, exists := resolved[name]
		if !exists || !sameValue(current, value) {
			changes = append(changes, Change{Name: name, Value: value})
		}
		resolved[name] = value
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })

	settings := &Settings{values: resolved}
	debug, err := settings.Bool(DebugSetting)
	if err != nil {
		return nil, err
	}
	if debug && len(changes) > 0 {
		if err := writeCustomSettings(options.output, changes); err != nil {
			return nil, core.MapError(fmt.Errorf("settings: write custom settings: %w", err))
		}
	}
	return &Result{Settings: settings, Changes: changes}, nil
}

// sameValue compares numbers by value across Go kinds, so 1.0 over a
// default of 1 is not a change. Everything else is compared deeply.
func sameValue(current, override any) bool {
	x, xok := numericValue(current)
	y, yok := numericValue(override)
	if xok && yok {
		return x == y
	}
	return reflect.DeepEqual(current, override)
}

func numericValue(value any) (float64, bool) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

func writeCustomSettings(w io.Writer, changes ChangeSet) error {
	var b strings.Builder
	b.WriteString(diagnosticRule + "\n")
	b.WriteString(diagnosticHeader + "\n")
	for _, change := range changes {
		fmt.Fprintf(&b, "%s: %s\n", change.Name, displayValue(change.Name, change.Value))
	}
	b.WriteString(diagnosticRule + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func displayValue(name string, value any) string {
	if IsSensitive(name) {
		return MaskedValue
	}
	return fmt.Sprintf("%v", value)
}

// IsSensitive reports whether a setting name should never be printed.
func IsSensitive(name string) bool {
	return strings.Contains(strings.ToLower(name), passwordFragment)
}

func isInternal(name string) bool {
	return strings.HasPrefix(name, internalPrefix)
}
