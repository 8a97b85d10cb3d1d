package settings

import (
	"fmt"
	"math"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-mining/core"
)

// Settings is a resolved, read-only view of named values.
type Settings struct {
	values map[string]any
}

// New wraps a plain map. The map is copied.
func New(values map[string]any) *Settings {
	return &Settings{values: copyValues(values)}
}

func (s *Settings) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

func (s *Settings) Get(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	value, ok := s.values[name]
	return value, ok
}

// Lookup is Get with a POOL_SETTING_MISSING error for absent names.
func (s *Settings) Lookup(name string) (any, error) {
	value, ok := s.Get(name)
	if !ok {
		return nil, missingSettingError(name)
	}
	return value, nil
}

func (s *Settings) Bool(name string) (bool, error) {
	value, err := s.Lookup(name)
	if err != nil {
		return false, err
	}
	typed, ok := value.(bool)
	if !ok {
		return false, invalidSettingError(name, "boolean", value)
	}
	return typed, nil
}

func (s *Settings) Int(name string) (int, error) {
	value, err := s.Lookup(name)
	if err != nil {
		return 0, err
	}
	switch typed := value.(type) {
	case int:
		return typed, nil
	case int8:
		return int(typed), nil
	case int16:
		return int(typed), nil
	case int32:
		return int(typed), nil
	case int64:
		return int(typed), nil
	case uint8:
		return int(typed), nil
	case uint16:
		return int(typed), nil
	case uint32:
		return int(typed), nil
	case float64:
		if typed == math.Trunc(typed) {
			return int(typed), nil
		}
	}
	return 0, invalidSettingError(name, "integer", value)
}

func (s *Settings) Float(name string) (float64, error) {
	value, err := s.Lookup(name)
	if err != nil {
		return 0, err
	}
	switch typed := value.(type) {
	case float64:
		return typed, nil
	case float32:
		return float64(typed), nil
	case int:
		return float64(typed), nil
	case int32:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case uint32:
		return float64(typed), nil
	}
	return 0, invalidSettingError(name, "number", value)
}

func (s *Settings) String(name string) (string, error) {
	value, err := s.Lookup(name)
	if err != nil {
		return "", err
	}
	typed, ok := value.(string)
	if !ok {
		return "", invalidSettingError(name, "string", value)
	}
	return typed, nil
}

// Names returns every resolved name in sorted order.
func (s *Settings) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns a shallow copy of the resolved values.
func (s *Settings) Map() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return copyValues(s.values)
}

func missingSettingError(name string) error {
	return core.NewPoolError(
		fmt.Sprintf("settings: %q is not defined", strings.TrimSpace(name)),
		goerrors.CategoryNotFound,
		core.PoolErrorSettingMissing,
	).WithMetadata(map[string]any{"setting": name})
}

func invalidSettingError(name, expected string, value any) error {
	return core.NewPoolError(
		fmt.Sprintf("settings: %q must be a %s, got %T", strings.TrimSpace(name), expected, value),
		goerrors.CategoryValidation,
		core.PoolErrorSettingInvalid,
	).WithMetadata(map[string]any{"setting": name})
}

func copyValues(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
