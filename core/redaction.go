package core

import (
	"slices"
	"strings"
)

// RedactedValue replaces the value of a sensitive log field.
const RedactedValue = "[REDACTED]"

// Redactor masks log fields whose lowercased name contains one of Fragments.
// Names in Keep stay visible even when a fragment matches them.
type Redactor struct {
	Fragments []string
	Keep      []string
}

// DefaultRedactor masks worker and stratum credentials and keeps the
// identifiers pool log lines are correlated by.
func DefaultRedactor() Redactor {
	return Redactor{
		Fragments: []string{"passw", "secret", "token", "credential", "api_key", "apikey"},
		Keep:      []string{"event_type", "session_id", "connection", "remote_addr", "runtime_id", "idempotency_key"},
	}
}

// RedactSensitiveMap applies DefaultRedactor to fields.
func RedactSensitiveMap(fields map[string]any) map[string]any {
	return DefaultRedactor().Fields(fields)
}

// Fields returns a masked copy of fields. Nested field maps, string maps and
// slices are masked too; the input is never modified.
func (r Redactor) Fields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for name, value := range fields {
		if r.Sensitive(name) {
			out[name] = RedactedValue
			continue
		}
		out[name] = r.mask(value)
	}
	return out
}

func (r Redactor) Sensitive(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || slices.Contains(r.Keep, name) {
		return false
	}
	return slices.ContainsFunc(r.Fragments, func(fragment string) bool {
		return strings.Contains(name, fragment)
	})
}

func (r Redactor) mask(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return r.Fields(typed)
	case map[string]string:
		out := make(map[string]string, len(typed))
		for name, item := range typed {
			if r.Sensitive(name) {
				item = RedactedValue
			}
			out[name] = item
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(typed))
		for i, item := range typed {
			out[i] = r.Fields(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = r.mask(item)
		}
		return out
	}
	return value
}
