package ingest

import (
	"sort"
	"strings"
)

// AutoMap proposes a column mapping for the given source headers. Each header
// is matched against the catalog by, in order: exact key match, sanitized
// label match, sanitized label containing the sanitized header. The first
// catalog entry that matches wins; headers with no match map to "" (ignore).
func AutoMap(headers []string) map[string]string {
	mapping := make(map[string]string, len(headers))
	for _, header := range headers {
		mapping[header] = autoMatch(header)
	}
	return mapping
}

func autoMatch(header string) string {
	token := Sanitize(header)
	if token == "" {
		return ""
	}
	for _, field := range Catalog {
		label := Sanitize(field.Label)
		if field.Key == token || label == token || strings.Contains(label, token) {
			return field.Key
		}
	}
	return ""
}

// Resolver reads canonical values out of a sanitized raw record, optionally
// through an explicit user-supplied column mapping. Lookups are pure and
// total: a missing mapping or missing field yields nil, never an error.
type Resolver struct {
	// targets maps canonical key -> sanitized source field, derived once from
	// the explicit mapping. Nil when no explicit mapping was supplied.
	targets map[string]string
}

// NewResolver builds a resolver from an explicit original-header -> canonical
// key mapping. When several original headers claim the same canonical key the
// lexicographically first header wins, which keeps resolution deterministic
// regardless of map iteration order.
func NewResolver(explicit map[string]string) *Resolver {
	if len(explicit) == 0 {
		return &Resolver{}
	}

	headers := make([]string, 0, len(explicit))
	for header := range explicit {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	targets := make(map[string]string, len(explicit))
	for _, header := range headers {
		canonical := explicit[header]
		if canonical == "" {
			continue
		}
		if _, taken := targets[canonical]; taken {
			continue
		}
		targets[canonical] = Sanitize(header)
	}
	return &Resolver{targets: targets}
}

// sanitizedLabels maps each canonical key to its sanitized catalog label.
// The two can differ: "JC Date & Time" sanitizes to "jc_date__time" while the
// key is "jc_date_time", so an unmapped record must be probed at both.
var sanitizedLabels = func() map[string]string {
	m := make(map[string]string, len(Catalog))
	for _, field := range Catalog {
		if label := Sanitize(field.Label); label != field.Key {
			m[field.Key] = label
		}
	}
	return m
}()

// Value resolves a canonical key against the record. With an explicit mapping
// the mapped source field is read; without one the record is probed at the
// canonical key, then at the key's sanitized catalog label.
func (r *Resolver) Value(rec RawRecord, canonical string) *string {
	if source, ok := r.targets[canonical]; ok {
		return rec.Get(source)
	}
	if v := rec.Get(canonical); v != nil {
		return v
	}
	if label, ok := sanitizedLabels[canonical]; ok {
		return rec.Get(label)
	}
	return nil
}

// First returns the first non-nil value among the given canonical aliases.
func (r *Resolver) First(rec RawRecord, aliases ...string) *string {
	for _, alias := range aliases {
		if v := r.Value(rec, alias); v != nil {
			return v
		}
	}
	return nil
}
