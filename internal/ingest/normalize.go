package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/bodyshop-platform/api/internal/store"
)

// RawRecord is one sanitized flat record derived from a single input row.
// SourceHash is the dedup fingerprint over the signature fields; it is empty
// when no signature field carried a value, in which case the record is always
// inserted as new.
type RawRecord struct {
	Fields     map[string]*string
	SourceHash string
}

// signatureFields lists, in priority order, the alias groups whose first
// non-empty value feeds the content fingerprint. The group order is part of
// the hash contract and must not change.
var signatureFields = [][]string{
	{"job_card_number", "job_card_no"},
	{"registration_no", "registration_no_1"},
	{"bill_no", "bill_no_1"},
	{"chassis"},
}

// NormalizeRow converts one input row into a RawRecord: every key is
// sanitized, every value cleaned to string-or-nil, and the source hash is
// derived when possible. Total — malformed values degrade to nil fields.
func NormalizeRow(row map[string]any) RawRecord {
	fields := make(map[string]*string, len(row))
	for key, value := range row {
		fields[Sanitize(key)] = CleanValue(value)
	}
	return RawRecord{Fields: fields, SourceHash: sourceHash(fields)}
}

func sourceHash(fields map[string]*string) string {
	parts := make([]string, len(signatureFields))
	found := false
	for i, group := range signatureFields {
		for _, key := range group {
			if v := fields[key]; v != nil && *v != "" {
				parts[i] = *v
				found = true
				break
			}
		}
	}
	if !found {
		return ""
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Get returns the cleaned value for a sanitized field name, nil when absent.
func (r RawRecord) Get(key string) *string {
	if v, ok := r.Fields[key]; ok {
		return v
	}
	return nil
}

func (r RawRecord) storeRow() store.Row {
	row := make(store.Row, len(r.Fields)+1)
	for key, value := range r.Fields {
		if value == nil {
			row[key] = nil
		} else {
			row[key] = *value
		}
	}
	if r.SourceHash != "" {
		row["source_hash"] = r.SourceHash
	}
	return row
}
