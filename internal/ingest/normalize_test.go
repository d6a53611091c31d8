package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRowSanitizesKeysAndValues(t *testing.T) {
	rec := NormalizeRow(map[string]any{
		"Job Card No":    " JC-100 ",
		"Customer Name ": "null",
		"Mobile No":      nil,
		"Model":          "Swift VXi",
	})

	if got := rec.Get("job_card_no"); assert.NotNil(t, got) {
		assert.Equal(t, "JC-100", *got)
	}
	assert.Nil(t, rec.Get("customer_name"))
	assert.Nil(t, rec.Get("mobile_no"))
	if got := rec.Get("model"); assert.NotNil(t, got) {
		assert.Equal(t, "Swift VXi", *got)
	}
	assert.Nil(t, rec.Get("never_present"))
}

func TestSourceHashIsDeterministic(t *testing.T) {
	row := map[string]any{
		"Job Card No":     "JC-100",
		"Registration No": "KA01AB1234",
		"Bill No":         "B-55",
		"Chassis":         "MA3EYD32S00",
	}

	first := NormalizeRow(row)
	second := NormalizeRow(row)

	assert.NotEmpty(t, first.SourceHash)
	assert.Equal(t, first.SourceHash, second.SourceHash)
}

func TestSourceHashUsesAliasColumns(t *testing.T) {
	direct := NormalizeRow(map[string]any{"job_card_number": "JC-7"})
	aliased := NormalizeRow(map[string]any{"Job Card No": "JC-7"})

	assert.NotEmpty(t, direct.SourceHash)
	assert.Equal(t, direct.SourceHash, aliased.SourceHash)
}

func TestSourceHashChangesWithSignature(t *testing.T) {
	a := NormalizeRow(map[string]any{"Job Card No": "JC-1"})
	b := NormalizeRow(map[string]any{"Job Card No": "JC-2"})
	assert.NotEqual(t, a.SourceHash, b.SourceHash)
}

func TestSourceHashEmptyWithoutSignatureFields(t *testing.T) {
	rec := NormalizeRow(map[string]any{
		"Customer Name": "Asha",
		"Model":         "Baleno",
	})
	assert.Empty(t, rec.SourceHash)
}

func TestStoreRowCarriesHashAndNulls(t *testing.T) {
	rec := NormalizeRow(map[string]any{
		"Job Card No":   "JC-9",
		"Customer Name": "null",
	})

	row := rec.storeRow()
	assert.Equal(t, "JC-9", row["job_card_no"])
	assert.Nil(t, row["customer_name"])
	assert.Equal(t, rec.SourceHash, row["source_hash"])

	unhashed := NormalizeRow(map[string]any{"Model": "Swift"})
	_, ok := unhashed.storeRow()["source_hash"]
	assert.False(t, ok)
}
