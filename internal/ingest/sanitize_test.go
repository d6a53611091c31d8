package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"simple label", "Job Card No", "job_card_no"},
		{"trailing punctuation", "Registration No.", "registration_no"},
		{"embedded newline", "Bill\nAmount", "billamount"},
		{"carriage return and spaces", "  Customer \r\n Name ", "customer_name"},
		// Spaces collapse before punctuation is stripped, so the dropped
		// ampersand leaves a double underscore behind.
		{"ampersand leaves double underscore", "JC Date & Time", "jc_date__time"},
		{"multiple spaces collapse", "Est.   Lab   Amt", "est_lab_amt"},
		{"already canonical", "labour_amt", "labour_amt"},
		{"empty", "", ""},
		{"only punctuation", "###", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.header))
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	headers := []string{"Job Card No", "Registration No.", "JC Date & Time", "MI_YN", "S.A"}
	for _, header := range headers {
		once := Sanitize(header)
		assert.Equal(t, once, Sanitize(once), "re-sanitizing %q must not change it", header)
	}
}

func TestCleanValue(t *testing.T) {
	assert.Nil(t, CleanValue(nil))
	assert.Nil(t, CleanValue(""))
	assert.Nil(t, CleanValue("   "))
	assert.Nil(t, CleanValue("null"))
	assert.Nil(t, CleanValue("NULL"))
	assert.Nil(t, CleanValue("Null"))

	if got := CleanValue("  KA01 AB 1234 "); assert.NotNil(t, got) {
		assert.Equal(t, "KA01 AB 1234", *got)
	}
	if got := CleanValue(42); assert.NotNil(t, got) {
		assert.Equal(t, "42", *got)
	}
	// "nullable" is a real value, not a null marker.
	if got := CleanValue("nullable"); assert.NotNil(t, got) {
		assert.Equal(t, "nullable", *got)
	}
}
