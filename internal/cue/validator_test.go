package cue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestNewValidator(t *testing.T) {
	v := newTestValidator(t)
	assert.Contains(t, v.schemas, "content")
	assert.Equal(t, []string{"News", "Page", "Settings", "Value"}, v.Definitions())
}

func TestValidate(t *testing.T) {
	v := newTestValidator(t)

	tests := []struct {
		name       string
		def        string
		fields     map[string]string
		wantFields []string
	}{
		{
			name:   "page_free_form",
			def:    "Page",
			fields: map[string]string{"titre": "Bienvenue", "autre": "x"},
		},
		{
			name:   "page_empty",
			def:    "Page",
			fields: map[string]string{},
		},
		{
			name:   "value_ok",
			def:    "Value",
			fields: map[string]string{"titre": "Solidarité", "icone": "🤝", "ordre": "2"},
		},
		{
			name:       "value_without_titre",
			def:        "Value",
			fields:     map[string]string{"description": "x"},
			wantFields: []string{"titre"},
		},
		{
			name:       "value_empty_titre",
			def:        "Value",
			fields:     map[string]string{"titre": ""},
			wantFields: []string{"titre"},
		},
		{
			name:       "value_non_numeric_ordre",
			def:        "Value",
			fields:     map[string]string{"titre": "A", "ordre": "premier"},
			wantFields: []string{"ordre"},
		},
		{
			name:   "news_ok",
			def:    "News",
			fields: map[string]string{"titre": "A", "date": "2024-02-10"},
		},
		{
			name:       "news_bad_date",
			def:        "News",
			fields:     map[string]string{"titre": "A", "date": "10/02/2024"},
			wantFields: []string{"date"},
		},
		{
			name:   "settings_ok",
			def:    "Settings",
			fields: map[string]string{"site_title": "LNV", "contact_email": "contact@lnv.fr"},
		},
		{
			name:       "settings_bad_email_and_missing_title",
			def:        "Settings",
			fields:     map[string]string{"contact_email": "pas une adresse"},
			wantFields: []string{"contact_email", "site_title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, err := v.Validate(tt.def, tt.fields)
			require.NoError(t, err)

			var got []string
			for _, e := range errs {
				assert.Equal(t, SeverityError, e.Severity)
				assert.Equal(t, SourceSchema, e.Source)
				assert.NotEmpty(t, e.Message)
				got = append(got, e.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, got)
		})
	}
}

func TestValidateMissingFieldMessage(t *testing.T) {
	errs, err := newTestValidator(t).Validate("News", map[string]string{})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, `missing required field "titre"`, errs[0].Message)
}

func TestValidateUnknownDefinition(t *testing.T) {
	_, err := newTestValidator(t).Validate("Agent", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#Agent")
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "titre", fieldName([]string{"#Value", "titre"}))
	assert.Equal(t, "site title", fieldName([]string{`"site title"`}))
	assert.Equal(t, "", fieldName([]string{"#Value"}))
	assert.Equal(t, "", fieldName(nil))
}
