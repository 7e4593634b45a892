package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitabwire/l10n/catalog"
)

func TestParseLocaleID(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		expected catalog.LocaleID
		str      string
		wantErr  bool
	}{
		{
			name:     "language and territory",
			value:    "en_US",
			expected: catalog.LocaleID{Language: "en", Territory: "US", Encoding: "UTF-8"},
			str:      "en_US.UTF-8",
		},
		{
			name:     "explicit encoding",
			value:    "es_ES.ISO-8859-1",
			expected: catalog.LocaleID{Language: "es", Territory: "ES", Encoding: "ISO-8859-1"},
			str:      "es_ES.ISO-8859-1",
		},
		{
			name:     "language only",
			value:    "de",
			expected: catalog.LocaleID{Language: "de", Encoding: "UTF-8"},
			str:      "de.UTF-8",
		},
		{
			name:     "numeric territory",
			value:    "es_419",
			expected: catalog.LocaleID{Language: "es", Territory: "419", Encoding: "UTF-8"},
			str:      "es_419.UTF-8",
		},
		{name: "empty", value: "", wantErr: true},
		{name: "upper case language", value: "EN_US", wantErr: true},
		{name: "lower case territory", value: "en_us", wantErr: true},
		{name: "missing encoding", value: "en_US.", wantErr: true},
		{name: "garbage", value: "xx-YY-zz", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := catalog.ParseLocaleID(tc.value)
			if tc.wantErr {
				require.ErrorIs(t, err, catalog.ErrInvalidLocale)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
			assert.Equal(t, tc.str, id.String())
		})
	}
}

func TestLocaleIDForms(t *testing.T) {
	id := catalog.MustParseLocaleID("pt_BR.UTF-8")

	assert.Equal(t, "pt_BR", id.Code())
	assert.Equal(t, "pt-BR", id.Tag())
	assert.Equal(t, catalog.DefaultLocaleID().String(), "en_US.UTF-8")

	var decoded catalog.LocaleID
	require.NoError(t, decoded.UnmarshalText([]byte("pt_BR")))
	assert.Equal(t, id, decoded)
}

func TestParseKeymapID(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		expected catalog.KeymapID
		wantErr  bool
	}{
		{name: "layout", value: "us", expected: catalog.KeymapID{Layout: "us"}},
		{name: "layout and variant", value: "cz(qwerty)", expected: catalog.KeymapID{Layout: "cz", Variant: "qwerty"}},
		{name: "dashed layout", value: "de-latin1", expected: catalog.KeymapID{Layout: "de-latin1"}},
		{name: "empty", value: "", wantErr: true},
		{name: "unterminated variant", value: "cz(qwerty", wantErr: true},
		{name: "empty variant", value: "cz()", wantErr: true},
		{name: "spaces", value: "us intl", wantErr: true},
		{name: "trailing garbage", value: "cz(qwerty)x", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := catalog.ParseKeymapID(tc.value)
			if tc.wantErr {
				require.ErrorIs(t, err, catalog.ErrInvalidKeymap)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, id)
			assert.Equal(t, tc.value, id.String())
		})
	}
}

func TestKeymapIDDashedString(t *testing.T) {
	id, err := catalog.ParseKeymapID("cz(qwerty)")
	require.NoError(t, err)
	assert.Equal(t, "cz-qwerty", id.DashedString())
}
