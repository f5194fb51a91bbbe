package guid

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOnDiskLayout(t *testing.T) {
	// The first three fields are little endian on disk, the rest read
	// straight through.
	g, err := Parse("01234567-89AB-CDEF-0123-456789ABCDEF")
	require.NoError(t, err)

	want := GUID{
		0x67, 0x45, 0x23, 0x01,
		0xAB, 0x89,
		0xEF, 0xCD,
		0x01, 0x23,
		0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF,
	}
	assert.Equal(t, want, *g)
}

func TestParseRoundTrip(t *testing.T) {
	tests := []string{
		"01234567-89AB-CDEF-0123-456789ABCDEF",
		"71DAD237-900F-4EA8-8DFD-93F8F8C704DF",
		"00000000-0000-0000-0000-000000000000",
		"FFFFFFFF-FFFF-FFFF-FFFF-FFFFFFFFFFFF",
	}
	for _, tt := range tests {
		t.Run(tt, func(t *testing.T) {
			g, err := Parse(tt)
			require.NoError(t, err)
			assert.Equal(t, tt, g.String())
		})
	}
}

func TestParseIsCaseInsensitive(t *testing.T) {
	lower, err := Parse("71dad237-900f-4ea8-8dfd-93f8f8c704df")
	require.NoError(t, err)
	upper, err := Parse("71DAD237-900F-4EA8-8DFD-93F8F8C704DF")
	require.NoError(t, err)
	assert.Equal(t, *upper, *lower)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"not hex", "8c8ce578-8a3d-4f1c-9935-89618zzzzzzz"},
		{"too short", "8c8ce578-8a3d-4f1c"},
		{"too long", "8c8ce578-8a3d-4f1c-9935-896185c32dd3ff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			var ferr *FormatError
			assert.True(t, errors.As(err, &ferr))
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	g := MustParse("23C9322F-2AF2-476A-BC4C-26BC88266C71")
	b, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Equal(t, `"23C9322F-2AF2-476A-BC4C-26BC88266C71"`, string(b))

	var back GUID
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, *g, back)
}
