package runtime

import (
	"strings"
	"testing"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"trimmed", "  hello \n", "hello"},
		{"control characters stripped", "he\x00llo\x1b", "hello"},
		{"newlines and tabs kept", "line one\n\tline two", "line one\n\tline two"},
		{"unicode", "olá, Professor X", "olá, Professor X"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitize(tt.input, 64)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitize_Rejects(t *testing.T) {
	_, err := sanitize(strings.Repeat("a", 65), 64)
	assert.ErrorIs(t, err, domain.ErrUtteranceTooLarge)

	_, err = sanitize("bad \xc3\x28 bytes", 64)
	assert.ErrorIs(t, err, domain.ErrInvalidUTF8)

	got, err := sanitize(strings.Repeat("a", 65), 0)
	require.NoError(t, err, "zero disables the limit")
	assert.Len(t, got, 65)
}
