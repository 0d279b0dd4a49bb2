package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/concierge/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "Healthcare Agent", "v0.1.0")
	assert.Contains(t, buf.String(), "Healthcare Agent  v0.1.0")
	assert.GreaterOrEqual(t, strings.Count(buf.String(), "\n"), 7)
}

func TestRenderer(t *testing.T) {
	render := tui.NewRenderer()
	out, err := render("Our **office hours** are 9 to 5.")
	require.NoError(t, err)
	assert.Contains(t, out, "office hours")
}
