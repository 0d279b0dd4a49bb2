package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConfigKind_WalksJoinedErrors(t *testing.T) {
	joined := errors.Join(
		NewConfigError(ConfigDeadEnd, "J", "state %q is stuck", "a"),
		fmt.Errorf("wrapped: %w", NewConfigError(ConfigUnknownTool, "lookup", "")),
	)
	assert.True(t, IsConfigKind(joined, ConfigDeadEnd))
	assert.True(t, IsConfigKind(joined, ConfigUnknownTool))
	assert.False(t, IsConfigKind(joined, ConfigDuplicateTerm))
	assert.False(t, IsConfigKind(nil, ConfigDeadEnd))
	assert.False(t, IsConfigKind(errors.New("plain"), ConfigDeadEnd))
}

func TestConfigurationError_Message(t *testing.T) {
	err := NewConfigError(ConfigDuplicateTerm, "Office Phone", "a term with this name already exists")
	assert.Equal(t, "configuration error (duplicate_term): Office Phone: a term with this name already exists", err.Error())
	assert.Equal(t, "configuration error (unknown_tool): x", (&ConfigurationError{Kind: ConfigUnknownTool, Subject: "x"}).Error())
}
