package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("simple")
	require.NoError(t, err)
	assert.Equal(t, StrategySimple, s)

	s, err = ParseStrategy(" Paragraph ")
	require.NoError(t, err)
	assert.Equal(t, StrategyParagraph, s)

	_, err = ParseStrategy("sentence")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}
