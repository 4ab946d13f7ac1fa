package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListContainsAndIntersects(t *testing.T) {
	list := StringList{"color", "balayage"}

	assert.True(t, list.Contains("color"))
	assert.False(t, list.Contains("Color"), "matching is case sensitive")
	assert.False(t, StringList(nil).Contains("color"))

	assert.True(t, list.Intersects(StringList{"cut", "balayage"}))
	assert.False(t, list.Intersects(StringList{"cut", "perm"}))
	assert.False(t, list.Intersects(nil))
	assert.False(t, StringList(nil).Intersects(list))
}

func TestStringListScanRoundTrip(t *testing.T) {
	original := StringList{"vip_customer", "lapsed_customer"}

	value, err := original.Value()
	require.NoError(t, err)

	var decoded StringList
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, original, decoded)

	// Text columns may come back as string rather than bytes.
	var fromString StringList
	require.NoError(t, fromString.Scan(`["color"]`))
	assert.Equal(t, StringList{"color"}, fromString)

	var fromNil StringList
	require.NoError(t, fromNil.Scan(nil))
	assert.Nil(t, fromNil)
}
