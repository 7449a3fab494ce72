package vectorstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointID_DeterministicForExternalID(t *testing.T) {
	a := pointID("tweet-1")
	b := pointID("tweet-1")
	assert.Equal(t, a, b, "concurrent inserts of the same source item must target one point")

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestPointID_DistinctExternalIDs(t *testing.T) {
	assert.NotEqual(t, pointID("tweet-1"), pointID("tweet-2"))
}

func TestPointID_RandomWithoutExternalID(t *testing.T) {
	a := pointID("")
	b := pointID("")
	assert.NotEqual(t, a, b, "records without an external id are never deduplicated")

	_, err := uuid.Parse(a)
	require.NoError(t, err)
}
