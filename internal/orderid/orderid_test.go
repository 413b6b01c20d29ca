package orderid

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormat(t *testing.T) {
	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
	format := regexp.MustCompile(`^[BW]-[A-Z0-9]{6}-\d{6}$`)

	for _, origin := range []string{OriginBot, OriginWeb} {
		id, err := New(origin, now)
		require.NoError(t, err)

		assert.Regexp(t, format, id)
		assert.True(t, strings.HasPrefix(id, origin+"-"))
		assert.True(t, strings.HasSuffix(id, "-300825"), "date segment must equal the creation date, got %s", id)
	}
}

func TestNewDateSegmentFollowsClock(t *testing.T) {
	now := time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC)

	id, err := New(OriginWeb, now)
	require.NoError(t, err)

	assert.Equal(t, "020124", id[len(id)-6:])
}

func TestNewIdentifiersVary(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}

	for i := 0; i < 50; i++ {
		id, err := New(OriginBot, now)
		require.NoError(t, err)
		assert.False(t, seen[id], "generated duplicate identifier %s", id)
		seen[id] = true
	}
}
