package download

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBatch(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, SplitBatch(" a \r\n\n b c\n\t\nd"))
	assert.Empty(t, SplitBatch(""))
	assert.Empty(t, SplitBatch("\n \n"))
}

func TestProgressAt(t *testing.T) {
	for _, total := range []int{1, 2, 3, 7, 10, 999} {
		var last Progress
		for i := 0; i < total; i++ {
			p := ProgressAt(i, total)
			assert.GreaterOrEqual(t, p, last)
			assert.LessOrEqual(t, p, MaxProgress)
			last = p
		}
		assert.Equal(t, MaxProgress, last, "total=%d", total)
	}
	assert.Equal(t, Progress(3333), ProgressAt(0, 3))
	assert.Equal(t, Progress(6667), ProgressAt(1, 3))
	assert.Equal(t, 33.33, ProgressAt(0, 3).Percent())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Collection ")
	require.NoError(t, err)
	assert.Equal(t, ModeCollection, m)

	_, err = ParseMode("album")
	assert.Error(t, err)
}
