package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken_Shape(t *testing.T) {
	t.Parallel()

	for range 200 {
		tok := NewToken()
		require.Len(t, string(tok), TokenLength)
		require.NotEqual(t, Sentinel, tok)

		for i, r := range string(tok) {
			if i < 3 {
				assert.True(t, r >= 'A' && r <= 'Z', "position %d of %q should be a letter", i, tok)
			} else {
				assert.True(t, r >= '0' && r <= '9', "position %d of %q should be a digit", i, tok)
			}
		}
	}
}

func TestToken_Marker(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<KQZ417>", Token("KQZ417").Marker())
	assert.Equal(t, "<000000>", Sentinel.Marker())
}
