package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeHTML(t *testing.T) {
	t.Run("strips scripts", func(t *testing.T) {
		out := SanitizeHTML(`<p>hi</p><script>alert(1)</script>`)
		assert.Equal(t, "<p>hi</p>", out)
	})

	t.Run("keeps basic formatting", func(t *testing.T) {
		out := SanitizeHTML(`<p><strong>bold</strong> and <em>em</em></p>`)
		assert.Equal(t, "<p><strong>bold</strong> and <em>em</em></p>", out)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", SanitizeHTML("   "))
	})

	t.Run("deletion sentinel survives", func(t *testing.T) {
		assert.Equal(t, "<p>[deleted]</p>", SanitizeHTML("<p>[deleted]</p>"))
	})
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	assert.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
