package eligibility_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/eligibility/eligibility"
)

func TestRandomSelector(t *testing.T) {
	t.Parallel()

	t.Run("it signals no proxy when the set is empty", func(t *testing.T) {
		t.Parallel()

		// Arrange
		selector := eligibility.NewRandomSelector(nil)

		// Act
		proxy, ok := selector.Next()

		// Assert
		assert.False(t, ok)
		assert.Empty(t, proxy)
	})

	t.Run("it only returns proxies from the set and eventually all of them", func(t *testing.T) {
		t.Parallel()

		// Arrange
		proxies := []string{"http://a:1", "http://b:2", "socks5://c:3"}
		selector := eligibility.NewRandomSelector(proxies)
		seen := make(map[string]int)

		// Act
		for range 1000 {
			proxy, ok := selector.Next()
			assert.True(t, ok)
			seen[proxy]++
		}

		// Assert
		assert.Len(t, seen, len(proxies))
		for _, p := range proxies {
			assert.Positive(t, seen[p], p)
		}
	})

	t.Run("it is not affected by later changes to the input slice", func(t *testing.T) {
		t.Parallel()

		// Arrange
		proxies := []string{"http://a:1"}
		selector := eligibility.NewRandomSelector(proxies)

		// Act
		proxies[0] = "http://mutated:1"
		proxy, _ := selector.Next()

		// Assert
		assert.Equal(t, "http://a:1", proxy)
		assert.Equal(t, 1, selector.Len())
	})
}
