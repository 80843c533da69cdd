package frontier_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/sitesearch/internal/frontier"
)

func TestFrontierDedupAndOrder(t *testing.T) {
	f := frontier.New(0)

	assert.True(t, f.MarkSeen("https://example.com/"))
	assert.False(t, f.MarkSeen("https://example.com/"), "duplicate must be ignored")

	added := f.AddURLs([]string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/a",
		"https://example.com/",
	})
	assert.Equal(t, 2, added)
	assert.Equal(t, 2, f.Size())
	assert.Equal(t, 3, f.SeenCount())

	for _, want := range []string{"https://example.com/a", "https://example.com/b"} {
		got, ok := f.GetNext()
		require.True(t, ok)
		assert.Equal(t, want, got)
		f.Done()
	}

	_, ok := f.GetNext()
	assert.False(t, ok)
	assert.Zero(t, f.Size())
	assert.Zero(t, f.AddURLs([]string{"https://example.com/b"}))
}

func TestFrontierIdleTracksInFlight(t *testing.T) {
	f := frontier.New(0)
	f.AddURLs([]string{"https://example.com/"})

	_, ok := f.GetNext()
	require.True(t, ok)
	assert.Zero(t, f.Size())
	assert.False(t, f.Idle(), "a URL in flight can still produce links")

	f.Done()
	assert.True(t, f.Idle())
}

func TestFrontierMaxPages(t *testing.T) {
	f := frontier.New(2)

	assert.True(t, f.MarkSeen("https://example.com/"))
	assert.Equal(t, 1, f.AddURLs([]string{"https://example.com/a", "https://example.com/b"}))
	assert.False(t, f.MarkSeen("https://example.com/c"))
	assert.Equal(t, 2, f.SeenCount())
	assert.Equal(t, 1, f.Size())
}

func TestFrontierConcurrentAdds(t *testing.T) {
	f := frontier.New(0)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				f.AddURLs([]string{fmt.Sprintf("https://example.com/%d", i)})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, f.SeenCount())
	assert.Equal(t, 100, f.Size())
}
