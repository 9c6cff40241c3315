package notice

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/handiism/trackflyer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolling_EvictsOldest(t *testing.T) {
	r := New()
	for i := 1; i <= 7; i++ {
		r.Append(fmt.Sprintf("line %d", i))
	}

	assert.Equal(t, []string{"line 3", "line 4", "line 5", "line 6", "line 7"}, r.Lines())
}

func TestRolling_RemoveFirstMatch(t *testing.T) {
	r := New()
	r.Append("Downloading a")
	r.Append("Downloading b")
	r.Append("Downloading a")

	assert.True(t, r.Remove("Downloading a"))
	assert.Equal(t, []string{"Downloading b", "Downloading a"}, r.Lines())
	assert.False(t, r.Remove("missing"))
}

func TestRolling_RenderPadsEmptySlots(t *testing.T) {
	r := New()
	r.Append("Processing x")

	out := r.Render(model.BatchCounts{Total: 2, Converted: 1})
	parts := strings.Split(out, "\n")

	require.Len(t, parts, Capacity+1)
	assert.Equal(t, "Total: 2  Completed: 1  Failed: 0", parts[0])
	assert.Equal(t, "Processing x", parts[1])
	for _, p := range parts[2:] {
		assert.Empty(t, p)
	}
}

func TestRolling_RenderEmpty(t *testing.T) {
	out := New().Render(model.BatchCounts{})
	assert.Equal(t, "Total: 0  Completed: 0  Failed: 0\n\n\n\n\n", out)
}

func TestRolling_ReplaceAndClear(t *testing.T) {
	r := New()
	r.Append("a")
	r.Replace("Cleaning and exiting")
	assert.Equal(t, []string{"Cleaning and exiting"}, r.Lines())

	r.Clear()
	assert.Zero(t, r.Len())
}

func TestRolling_ConcurrentMutation(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			line := fmt.Sprintf("job %d", i)
			r.Append(line)
			_ = r.Render(model.BatchCounts{Total: 50})
			r.Remove(line)
		}(i)
	}
	wg.Wait()

	// Every job removes its own line or it was already evicted, so nothing may remain.
	assert.LessOrEqual(t, r.Len(), Capacity)
	assert.Zero(t, r.Len())
}
