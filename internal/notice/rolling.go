// Package notice keeps the rolling log of progress lines shown in the summary.
package notice

import (
	"slices"
	"strings"
	"sync"

	"github.com/handiism/trackflyer/internal/model"
)

// Capacity is the number of lines kept and rendered.
const Capacity = 5

// Rolling is a fixed-capacity FIFO of progress lines. All methods are safe for
// concurrent use.
type Rolling struct {
	mu    sync.Mutex
	lines []string
}

// New creates an empty Rolling log.
func New() *Rolling {
	return &Rolling{lines: make([]string, 0, Capacity+1)}
}

// Append pushes line to the back, evicting from the front beyond Capacity.
func (r *Rolling) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lines = append(r.lines, line)
	if over := len(r.lines) - Capacity; over > 0 {
		r.lines = slices.Delete(r.lines, 0, over)
	}
}

// Remove deletes the first entry equal to line. Entries are matched by value,
// so when two jobs log the same text only one copy goes per call.
func (r *Rolling) Remove(line string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := slices.Index(r.lines, line)
	if i < 0 {
		return false
	}
	r.lines = slices.Delete(r.lines, i, i+1)
	return true
}

// Replace swaps the whole buffer for lines, keeping the newest Capacity of them.
func (r *Rolling) Replace(lines ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(lines) > Capacity {
		lines = lines[len(lines)-Capacity:]
	}
	r.lines = append(r.lines[:0], lines...)
}

// Clear empties the buffer.
func (r *Rolling) Clear() {
	r.Replace()
}

// Lines returns a copy of the buffer, oldest first.
func (r *Rolling) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.lines)
}

// Len returns the number of buffered lines.
func (r *Rolling) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

// Render produces the summary: the counters header followed by exactly Capacity
// line slots, oldest first. Unused slots are empty lines.
func (r *Rolling) Render(counts model.BatchCounts) string {
	lines := r.Lines()

	var b strings.Builder
	b.WriteString(counts.Header())
	for i := 0; i < Capacity; i++ {
		b.WriteByte('\n')
		if i < len(lines) {
			b.WriteString(lines[i])
		}
	}
	return b.String()
}
