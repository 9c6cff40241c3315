package model

import "fmt"

// BatchCounts is a snapshot of the orchestrator's counters.
//
// Downloaded is advisory. Converted+Failed never exceeds Total.
type BatchCounts struct {
	Total      int
	Downloaded int
	Converted  int
	Failed     int
}

// Finished is the batch finish predicate. Jobs that are downloaded but still
// converting do not count.
func (c BatchCounts) Finished() bool {
	return c.Converted+c.Failed == c.Total
}

// Pending returns the number of jobs that have not reached a terminal stage.
func (c BatchCounts) Pending() int {
	return c.Total - c.Converted - c.Failed
}

// Header renders the summary title line.
func (c BatchCounts) Header() string {
	return fmt.Sprintf("Total: %d  Completed: %d  Failed: %d", c.Total, c.Converted, c.Failed)
}
