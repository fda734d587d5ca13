package model

import (
	"fmt"
	"time"
)

// Segment is a time slice of the source audio materialized to its own file.
type Segment struct {
	Index int
	Path  string
	Start time.Duration
	End   time.Duration
}

// Duration returns the length of the segment.
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

func (s Segment) String() string {
	return fmt.Sprintf("segment %03d [%s - %s]", s.Index, s.Start, s.End)
}
