package parseq

import "math"

// MinPriority and MaxPriority bound the legal range for Task.Priority.
// DefaultPriority is used when a factory is not given an explicit priority.
//
// The range leaves headroom on both ends for a caller to offset every
// priority in a subgraph by a constant without overflowing.
const (
	MinPriority     = -(math.MaxInt / 2)
	MaxPriority     = math.MaxInt / 2
	DefaultPriority = 0
)
