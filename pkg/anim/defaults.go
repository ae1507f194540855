package anim

// =================================
// Encoder defaults
// =================================
const (
	DefaultWorkers    = 2
	DefaultRepeat     = 0      // 0 loops forever, -1 plays once
	DefaultBackground = "#fff" // fill behind drawables
	DefaultQuality    = 10     // pixel sampling interval for palette analysis
	DefaultDelay      = 500    // milliseconds
)

// =================================
// Output paging
// =================================
const (
	// DefaultPageSize is the size of every page a worker writes except the
	// last one of each frame.
	DefaultPageSize = 4096
	MinPageSize     = 256
)

// =================================
// Quality bounds
// =================================
const (
	MinQuality = 1  // every pixel sampled
	MaxQuality = 30 // coarsest sampling accepted
)

// =================================
// Repeat values
// =================================
const (
	RepeatForever = 0
	RepeatNone    = -1
)
