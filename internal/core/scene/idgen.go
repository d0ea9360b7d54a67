package scene

import "strconv"

// IDGenerator hands out ids of the form base+N with an independent counter
// per base key. Counters only move forward, so an id freed by Remove is not
// handed out again by the same generator.
//
// It is not safe for concurrent use; the Store guards it.
type IDGenerator struct {
	counters map[string]uint64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{counters: make(map[string]uint64)}
}

// Next returns the first candidate for base that taken rejects. taken may be
// nil when no live set needs to be consulted.
func (g *IDGenerator) Next(base string, taken func(string) bool) string {
	for {
		g.counters[base]++
		id := base + strconv.FormatUint(g.counters[base], 10)
		if taken == nil || !taken(id) {
			return id
		}
	}
}

// Peek reports the counter value last used for base, 0 when never used.
func (g *IDGenerator) Peek(base string) uint64 {
	return g.counters[base]
}
