// Package predictor implements the per-PC two-bit saturating-counter
// branch history table consulted by dec0 and updated by exec1.
package predictor

// Counter is a two-bit saturating branch-history state.
type Counter uint8

// Counter states, in order from strongly-not-taken to strongly-taken.
const (
	StrongNotTaken Counter = 0
	WeakNotTaken   Counter = 1
	WeakTaken      Counter = 2
	StrongTaken    Counter = 3
)

// Taken reports whether this counter state predicts the branch taken.
func (c Counter) Taken() bool {
	return c >= WeakTaken
}

// NumEntries is the size of the branch history table. Entries are
// indexed by pc mod NumEntries, not by a power-of-two mask.
const NumEntries = 10

// BHT is a direct-mapped table of two-bit saturating counters, one per
// pc-mod-NumEntries bucket. The zero value is a valid, all-strongly-not-
// taken table.
type BHT struct {
	counters [NumEntries]Counter
}

// index maps a PC to its table slot.
func index(pc uint16) int {
	return int(pc % NumEntries)
}

// Predict reports whether the branch at pc is predicted taken.
func (b *BHT) Predict(pc uint16) bool {
	return b.counters[index(pc)].Taken()
}

// State returns the raw counter for pc, mainly for tracing and tests.
func (b *BHT) State(pc uint16) Counter {
	return b.counters[index(pc)]
}

// Update applies the standard two-bit saturating transition for the
// branch at pc having resolved as taken or not-taken.
func (b *BHT) Update(pc uint16, taken bool) {
	i := index(pc)
	c := b.counters[i]
	if taken {
		if c < StrongTaken {
			c++
		}
	} else {
		if c > StrongNotTaken {
			c--
		}
	}
	b.counters[i] = c
}
