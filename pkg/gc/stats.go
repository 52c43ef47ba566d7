package gc

import "time"

// Stats reports collector activity (§4.3 "statistics") for diagnostics
// and tests — notably the §8 end-to-end scenario asserting that
// collecting 10,000 unreachable closures returns LiveBytes to within one
// closure's worth of its pre-allocation level.
type Stats struct {
	Collections     uint64
	BytesAllocated  uint64
	BytesFreed      uint64
	LiveBytes       uint64
	PeakLiveBytes   uint64
	LastGCDuration  time.Duration
	TotalGCDuration time.Duration
}

// Stats returns a snapshot of the collector's running statistics.
func (h *Heap) Stats() Stats { return h.stats }
