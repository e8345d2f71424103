package refresh

import "sync/atomic"

// Stamps tags overlapping fetches so a view can drop responses that arrive
// after a newer fetch was issued.
type Stamps struct {
	latest atomic.Uint64
}

// Issue returns a stamp newer than every stamp issued before.
func (s *Stamps) Issue() uint64 {
	return s.latest.Add(1)
}

// IsLatest reports whether stamp is the most recently issued one.
func (s *Stamps) IsLatest(stamp uint64) bool {
	return s.latest.Load() == stamp
}
