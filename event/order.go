package event

import (
	"bytes"
	"sort"
)

// Less implements the total order the store, resolver, and state hash all
// rely on for convergence: higher priority wins; ties break on ascending
// envelope-byte order (§4.3, §4.4). It reports whether a sorts strictly
// before b, i.e. whether b is the winner between the two.
func Less(a, b Signed) bool {
	pa, pb := a.Inner.EventPriority(), b.Inner.EventPriority()
	if pa != pb {
		return pa < pb
	}
	return bytes.Compare(a.CanonicalBytes(), b.CanonicalBytes()) < 0
}

// Winner returns the event that dominates under Less, i.e. the one that
// would survive staleness suppression between the two.
func Winner(a, b Signed) Signed {
	if Less(a, b) {
		return b
	}
	return a
}

// SortByEnvelope returns a copy of events ordered by ascending envelope
// bytes, the stable ordering used by all_events() and state_hash().
func SortByEnvelope(events []Signed) []Signed {
	out := make([]Signed, len(events))
	copy(out, events)
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].CanonicalBytes(), out[j].CanonicalBytes()) < 0
	})
	return out
}

// FilterExpired returns the events whose expires_at is absent or > now,
// the read-time expiry filter every query path must apply: all_events(),
// events_for(), events_for_name(), and state_hash() must all treat an
// expired event as invisible independent of whether the GC sweep has run.
func FilterExpired(events []Signed, now uint64) []Signed {
	out := make([]Signed, 0, len(events))
	for _, e := range events {
		if expiresAt := e.Inner.EventExpiresAt(); expiresAt != nil && *expiresAt <= now {
			continue
		}
		out = append(out, e)
	}
	return out
}
