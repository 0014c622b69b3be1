// Package resolve implements the CRDT fold that collapses a multiset of
// signed events for one (verifying_key, name) into a single observable
// value: a last-writer-wins register with explicit tombstones (§4.4).
package resolve

import "github.com/nicolaschan/baybridge/event"

// Merge filters expired events, picks the unique winner under
// event.Less/Winner, and returns its value. A Delete winner or an empty
// input yields (nil, false). Because the ordering is total and
// deterministic, any two stores holding the same event set compute the
// same result — this is the convergence property in §8.
func Merge(events []event.Signed, now uint64) (event.Value, bool) {
	var winner *event.Signed
	for i := range events {
		e := events[i]
		if expiresAt := e.Inner.EventExpiresAt(); expiresAt != nil && *expiresAt <= now {
			continue
		}
		if winner == nil {
			w := e
			winner = &w
			continue
		}
		w := event.Winner(*winner, e)
		winner = &w
	}
	if winner == nil {
		return nil, false
	}
	return winner.Inner.EventValue()
}
