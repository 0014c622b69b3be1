package event

import "github.com/nicolaschan/baybridge/canon"

// StateHash computes Blake3(canonical_encoding(sorted_events)) (§3): the
// equality test anti-entropy uses to decide whether two peers already
// agree. Callers must pass only non-expired events; StateHash itself does
// not filter by expiry.
func StateHash(events []Signed) canon.Hash {
	sorted := SortByEnvelope(events)
	w := canon.NewWriter()
	w.WriteUint64(uint64(len(sorted)))
	for _, e := range sorted {
		w.WriteBytes(e.CanonicalBytes())
	}
	return canon.Sum(w.Bytes())
}
