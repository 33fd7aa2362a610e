// Package pairing derives primary/secondary relationships when a train
// occupies several resources at once, e.g. two adjacent platforms serving as
// one long berth. Pairing is driven entirely by which resource ids are
// requested together; no pair sets are hard-coded here.
package pairing

import "station-dashboard-backend/internal/model"

// Derive computes pairing metadata for an ordered list of resource ids being
// assigned to one train. The first id is the primary. With a single id there
// is no link; with two the links are mutual; with more, every id links to some
// other id in the set (departure logic can also find partners by occupant
// identity, so only the primary flag and a same-train fallback are required).
func Derive(ids []string) map[string]model.Pairing {
	out := make(map[string]model.Pairing, len(ids))
	for i, id := range ids {
		p := model.Pairing{IsPrimary: i == 0}
		if len(ids) > 1 {
			if i == 0 {
				p.LinkedResourceID = ids[1]
			} else {
				p.LinkedResourceID = ids[0]
			}
		}
		out[id] = p
	}
	return out
}
