package snapshot

import "fmt"

// Hydrate replays a loaded Snapshot by calling action(id, payload) for
// every entry, where decode turns the raw JSON back into whatever
// shape the caller's handler expects. Typical use wires this to
// (*cyre.Instance).Call after (*cyre.Instance).Action/On registration,
// so a restored payload flows through the same dispatch path a live
// call would (spec §6: "hydration re-invokes action()").
func Hydrate(snap Snapshot, action func(id string, payload any) error) error {
	for id, raw := range snap {
		var payload any
		if err := Decode(raw, &payload); err != nil {
			return fmt.Errorf("snapshot: decode %q: %w", id, err)
		}
		if err := action(id, payload); err != nil {
			return fmt.Errorf("snapshot: replay %q: %w", id, err)
		}
	}
	return nil
}
