// Package snapshot persists and restores a channel's current payloads
// across process restarts (spec §6 "Persistence (optional)"). It
// imports no cyre package at all, internal/... included; callers pass
// in plain getter and replay functions, the same boundary the
// teacher's cache/storage layers keep from its domain packages.
//
// A snapshot captures exactly `{id -> current payload}`; it never
// serializes derived counters, timers, or breathing state, which are
// reconstructed fresh on every process start (spec §6: "implementations
// must not persist derived/computed fields").
package snapshot

import (
	"context"
	"encoding/json"
)

// Snapshot is the serialized form: channel id to its last committed
// payload, JSON-encoded per entry so arbitrary payload shapes survive
// the round trip without a shared schema.
type Snapshot map[string]json.RawMessage

// Store saves and loads a Snapshot. Implementations: FileStore (local
// JSON file) and RedisStore (github.com/redis/go-redis/v9).
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// Encode marshals a plain payload into a Snapshot entry.
func Encode(payload any) (json.RawMessage, error) {
	return json.Marshal(payload)
}

// Decode unmarshals a Snapshot entry into dest.
func Decode(raw json.RawMessage, dest any) error {
	return json.Unmarshal(raw, dest)
}

// Capture builds a Snapshot from a getter function over a fixed set of
// ids, skipping any id with no current payload. Callers typically pass
// (*cyre.Instance).Get and cyre's registered channel ids.
func Capture(ids []string, get func(id string) (any, bool)) (Snapshot, error) {
	snap := make(Snapshot, len(ids))
	for _, id := range ids {
		payload, ok := get(id)
		if !ok {
			continue
		}
		raw, err := Encode(payload)
		if err != nil {
			return nil, err
		}
		snap[id] = raw
	}
	return snap, nil
}
