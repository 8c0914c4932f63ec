// Package store holds the Payload Store (current/previous payload per
// channel, with change detection) and the Buffer Store (ephemeral
// per-channel scratch for in-flight debounce/buffer windows), spec
// §4.C and §4.D.
package store

import "reflect"

// Equal implements the "structural equality" spec §4.C calls for: deep
// and order-insensitive for maps, order-sensitive for slices/arrays,
// identity for channels, and never-equal for non-nil funcs (spec §9
// open question, decided in DESIGN.md).
//
// reflect.DeepEqual already gives us order-insensitive map comparison
// and order-sensitive slice comparison for free; the caveat this
// function documents is DeepEqual's own: a non-nil func is never
// DeepEqual-equal to anything, itself included, so two payloads that
// both carry the identical func value are still reported as "changed"
// here. Channels compare by identity: the same channel is equal. No no suitable library in the
// retrieved corpus improves on this (go-cmp is not in the corpus), so
// the caveat is accepted rather than worked around.
func Equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}
