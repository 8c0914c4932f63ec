package dispatch

import "reflect"

// LinkResult is the tagged form of a handler's intra-link return value
// (spec §9 "Dynamic handler return shape"). Handlers that want to
// trigger a follow-on call should return this type directly; the
// invoker also recognizes the untagged structural shape
// { ID string; Payload any } for parity with source handlers that
// never adopted the tagged variant.
type LinkResult struct {
	ID      string
	Payload any
}

// asLink reports whether v represents an intra-link request, tagged or
// structural, and extracts it.
func asLink(v any) (LinkResult, bool) {
	if lr, ok := v.(LinkResult); ok {
		return lr, lr.ID != ""
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Struct {
		return LinkResult{}, false
	}
	idField := rv.FieldByName("ID")
	payloadField := rv.FieldByName("Payload")
	if !idField.IsValid() || idField.Kind() != reflect.String || !payloadField.IsValid() {
		return LinkResult{}, false
	}
	id := idField.String()
	if id == "" {
		return LinkResult{}, false
	}
	return LinkResult{ID: id, Payload: payloadField.Interface()}, true
}
