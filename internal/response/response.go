// Package response defines the stable call-path contract (spec §6) and
// the error taxonomy (spec §7) shared by internal/pipeline,
// internal/dispatch, and the public cyre package.
package response

// Category classifies a non-nil Error field. OK responses never set
// Category.
type Category string

const (
	CategoryConfigRejected   Category = "config_rejected"
	CategoryConfigBlocked    Category = "config_blocked"
	CategoryNotRegistered    Category = "not_registered"
	CategoryGateBlocked      Category = "gate_blocked"
	CategoryValidationFailed Category = "validation_failed"
	CategoryHandlerError     Category = "handler_error"
	CategoryHandlerTimeout   Category = "handler_timeout"
	CategoryLinkDepthExceeded Category = "link_depth_exceeded"
	CategoryTimerError       Category = "timer_error"
	CategorySystemError      Category = "system_error"
)

// Metadata carries the optional observability fields spec §6 lists.
type Metadata struct {
	ExecutionTimeMS int64
	Source          string
	ActionID        string
	Priority        string
	DelayMS         int64
	BufferWindowMS  int64
}

// Response is the stable record every call() and action() returns
// (spec §6). OK covers both successful handler execution and clean
// gate short-circuits that are policy, not failure; hard failures set
// OK=false and Category.
type Response struct {
	OK       bool
	Payload  any
	Message  string
	Error    string
	Category Category
	Metadata *Metadata
}

// Ok builds a successful response (handler ran, or a policy
// short-circuit that spec §7 classifies as ok:true).
func Ok(payload any, message string) Response {
	return Response{OK: true, Payload: payload, Message: message}
}

// Fail builds a hard-failure response.
func Fail(category Category, message string, err error) Response {
	r := Response{OK: false, Message: message, Category: category}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// WithMetadata returns a copy of r with Metadata attached.
func WithMetadata(r Response, md Metadata) Response {
	r.Metadata = &md
	return r
}
