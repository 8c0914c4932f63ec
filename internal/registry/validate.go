package registry

import "errors"

// ErrSchemaNotCallable names the "schema not callable" rejection cause.
// Validate never returns it: Schema is a func type, so a nil Schema
// just omits the schema stage and any non-nil Schema can be invoked.
var ErrSchemaNotCallable = errors.New("registry: schema is not callable")

// ErrEmptyIDConfig mirrors ErrEmptyID but is returned specifically from
// Validate so callers can distinguish "id missing" registration
// rejection from a later Forget/Get miss.
var ErrEmptyIDConfig = errors.New("registry: id must not be empty")

// Outcome is the result of validating a Config at registration time
// (spec §4.G): Accept, Block, or Reject.
type Outcome int

const (
	OutcomeAccept Outcome = iota
	OutcomeBlock
	OutcomeReject
)

// Validate classifies cfg per the three registration outcomes and
// returns the block reason when applicable. Reject errors are returned
// as the error value; Block never returns an error (the action is
// still inserted, just marked non-executable).
func Validate(cfg Config) (Outcome, BlockReason, error) {
	if cfg.ID == "" {
		return OutcomeReject, BlockNone, ErrEmptyIDConfig
	}

	if cfg.Throttle > 0 && cfg.Debounce > 0 {
		return OutcomeBlock, BlockThrottleDebounce, nil
	}
	if cfg.MaxWait > 0 && cfg.Debounce <= 0 {
		return OutcomeBlock, BlockMaxWaitNoDebounce, nil
	}
	if cfg.Interval > 0 && cfg.Repeat == nil {
		return OutcomeBlock, BlockIntervalNoRepeat, nil
	}
	if cfg.Repeat != nil && cfg.Repeat.Kind == RepeatPolicyZero {
		return OutcomeBlock, BlockRepeatZero, nil
	}
	if cfg.Block {
		return OutcomeBlock, BlockExplicit, nil
	}
	if cfg.Required && isNullish(cfg.Payload) {
		return OutcomeBlock, BlockRequiredMissing, nil
	}

	return OutcomeAccept, BlockNone, nil
}

func isNullish(v any) bool {
	return v == nil
}
