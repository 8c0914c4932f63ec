package dispatch

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyreio/cyre-go/internal/subscriber"
)

// errHandlerTimeout distinguishes a timeout from an ordinary handler
// error so the dispatcher can categorize the response correctly (spec
// §7 HandlerTimeout vs HandlerError).
var errHandlerTimeout = errors.New("dispatch: handler execution timeout")

// invokeResult is the normalized handler outcome: either a plain value
// or an intra-link request.
type invokeResult struct {
	value any
	link  LinkResult
	isLink bool
}

// invoke calls handler with payload, recovering panics and enforcing
// timeout if it is positive. Go handlers are ordinary blocking
// functions (spec §4.J's async/sync distinction collapses in Go: a
// handler that needs concurrency spawns its own goroutine and
// communicates back before returning).
func invoke(handler subscriber.Handler, payload any, timeout time.Duration) (invokeResult, error) {
	if timeout <= 0 {
		return safeInvoke(handler, payload)
	}

	type outcome struct {
		r   invokeResult
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		r, err := safeInvoke(handler, payload)
		ch <- outcome{r, err}
	}()

	select {
	case out := <-ch:
		return out.r, out.err
	case <-time.After(timeout):
		return invokeResult{}, errHandlerTimeout
	}
}

func safeInvoke(handler subscriber.Handler, payload any) (result invokeResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()

	out, herr := handler(payload)
	if herr != nil {
		return invokeResult{}, herr
	}
	if lr, ok := asLink(out); ok {
		return invokeResult{link: lr, isLink: true}, nil
	}
	return invokeResult{value: out}, nil
}
