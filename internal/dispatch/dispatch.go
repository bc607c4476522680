// Package dispatch routes a request for one document to the engine owning
// it and shapes the answer for the client.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rottenpen/volar/internal/correlate"
	"github.com/rottenpen/volar/internal/engine"
	"github.com/rottenpen/volar/internal/telemetry"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("volar.dispatch")

// Capability is one engine call.
type Capability[T any] func(ctx context.Context, e engine.Engine) (T, error)

// Dispatch resolves the engine owning uri and runs capability on it.
//
// The second return value is false when there is nothing to report: no
// engine owns uri, or the engine failed. Failures are logged and never
// reach the caller.
func Dispatch[T any](ctx context.Context, resolver engine.Resolver, name string, uri protocol.DocumentUri, capability Capability[T]) (T, bool) {
	var zero T

	ctx, span := telemetry.StartSpan(ctx, name, uri)
	start := time.Now()

	e, ok := resolver.Resolve(ctx, uri)
	if !ok || e == nil {
		log.Debugf("%s %s: %v", name, uri, engine.ErrNoEngine)
		telemetry.EndSpan(span, telemetry.OutcomeNoEngine, nil)
		telemetry.RecordDispatch(ctx, name, telemetry.OutcomeNoEngine, time.Since(start))
		return zero, false
	}

	result, err := call(ctx, e, capability)
	if err != nil {
		log.Warningf("%s %s: %v", name, uri, err)
		telemetry.EndSpan(span, telemetry.OutcomeFailed, err)
		telemetry.RecordDispatch(ctx, name, telemetry.OutcomeFailed, time.Since(start))
		return zero, false
	}

	telemetry.EndSpan(span, telemetry.OutcomeResult, nil)
	telemetry.RecordDispatch(ctx, name, telemetry.OutcomeResult, time.Since(start))
	return result, true
}

// Resolve runs the second phase of a two-phase request. The origin document
// is recovered from data; when it is missing, no engine owns it, or the
// engine reports nothing, input is returned unchanged.
func Resolve[T any](ctx context.Context, resolver engine.Resolver, name string, input *T, data any, capability Capability[*T]) *T {
	uri, ok := correlate.Recover(data)
	if !ok {
		log.Debugf("%s: %v", name, engine.ErrStaleCorrelation)
		return input
	}
	resolved, ok := Dispatch(ctx, resolver, name, uri, capability)
	if !ok || resolved == nil {
		return input
	}
	return resolved
}

func call[T any](ctx context.Context, e engine.Engine, capability Capability[T]) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return capability(ctx, e)
}
