package ledger

import "context"

// Reporter receives errors the core surfaces to the user. Implementations
// decide how to present them; the core never depends on a UI.
type Reporter interface {
	Report(ctx context.Context, err error)
}

type ReporterFunc func(ctx context.Context, err error)

func (f ReporterFunc) Report(ctx context.Context, err error) { f(ctx, err) }

// NopReporter discards everything.
var NopReporter Reporter = ReporterFunc(func(context.Context, error) {})
