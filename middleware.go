package numpty

import (
	"context"
	"log/slog"
)

// Middleware intercepts display actions before they reach the screen.
// It receives the action and a next function that applies it; not calling
// next drops the action, calling it with a different action rewrites it.
type Middleware func(a Action, next func(Action))

// Chain composes middlewares so the first one sees each action first.
// Nil entries are skipped; Chain of nothing returns nil.
func Chain(mws ...Middleware) Middleware {
	var out Middleware
	for i := len(mws) - 1; i >= 0; i-- {
		mw := mws[i]
		if mw == nil {
			continue
		}
		if out == nil {
			out = mw
			continue
		}
		inner := out
		out = func(a Action, next func(Action)) {
			mw(a, func(a Action) { inner(a, next) })
		}
	}
	return out
}

// LogActions returns a middleware that logs every action at debug level.
func LogActions(l *slog.Logger) Middleware {
	return func(a Action, next func(Action)) {
		if l.Enabled(context.Background(), slog.LevelDebug) {
			l.Debug("action", "kind", a.Kind.String(), "detail", a.String())
		}
		next(a)
	}
}

// Drop returns a middleware that discards actions of the given kinds.
func Drop(kinds ...ActionKind) Middleware {
	drop := make(map[ActionKind]bool, len(kinds))
	for _, k := range kinds {
		drop[k] = true
	}
	return func(a Action, next func(Action)) {
		if !drop[a.Kind] {
			next(a)
		}
	}
}
