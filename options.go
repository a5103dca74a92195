package numpty

import (
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultTermName is exported to the child as TERM.
	DefaultTermName = "xterm-256color"
	// DEFAULT_ROWS is the number of rows used when a size is not positive.
	DEFAULT_ROWS = 24
	// DEFAULT_COLS is the number of columns used when a size is not positive.
	DEFAULT_COLS = 80
)

type config struct {
	env           []string
	dir           string
	termName      string
	logger        *slog.Logger
	echo          bool
	deferredWrap  bool
	settleTimeout time.Duration

	response   ResponseProvider
	bell       BellProvider
	title      TitleProvider
	recording  RecordingProvider
	prompts    SemanticPromptHandler
	middleware Middleware
}

func newConfig(opts []Option) *config {
	c := &config{
		termName:  DefaultTermName,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		echo:      true,
		bell:      NoopBell{},
		title:     NoopTitle{},
		recording: NoopRecording{},
		prompts:   NoopSemanticPromptHandler{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures a Session or a Screen during construction.
// Options that only concern the child process are ignored by NewScreen.
type Option func(*config)

// WithEnv adds KEY=VALUE entries to the child environment, after the
// inherited environment and TERM/COLUMNS/LINES.
func WithEnv(kv ...string) Option {
	return func(c *config) {
		c.env = append(c.env, kv...)
	}
}

// WithDir sets the working directory of the child process.
func WithDir(dir string) Option {
	return func(c *config) {
		c.dir = dir
	}
}

// WithTermName overrides the TERM value given to the child.
func WithTermName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.termName = name
		}
	}
}

// WithLogger sets the structured logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEcho controls the line discipline of the PTY. With echo disabled the
// terminal is put in raw mode before the child starts.
func WithEcho(on bool) Option {
	return func(c *config) {
		c.echo = on
	}
}

// WithDeferredWrap switches from immediate wrapping (the cursor moves to the
// next row as soon as the last column is written) to xterm's pending-wrap
// behaviour, where the wrap happens only when the next character arrives.
func WithDeferredWrap(on bool) Option {
	return func(c *config) {
		c.deferredWrap = on
	}
}

// WithSettleTimeout sets an explicit overall budget for Settle.
// Zero restores the default of ten times the requested waits.
func WithSettleTimeout(d time.Duration) Option {
	return func(c *config) {
		c.settleTimeout = d
	}
}

// WithResponse sets the writer for terminal replies (cursor position
// reports, device attributes). Sessions default to the PTY itself.
func WithResponse(p ResponseProvider) Option {
	return func(c *config) {
		c.response = p
	}
}

// WithBell sets the handler for bell events.
func WithBell(p BellProvider) Option {
	return func(c *config) {
		if p != nil {
			c.bell = p
		}
	}
}

// WithTitle sets the handler for window title changes.
func WithTitle(p TitleProvider) Option {
	return func(c *config) {
		if p != nil {
			c.title = p
		}
	}
}

// WithRecording captures every output byte before parsing.
func WithRecording(p RecordingProvider) Option {
	return func(c *config) {
		if p != nil {
			c.recording = p
		}
	}
}

// WithSemanticPrompt sets the handler for shell prompt marks (OSC 133).
func WithSemanticPrompt(h SemanticPromptHandler) Option {
	return func(c *config) {
		if h != nil {
			c.prompts = h
		}
	}
}

// WithMiddleware installs an interceptor around every display action.
// Multiple calls are chained in order.
func WithMiddleware(mw Middleware) Option {
	return func(c *config) {
		c.middleware = Chain(c.middleware, mw)
	}
}
