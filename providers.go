package numpty

import (
	"io"
	"sync"
)

// ResponseProvider receives replies to terminal queries (DSR, DA). A Session
// binds it to the PTY so the child reads them as input.
type ResponseProvider = io.Writer

// NoopResponse drops replies.
type NoopResponse struct{}

func (NoopResponse) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// BellProvider is told about every BEL the child prints.
type BellProvider interface {
	Ring()
}

// NoopBell ignores bells.
type NoopBell struct{}

func (NoopBell) Ring() {}

// BellCounter counts bells, for asserting that a program beeped.
type BellCounter struct {
	mu sync.Mutex
	n  int
}

func (b *BellCounter) Ring() {
	b.mu.Lock()
	b.n++
	b.mu.Unlock()
}

// Count returns the number of bells seen so far.
func (b *BellCounter) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// TitleProvider is told about window title changes (OSC 0, 1, 2). A reset
// reports the empty title.
type TitleProvider interface {
	SetTitle(title string)
}

// NoopTitle ignores title changes.
type NoopTitle struct{}

func (NoopTitle) SetTitle(string) {}

// TitleHistory keeps every title the child set, in order.
type TitleHistory struct {
	mu     sync.Mutex
	titles []string
}

func (h *TitleHistory) SetTitle(title string) {
	h.mu.Lock()
	h.titles = append(h.titles, title)
	h.mu.Unlock()
}

// Titles returns a copy of the titles seen so far.
func (h *TitleHistory) Titles() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.titles...)
}

// RecordingProvider sees the raw child output before it is parsed.
type RecordingProvider interface {
	Record(data []byte)
	Data() []byte
	Clear()
}

// NoopRecording keeps nothing.
type NoopRecording struct{}

func (NoopRecording) Record([]byte) {}
func (NoopRecording) Data() []byte  { return nil }
func (NoopRecording) Clear()        {}

// MemoryRecording buffers the output in memory. Feeding Data to a fresh
// Screen of the same size reproduces the display:
//
//	rec := numpty.NewMemoryRecording()
//	s, err := numpty.Open(cmd, 80, 24, numpty.WithRecording(rec))
//	// ... drive the session ...
//	replay := numpty.NewScreen(24, 80)
//	replay.Write(rec.Data())
type MemoryRecording struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryRecording() *MemoryRecording {
	return &MemoryRecording{}
}

func (r *MemoryRecording) Record(data []byte) {
	r.mu.Lock()
	r.data = append(r.data, data...)
	r.mu.Unlock()
}

// Data returns a copy of everything recorded since the last Clear.
func (r *MemoryRecording) Data() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.data...)
}

func (r *MemoryRecording) Clear() {
	r.mu.Lock()
	r.data = nil
	r.mu.Unlock()
}

var (
	_ ResponseProvider  = NoopResponse{}
	_ BellProvider      = NoopBell{}
	_ BellProvider      = (*BellCounter)(nil)
	_ TitleProvider     = NoopTitle{}
	_ TitleProvider     = (*TitleHistory)(nil)
	_ RecordingProvider = NoopRecording{}
	_ RecordingProvider = (*MemoryRecording)(nil)
)
