package numpty

import (
	"fmt"
	"strconv"
	"strings"
)

// PromptMarkType is the kind of an OSC 133 mark.
type PromptMarkType uint8

const (
	PromptStart     PromptMarkType = iota // A
	CommandStart                          // B
	CommandExecuted                       // C
	CommandFinished                       // D
)

func (t PromptMarkType) String() string {
	switch t {
	case PromptStart:
		return "PromptStart"
	case CommandStart:
		return "CommandStart"
	case CommandExecuted:
		return "CommandExecuted"
	case CommandFinished:
		return "CommandFinished"
	}
	return fmt.Sprintf("PromptMarkType(%d)", uint8(t))
}

// maxPromptMarks bounds the marks a screen remembers.
const maxPromptMarks = 256

// PromptMark stores a semantic prompt mark (OSC 133) emitted by a shell
// with prompt integration.
type PromptMark struct {
	// Type is PromptStart (A), CommandStart (B), CommandExecuted (C) or CommandFinished (D).
	Type PromptMarkType `json:"type"`
	// Row is the viewport row the cursor was on. It follows the content when
	// the primary screen scrolls; marks scrolled off the top are dropped.
	Row int `json:"row"`
	// ExitCode is the command exit status for CommandFinished marks, -1 otherwise.
	ExitCode int `json:"exit_code"`
}

// SemanticPromptHandler is notified of every semantic prompt mark. OnMark
// runs while the screen is locked and must not call back into it.
type SemanticPromptHandler interface {
	OnMark(mark PromptMarkType, exitCode int)
}

// NoopSemanticPromptHandler ignores all semantic prompt events.
type NoopSemanticPromptHandler struct{}

func (NoopSemanticPromptHandler) OnMark(mark PromptMarkType, exitCode int) {}

var _ SemanticPromptHandler = NoopSemanticPromptHandler{}

var promptMarkCodes = map[string]PromptMarkType{
	"A": PromptStart,
	"B": CommandStart,
	"C": CommandExecuted,
	"D": CommandFinished,
}

// parsePromptMark decodes an OSC 133 payload such as "A", "D;1" or "A;aid=7".
func parsePromptMark(payload string) (PromptMarkType, int, bool) {
	fields := strings.Split(payload, ";")
	mark, ok := promptMarkCodes[fields[0]]
	if !ok {
		return 0, 0, false
	}
	exitCode := -1
	if mark == CommandFinished && len(fields) > 1 {
		if n, err := strconv.Atoi(fields[1]); err == nil {
			exitCode = n
		}
	}
	return mark, exitCode, true
}

// recordPromptMark stores a mark at the cursor row. Marks are kept for the
// primary screen only. Callers hold s.mu.
func (s *Screen) recordPromptMark(mark PromptMarkType, exitCode int) {
	if s.active == s.primary {
		s.promptMarks = append(s.promptMarks, PromptMark{
			Type:     mark,
			Row:      s.cursor.Row,
			ExitCode: exitCode,
		})
		if n := len(s.promptMarks); n > maxPromptMarks {
			s.promptMarks = append([]PromptMark(nil), s.promptMarks[n-maxPromptMarks:]...)
		}
	}
	s.prompts.OnMark(mark, exitCode)
}

// shiftPromptMarks moves marks inside [top, bottom) up by n rows (down when
// n is negative), dropping those that leave the region.
func (s *Screen) shiftPromptMarks(top, bottom, n int) {
	if s.active != s.primary || len(s.promptMarks) == 0 {
		return
	}
	kept := s.promptMarks[:0]
	for _, m := range s.promptMarks {
		if m.Row >= top && m.Row < bottom {
			m.Row -= n
			if m.Row < top || m.Row >= bottom {
				continue
			}
		}
		kept = append(kept, m)
	}
	s.promptMarks = kept
}

// dropPromptMarksFrom forgets marks on rows >= rows.
func (s *Screen) dropPromptMarksFrom(rows int) {
	kept := s.promptMarks[:0]
	for _, m := range s.promptMarks {
		if m.Row < rows {
			kept = append(kept, m)
		}
	}
	s.promptMarks = kept
}

// PromptMarks returns the recorded prompt marks, oldest first.
func (s *Screen) PromptMarks() []PromptMark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PromptMark(nil), s.promptMarks...)
}

// ClearPromptMarks removes all recorded prompt marks.
func (s *Screen) ClearPromptMarks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptMarks = nil
}

// LastCommandOutput returns the rows between the last CommandExecuted mark
// and the CommandFinished mark after it, trailing blanks and empty rows
// trimmed. It returns "" when no complete command is on screen.
func (sn *Snapshot) LastCommandOutput() string {
	var executed, finished *PromptMark
	for i := len(sn.PromptMarks) - 1; i >= 0; i-- {
		m := &sn.PromptMarks[i]
		if finished == nil {
			if m.Type == CommandFinished {
				finished = m
			}
			continue
		}
		if m.Type == CommandExecuted {
			executed = m
			break
		}
	}
	if executed == nil || finished == nil || executed.Row > finished.Row {
		return ""
	}

	var lines []string
	for row := executed.Row; row < finished.Row && row < len(sn.Lines); row++ {
		lines = append(lines, sn.Lines[row].Text)
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
