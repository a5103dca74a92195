package numpty

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"
)

const (
	// maxParams bounds the CSI parameter list; extra parameters are dropped.
	maxParams = 16
	// maxParamValue clamps each numeric parameter.
	maxParamValue = 65535
	// maxIntermediates bounds collected intermediate bytes; longer sequences are ignored.
	maxIntermediates = 2
	// maxOSCLength bounds an OSC payload; longer payloads are discarded.
	maxOSCLength = 4096
)

// parserState is a position in the escape sequence state machine.
type parserState uint8

const (
	stateGround parserState = iota
	stateEscape
	stateEscapeIntermediate
	stateCSIEntry
	stateCSIParam
	stateCSIIntermediate
	stateCSIIgnore
	stateOSCString
	stateStringIgnore
	numStates
)

var stateNames = [numStates]string{
	"Ground", "Escape", "EscapeIntermediate", "CSIEntry", "CSIParam",
	"CSIIntermediate", "CSIIgnore", "OSCString", "StringIgnore",
}

func (s parserState) String() string {
	if s < numStates {
		return stateNames[s]
	}
	return "Invalid"
}

// parserAction is what the machine does with a byte on a transition.
type parserAction uint8

const (
	actNone parserAction = iota
	actIgnore
	actPrint
	actExecute
	actClear
	actCollect
	actParam
	actEscDispatch
	actCSIDispatch
	actOSCStart
	actOSCPut
	actOSCEnd
	actAbort
)

type transition struct {
	action parserAction
	next   parserState
}

// transitions is the complete state table, one entry per (state, byte).
var transitions [numStates][256]transition

func init() {
	set := func(s parserState, lo, hi byte, a parserAction, next parserState) {
		for b := int(lo); b <= int(hi); b++ {
			transitions[s][b] = transition{a, next}
		}
	}

	// C0 controls execute in place from every non-string state.
	for s := stateGround; s <= stateCSIIgnore; s++ {
		set(s, 0x00, 0x17, actExecute, s)
		set(s, 0x19, 0x19, actExecute, s)
		set(s, 0x1c, 0x1f, actExecute, s)
		set(s, 0x7f, 0x7f, actIgnore, s)
	}

	set(stateGround, 0x20, 0x7e, actPrint, stateGround)
	set(stateGround, 0x80, 0xff, actPrint, stateGround)

	set(stateEscape, 0x20, 0x2f, actCollect, stateEscapeIntermediate)
	set(stateEscape, 0x30, 0x7e, actEscDispatch, stateGround)
	set(stateEscape, '[', '[', actClear, stateCSIEntry)
	set(stateEscape, ']', ']', actOSCStart, stateOSCString)
	set(stateEscape, 'P', 'P', actNone, stateStringIgnore)
	set(stateEscape, 'X', 'X', actNone, stateStringIgnore)
	set(stateEscape, '^', '^', actNone, stateStringIgnore)
	set(stateEscape, '_', '_', actNone, stateStringIgnore)
	set(stateEscape, 0x80, 0xff, actAbort, stateGround)

	set(stateEscapeIntermediate, 0x20, 0x2f, actCollect, stateEscapeIntermediate)
	set(stateEscapeIntermediate, 0x30, 0x7e, actEscDispatch, stateGround)
	set(stateEscapeIntermediate, 0x80, 0xff, actAbort, stateGround)

	set(stateCSIEntry, 0x20, 0x2f, actCollect, stateCSIIntermediate)
	set(stateCSIEntry, 0x30, 0x3b, actParam, stateCSIParam)
	set(stateCSIEntry, 0x3c, 0x3f, actCollect, stateCSIParam)
	set(stateCSIEntry, 0x40, 0x7e, actCSIDispatch, stateGround)
	set(stateCSIEntry, 0x80, 0xff, actIgnore, stateCSIIgnore)

	set(stateCSIParam, 0x20, 0x2f, actCollect, stateCSIIntermediate)
	set(stateCSIParam, 0x30, 0x3b, actParam, stateCSIParam)
	set(stateCSIParam, 0x3c, 0x3f, actIgnore, stateCSIIgnore)
	set(stateCSIParam, 0x40, 0x7e, actCSIDispatch, stateGround)
	set(stateCSIParam, 0x80, 0xff, actIgnore, stateCSIIgnore)

	set(stateCSIIntermediate, 0x20, 0x2f, actCollect, stateCSIIntermediate)
	set(stateCSIIntermediate, 0x30, 0x3f, actIgnore, stateCSIIgnore)
	set(stateCSIIntermediate, 0x40, 0x7e, actCSIDispatch, stateGround)
	set(stateCSIIntermediate, 0x80, 0xff, actIgnore, stateCSIIgnore)

	set(stateCSIIgnore, 0x20, 0x3f, actIgnore, stateCSIIgnore)
	set(stateCSIIgnore, 0x40, 0x7e, actAbort, stateGround)
	set(stateCSIIgnore, 0x80, 0xff, actIgnore, stateCSIIgnore)

	set(stateOSCString, 0x00, 0x1f, actIgnore, stateOSCString)
	set(stateOSCString, 0x07, 0x07, actOSCEnd, stateGround)
	set(stateOSCString, 0x20, 0xff, actOSCPut, stateOSCString)

	set(stateStringIgnore, 0x00, 0xff, actIgnore, stateStringIgnore)

	// CAN and SUB cancel whatever is in progress; ESC always starts over.
	for s := stateGround; s < numStates; s++ {
		transitions[s][0x18] = transition{actAbort, stateGround}
		transitions[s][0x1a] = transition{actAbort, stateGround}
		transitions[s][0x1b] = transition{actClear, stateEscape}
	}
	transitions[stateOSCString][0x1b] = transition{actOSCEnd, stateEscape}
	transitions[stateStringIgnore][0x1b] = transition{actClear, stateEscape}
}

// Parser turns a raw output byte stream into display actions.
// State persists across Feed calls, so sequences split over reads are
// reassembled. Malformed or unsupported sequences are dropped and counted;
// the parser never fails.
type Parser struct {
	state parserState
	emit  func(Action)

	params      [maxParams]int
	colon       [maxParams]bool // params[i] was introduced by ':'
	nParams     int
	hasParam    bool
	overflow    bool
	private     byte
	inter       [maxIntermediates]byte
	nInter      int
	interFull   bool
	osc         []byte
	oscOverflow bool

	utf8Buf [utf8.UTFMax]byte
	utf8Len int

	discarded uint64
	logger    *slog.Logger
}

// NewParser creates a parser in the Ground state that passes every action to emit.
func NewParser(emit func(Action)) *Parser {
	if emit == nil {
		emit = func(Action) {}
	}
	return &Parser{
		emit:   emit,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger used to report discarded sequences at debug level.
func (p *Parser) SetLogger(l *slog.Logger) {
	if l != nil {
		p.logger = l
	}
}

// State returns the current machine state name.
func (p *Parser) State() string {
	return p.state.String()
}

// Discarded returns how many malformed or unsupported sequences were dropped.
func (p *Parser) Discarded() uint64 {
	return p.discarded
}

// Write feeds data to the parser. It always consumes all of p.
func (p *Parser) Write(data []byte) (int, error) {
	p.Feed(data)
	return len(data), nil
}

// Feed runs every byte of data through the state machine.
func (p *Parser) Feed(data []byte) {
	for _, b := range data {
		p.advance(b)
	}
}

func (p *Parser) advance(b byte) {
	t := transitions[p.state][b]

	if p.utf8Len > 0 && t.action != actPrint {
		p.flushInvalidUTF8()
	}

	switch t.action {
	case actPrint:
		p.print(b)
	case actExecute:
		p.execute(b)
	case actClear:
		switch p.state {
		case stateGround, stateEscape, stateStringIgnore:
		default:
			p.discard("interrupted by ESC")
		}
		p.clear()
	case actCollect:
		p.collect(b)
	case actParam:
		p.param(b)
	case actEscDispatch:
		p.escDispatch(b)
	case actCSIDispatch:
		p.csiDispatch(b)
	case actOSCStart:
		p.osc = p.osc[:0]
		p.oscOverflow = false
	case actOSCPut:
		if len(p.osc) >= maxOSCLength {
			p.oscOverflow = true
		} else {
			p.osc = append(p.osc, b)
		}
	case actOSCEnd:
		p.oscDispatch()
		if b == 0x1b {
			p.clear()
		}
	case actAbort:
		if p.state != stateGround {
			p.discard("sequence aborted at %#02x", b)
		}
	}

	p.state = t.next
}

func (p *Parser) clear() {
	p.nParams = 0
	p.hasParam = false
	p.overflow = false
	p.private = 0
	p.nInter = 0
	p.interFull = false
	p.params = [maxParams]int{}
	p.colon = [maxParams]bool{}
}

func (p *Parser) collect(b byte) {
	if b >= 0x3c && b <= 0x3f {
		p.private = b
		return
	}
	if p.nInter == maxIntermediates {
		p.interFull = true
		return
	}
	p.inter[p.nInter] = b
	p.nInter++
}

func (p *Parser) param(b byte) {
	if b == ';' || b == ':' {
		if !p.hasParam {
			p.startParam(false)
		}
		if p.nParams == maxParams {
			p.overflow = true
			return
		}
		p.startParam(b == ':')
		return
	}
	if !p.hasParam {
		p.startParam(false)
	}
	if p.overflow {
		return
	}
	i := p.nParams - 1
	v := p.params[i]*10 + int(b-'0')
	if v > maxParamValue {
		v = maxParamValue
	}
	p.params[i] = v
}

func (p *Parser) startParam(colon bool) {
	if p.nParams == maxParams {
		p.overflow = true
		return
	}
	p.params[p.nParams] = 0
	p.colon[p.nParams] = colon
	p.nParams++
	p.hasParam = true
}

// print decodes UTF-8 in Ground, holding incomplete sequences across calls.
func (p *Parser) print(b byte) {
	if b < utf8.RuneSelf {
		if p.utf8Len > 0 {
			p.flushInvalidUTF8()
		}
		p.emit(Action{Kind: ActionPrint, Rune: rune(b)})
		return
	}

	if p.utf8Len > 0 && !isContinuation(b) {
		p.flushInvalidUTF8()
	}
	p.utf8Buf[p.utf8Len] = b
	p.utf8Len++

	if !utf8.FullRune(p.utf8Buf[:p.utf8Len]) {
		return
	}
	r, size := utf8.DecodeRune(p.utf8Buf[:p.utf8Len])
	if r == utf8.RuneError && size <= 1 {
		p.emit(Action{Kind: ActionPrint, Rune: utf8.RuneError})
		var rest [utf8.UTFMax]byte
		n := copy(rest[:], p.utf8Buf[1:p.utf8Len])
		p.utf8Len = 0
		for _, c := range rest[:n] {
			p.print(c)
		}
		return
	}
	p.utf8Len = 0
	p.emit(Action{Kind: ActionPrint, Rune: r})
}

func isContinuation(b byte) bool {
	return b&0xc0 == 0x80
}

func (p *Parser) flushInvalidUTF8() {
	p.utf8Len = 0
	p.emit(Action{Kind: ActionPrint, Rune: utf8.RuneError})
}

// execute handles C0 control bytes.
func (p *Parser) execute(b byte) {
	switch b {
	case 0x07:
		p.emit(Action{Kind: ActionBell})
	case 0x08:
		p.emit(Action{Kind: ActionBackspace})
	case 0x09:
		p.emit(Action{Kind: ActionTab, N: 1})
	case 0x0a, 0x0b, 0x0c:
		p.emit(Action{Kind: ActionLineFeed})
	case 0x0d:
		p.emit(Action{Kind: ActionCarriageReturn})
	case 0x0e:
		p.emit(Action{Kind: ActionShiftCharset, N: 1})
	case 0x0f:
		p.emit(Action{Kind: ActionShiftCharset, N: 0})
	}
}

func (p *Parser) discard(format string, args ...any) {
	p.discarded++
	if p.logger.Enabled(context.Background(), slog.LevelDebug) {
		p.logger.Debug("discarded escape sequence", "state", p.state.String(), "reason", fmt.Sprintf(format, args...))
	}
}
