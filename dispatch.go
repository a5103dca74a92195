package numpty

import (
	"bytes"
	"strconv"

	"github.com/danielgatis/go-ansicode"
)

// decModes maps DEC private mode numbers (CSI ? Pm h/l) to terminal modes.
var decModes = map[int]ansicode.TerminalMode{
	1:    ansicode.TerminalModeCursorKeys,
	3:    ansicode.TerminalModeColumnMode,
	6:    ansicode.TerminalModeOrigin,
	7:    ansicode.TerminalModeLineWrap,
	12:   ansicode.TerminalModeBlinkingCursor,
	25:   ansicode.TerminalModeShowCursor,
	1000: ansicode.TerminalModeReportMouseClicks,
	1002: ansicode.TerminalModeReportCellMouseMotion,
	1003: ansicode.TerminalModeReportAllMouseMotion,
	1004: ansicode.TerminalModeReportFocusInOut,
	1005: ansicode.TerminalModeUTF8Mouse,
	1006: ansicode.TerminalModeSGRMouse,
	1007: ansicode.TerminalModeAlternateScroll,
	1042: ansicode.TerminalModeUrgencyHints,
	1049: ansicode.TerminalModeSwapScreenAndSetRestoreCursor,
	2004: ansicode.TerminalModeBracketedPaste,
}

// ansiModes maps ANSI mode numbers (CSI Pm h/l) to terminal modes.
var ansiModes = map[int]ansicode.TerminalMode{
	4:  ansicode.TerminalModeInsert,
	20: ansicode.TerminalModeLineFeedNewLine,
}

var displayClearModes = [...]ansicode.ClearMode{
	ansicode.ClearModeBelow,
	ansicode.ClearModeAbove,
	ansicode.ClearModeAll,
	ansicode.ClearModeSaved,
}

var lineClearModes = [...]ansicode.LineClearMode{
	ansicode.LineClearModeRight,
	ansicode.LineClearModeLeft,
	ansicode.LineClearModeAll,
}

// arg returns parameter i, or def when it is missing or zero.
func (p *Parser) arg(i, def int) int {
	if i >= p.nParams || p.params[i] == 0 {
		return def
	}
	return p.params[i]
}

// raw returns parameter i, or 0 when it is missing.
func (p *Parser) raw(i int) int {
	if i >= p.nParams {
		return 0
	}
	return p.params[i]
}

func (p *Parser) escDispatch(final byte) {
	if p.interFull {
		p.discard("too many intermediates")
		return
	}

	if p.nInter == 1 {
		switch i := p.inter[0]; i {
		case '(', ')', '*', '+':
			p.emit(Action{Kind: ActionDesignateCharset, N: int(i - '('), Rune: rune(final)})
			return
		case '#':
			if final == '8' {
				p.emit(Action{Kind: ActionAlignment})
				return
			}
		case '%':
			// Character set selection (UTF-8 is assumed).
			return
		}
		p.discard("ESC %c %c", p.inter[0], final)
		return
	}
	if p.nInter > 1 {
		p.discard("ESC with %d intermediates", p.nInter)
		return
	}

	switch final {
	case '7':
		p.emit(Action{Kind: ActionSaveCursor})
	case '8':
		p.emit(Action{Kind: ActionRestoreCursor})
	case 'D':
		p.emit(Action{Kind: ActionIndex})
	case 'E':
		p.emit(Action{Kind: ActionNewLine})
	case 'H':
		p.emit(Action{Kind: ActionSetTabStop})
	case 'M':
		p.emit(Action{Kind: ActionReverseIndex})
	case 'c':
		p.emit(Action{Kind: ActionReset})
	case '=', '>', '\\':
		// Keypad modes and string terminator carry no display effect.
	default:
		p.discard("ESC %c", final)
	}
}

func (p *Parser) csiDispatch(final byte) {
	if p.interFull || p.overflow && final != 'm' {
		p.discard("CSI %c: too many parameters or intermediates", final)
		return
	}

	if p.nInter > 0 {
		p.discard("CSI %c with intermediate %q", final, p.inter[:p.nInter])
		return
	}

	switch p.private {
	case 0:
	case '?':
		switch final {
		case 'h', 'l':
			p.setModes(final == 'h', true)
		case 'J':
			p.emit(Action{Kind: ActionEraseDisplay, Display: displayClearModes[min(p.raw(0), 3)]})
		case 'K':
			p.emit(Action{Kind: ActionEraseLine, Line: lineClearModes[min(p.raw(0), 2)]})
		default:
			p.discard("CSI ? %c", final)
		}
		return
	case '>':
		if final == 'c' {
			p.emit(Action{Kind: ActionIdentify, N: '>'})
			return
		}
		p.discard("CSI > %c", final)
		return
	default:
		p.discard("CSI %c %c", p.private, final)
		return
	}

	n := p.arg(0, 1)
	switch final {
	case '@':
		p.emit(Action{Kind: ActionInsertChars, N: n})
	case 'A':
		p.emit(Action{Kind: ActionMoveCursor, Row: -n})
	case 'B', 'e':
		p.emit(Action{Kind: ActionMoveCursor, Row: n})
	case 'C', 'a':
		p.emit(Action{Kind: ActionMoveCursor, Col: n})
	case 'D':
		p.emit(Action{Kind: ActionMoveCursor, Col: -n})
	case 'E':
		p.emit(Action{Kind: ActionMoveCursorLine, Row: n})
	case 'F':
		p.emit(Action{Kind: ActionMoveCursorLine, Row: -n})
	case 'G', '`':
		p.emit(Action{Kind: ActionSetCursorColumn, Col: n - 1})
	case 'H', 'f':
		p.emit(Action{Kind: ActionSetCursorPosition, Row: n - 1, Col: p.arg(1, 1) - 1})
	case 'I':
		p.emit(Action{Kind: ActionTab, N: n})
	case 'J':
		mode := p.raw(0)
		if mode > 3 {
			p.discard("ED %d", mode)
			return
		}
		p.emit(Action{Kind: ActionEraseDisplay, Display: displayClearModes[mode]})
	case 'K':
		mode := p.raw(0)
		if mode > 2 {
			p.discard("EL %d", mode)
			return
		}
		p.emit(Action{Kind: ActionEraseLine, Line: lineClearModes[mode]})
	case 'L':
		p.emit(Action{Kind: ActionInsertLines, N: n})
	case 'M':
		p.emit(Action{Kind: ActionDeleteLines, N: n})
	case 'P':
		p.emit(Action{Kind: ActionDeleteChars, N: n})
	case 'S':
		p.emit(Action{Kind: ActionScrollUp, N: n})
	case 'T':
		if p.nParams > 1 {
			p.discard("mouse highlight tracking")
			return
		}
		p.emit(Action{Kind: ActionScrollDown, N: n})
	case 'X':
		p.emit(Action{Kind: ActionEraseChars, N: n})
	case 'Z':
		p.emit(Action{Kind: ActionBackTab, N: n})
	case 'b':
		p.emit(Action{Kind: ActionRepeat, N: n})
	case 'c':
		if p.raw(0) != 0 {
			p.discard("DA %d", p.raw(0))
			return
		}
		p.emit(Action{Kind: ActionIdentify})
	case 'd':
		p.emit(Action{Kind: ActionSetCursorRow, Row: n - 1})
	case 'g':
		p.emit(Action{Kind: ActionClearTabStop, N: p.raw(0)})
	case 'h', 'l':
		p.setModes(final == 'h', false)
	case 'm':
		p.sgr()
	case 'n':
		switch p.raw(0) {
		case 5, 6:
			p.emit(Action{Kind: ActionDeviceStatus, N: p.raw(0)})
		default:
			p.discard("DSR %d", p.raw(0))
		}
	case 'r':
		p.emit(Action{Kind: ActionSetScrollRegion, Top: n - 1, Bottom: p.raw(1)})
	case 's':
		if p.nParams > 0 {
			p.discard("DECSLRM")
			return
		}
		p.emit(Action{Kind: ActionSaveCursor})
	case 'u':
		p.emit(Action{Kind: ActionRestoreCursor})
	default:
		p.discard("CSI %c", final)
	}
}

func (p *Parser) setModes(set, private bool) {
	kind := ActionResetMode
	if set {
		kind = ActionSetMode
	}
	table := ansiModes
	if private {
		table = decModes
	}

	for i := 0; i < p.nParams; i++ {
		code := p.params[i]
		if private {
			switch code {
			case 47, 1047:
				if set {
					p.emit(Action{Kind: ActionEnterAltScreen})
				} else {
					p.emit(Action{Kind: ActionLeaveAltScreen})
				}
				continue
			case 1048:
				if set {
					p.emit(Action{Kind: ActionSaveCursor})
				} else {
					p.emit(Action{Kind: ActionRestoreCursor})
				}
				continue
			}
		}
		mode, ok := table[code]
		if !ok {
			p.discard("mode %d (private=%t)", code, private)
			continue
		}
		p.emit(Action{Kind: kind, Mode: mode})
	}
}

// sgrFlags maps SGR codes to the attribute they set or clear.
var sgrFlags = map[int]struct {
	flags CellFlags
	set   bool
}{
	1:  {CellFlagBold, true},
	2:  {CellFlagDim, true},
	3:  {CellFlagItalic, true},
	4:  {CellFlagUnderline, true},
	5:  {CellFlagBlink, true},
	6:  {CellFlagBlink, true},
	7:  {CellFlagReverse, true},
	8:  {CellFlagHidden, true},
	9:  {CellFlagStrike, true},
	21: {CellFlagUnderline, true},
	22: {CellFlagBold | CellFlagDim, false},
	23: {CellFlagItalic, false},
	24: {CellFlagUnderline, false},
	25: {CellFlagBlink, false},
	27: {CellFlagReverse, false},
	28: {CellFlagHidden, false},
	29: {CellFlagStrike, false},
}

// sgr emits one action per attribute, in parameter order.
func (p *Parser) sgr() {
	if p.nParams == 0 {
		p.emit(Action{Kind: ActionResetAttributes})
		return
	}

	for i := 0; i < p.nParams; i++ {
		code := p.params[i]
		switch {
		case code == 0:
			p.emit(Action{Kind: ActionResetAttributes})
		case code >= 30 && code <= 37:
			p.emit(Action{Kind: ActionSetForeground, Color: IndexedColor(uint8(code - 30))})
		case code >= 90 && code <= 97:
			p.emit(Action{Kind: ActionSetForeground, Color: IndexedColor(uint8(code - 90 + 8))})
		case code == 39:
			p.emit(Action{Kind: ActionSetForeground})
		case code >= 40 && code <= 47:
			p.emit(Action{Kind: ActionSetBackground, Color: IndexedColor(uint8(code - 40))})
		case code >= 100 && code <= 107:
			p.emit(Action{Kind: ActionSetBackground, Color: IndexedColor(uint8(code - 100 + 8))})
		case code == 49:
			p.emit(Action{Kind: ActionSetBackground})
		case code == 38 || code == 48:
			c, used, ok := p.extendedColor(i)
			i += used
			if !ok {
				p.discard("SGR %d with bad color arguments", code)
				continue
			}
			kind := ActionSetForeground
			if code == 48 {
				kind = ActionSetBackground
			}
			p.emit(Action{Kind: kind, Color: c})
		default:
			if f, ok := sgrFlags[code]; ok {
				kind := ActionClearAttribute
				if f.set {
					kind = ActionSetAttribute
				}
				p.emit(Action{Kind: kind, Flags: f.flags})
				continue
			}
			p.discard("SGR %d", code)
			// Skip sub-parameters of an unknown attribute.
			for i+1 < p.nParams && p.colon[i+1] {
				i++
			}
		}
	}
}

// extendedColor decodes the arguments of SGR 38/48 starting at params[i].
// It returns how many parameters after i were consumed.
func (p *Parser) extendedColor(i int) (Color, int, bool) {
	// Colon form: 38:5:n, 38:2:r:g:b or 38:2:cs:r:g:b.
	if i+1 < p.nParams && p.colon[i+1] {
		j := i + 1
		for j+1 < p.nParams && p.colon[j+1] {
			j++
		}
		sub := p.params[i+1 : j+1]
		used := j - i
		switch {
		case len(sub) >= 2 && sub[0] == 5:
			return paletteColor(sub[1]), used, sub[1] <= 255
		case len(sub) == 4 && sub[0] == 2:
			c, ok := rgbColor(sub[1], sub[2], sub[3])
			return c, used, ok
		case len(sub) >= 5 && sub[0] == 2:
			c, ok := rgbColor(sub[2], sub[3], sub[4])
			return c, used, ok
		}
		return Color{}, used, false
	}

	// Semicolon form: 38;5;n or 38;2;r;g;b.
	switch p.raw(i + 1) {
	case 5:
		if i+2 >= p.nParams {
			return Color{}, p.nParams - i - 1, false
		}
		return paletteColor(p.params[i+2]), 2, p.params[i+2] <= 255
	case 2:
		if i+4 >= p.nParams {
			return Color{}, p.nParams - i - 1, false
		}
		c, ok := rgbColor(p.params[i+2], p.params[i+3], p.params[i+4])
		return c, 4, ok
	}
	return Color{}, 1, false
}

func paletteColor(n int) Color {
	return IndexedColor(uint8(min(n, 255)))
}

func rgbColor(r, g, b int) (Color, bool) {
	if r > 255 || g > 255 || b > 255 {
		return Color{}, false
	}
	return RGBColor(uint8(r), uint8(g), uint8(b)), true
}

func (p *Parser) oscDispatch() {
	if p.oscOverflow {
		p.discard("OSC longer than %d bytes", maxOSCLength)
		return
	}
	ps, pt, found := bytes.Cut(p.osc, []byte{';'})
	code, err := strconv.Atoi(string(ps))
	if err != nil {
		p.discard("OSC %q", ps)
		return
	}
	switch code {
	case 0, 1, 2:
		if !found {
			pt = nil
		}
		p.emit(Action{Kind: ActionSetTitle, Text: string(pt)})
	case 133:
		mark, exitCode, ok := parsePromptMark(string(pt))
		if !ok {
			p.discard("OSC 133 %q", pt)
			return
		}
		p.emit(Action{Kind: ActionPromptMark, Mark: mark, N: exitCode})
	default:
		p.discard("OSC %d", code)
	}
}
