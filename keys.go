package numpty

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// Key is a parsed key name: a tcell key identity (tcell.KeyRune for
// printable characters) plus modifiers.
type Key struct {
	Code tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// keyNames are the accepted spellings of named keys, lower case.
var keyNames = map[string]tcell.Key{
	"enter":     tcell.KeyEnter,
	"return":    tcell.KeyEnter,
	"escape":    tcell.KeyEsc,
	"esc":       tcell.KeyEsc,
	"tab":       tcell.KeyTab,
	"btab":      tcell.KeyBacktab,
	"backtab":   tcell.KeyBacktab,
	"backspace": tcell.KeyBackspace2,
	"bs":        tcell.KeyBackspace2,
	"delete":    tcell.KeyDelete,
	"del":       tcell.KeyDelete,
	"insert":    tcell.KeyInsert,
	"ins":       tcell.KeyInsert,
	"up":        tcell.KeyUp,
	"down":      tcell.KeyDown,
	"left":      tcell.KeyLeft,
	"right":     tcell.KeyRight,
	"home":      tcell.KeyHome,
	"end":       tcell.KeyEnd,
	"pageup":    tcell.KeyPgUp,
	"pagedown":  tcell.KeyPgDn,
	"f1":        tcell.KeyF1,
	"f2":        tcell.KeyF2,
	"f3":        tcell.KeyF3,
	"f4":        tcell.KeyF4,
	"f5":        tcell.KeyF5,
	"f6":        tcell.KeyF6,
	"f7":        tcell.KeyF7,
	"f8":        tcell.KeyF8,
	"f9":        tcell.KeyF9,
	"f10":       tcell.KeyF10,
	"f11":       tcell.KeyF11,
	"f12":       tcell.KeyF12,
}

func init() {
	// tcell's own spellings ("PgUp", "Backtab", "Ctrl-A", ...) are aliases,
	// for the keys this encoder knows how to send.
	for k, name := range tcell.KeyNames {
		lower := strings.ToLower(name)
		if _, ok := keyNames[lower]; ok {
			continue
		}
		if _, ok := encodeNamed(k, 0, false); ok {
			keyNames[lower] = k
		}
	}
}

// cursorFinals are the final bytes of the cursor movement keys.
var cursorFinals = map[tcell.Key]byte{
	tcell.KeyUp:    'A',
	tcell.KeyDown:  'B',
	tcell.KeyRight: 'C',
	tcell.KeyLeft:  'D',
	tcell.KeyHome:  'H',
	tcell.KeyEnd:   'F',
}

// ss3Finals are the F1-F4 keys, sent as SS3 sequences.
var ss3Finals = map[tcell.Key]byte{
	tcell.KeyF1: 'P',
	tcell.KeyF2: 'Q',
	tcell.KeyF3: 'R',
	tcell.KeyF4: 'S',
}

// tildeCodes are the keys sent as CSI n ~.
var tildeCodes = map[tcell.Key]int{
	tcell.KeyInsert: 2,
	tcell.KeyDelete: 3,
	tcell.KeyPgUp:   5,
	tcell.KeyPgDn:   6,
	tcell.KeyF5:     15,
	tcell.KeyF6:     17,
	tcell.KeyF7:     18,
	tcell.KeyF8:     19,
	tcell.KeyF9:     20,
	tcell.KeyF10:    21,
	tcell.KeyF11:    23,
	tcell.KeyF12:    24,
}

// ParseKey parses a key name.
//
// A single character stands for itself. Named keys are Enter, Space, Escape
// (Esc), Tab, BTab, Backspace, Delete, Insert, Up, Down, Left, Right, Home,
// End, PageUp, PageDown and F1-F12, case-insensitive, plus tcell's spellings
// such as PgUp. Modifier prefixes C- (control), S- (shift), A- or M- (alt)
// combine, as in C-S-Left; ^x is the same as C-x.
func ParseKey(name string) (Key, error) {
	if name == "" {
		return Key{}, &UnknownKeyError{Name: name}
	}

	rest := name
	var mod tcell.ModMask
	if len(rest) == 2 && rest[0] == '^' {
		mod |= tcell.ModCtrl
		rest = rest[1:]
	}
	for len(rest) > 2 && rest[1] == '-' {
		switch rest[0] {
		case 'C', 'c':
			mod |= tcell.ModCtrl
		case 'S', 's':
			mod |= tcell.ModShift
		case 'A', 'a', 'M', 'm':
			mod |= tcell.ModAlt
		default:
			return Key{}, &UnknownKeyError{Name: name}
		}
		rest = rest[2:]
	}

	if utf8.RuneCountInString(rest) == 1 {
		r, _ := utf8.DecodeRuneInString(rest)
		return Key{Code: tcell.KeyRune, Rune: r, Mod: mod}, nil
	}
	lower := strings.ToLower(rest)
	if lower == "space" {
		return Key{Code: tcell.KeyRune, Rune: ' ', Mod: mod}, nil
	}
	if k, ok := keyNames[lower]; ok {
		return Key{Code: k, Mod: mod}, nil
	}
	return Key{}, &UnknownKeyError{Name: name}
}

// Encode returns the bytes a terminal sends for the key. appCursor selects
// application cursor key mode (DECCKM) for the unmodified cursor keys.
// It fails for combinations no terminal can express, such as C-é.
func (k Key) Encode(appCursor bool) ([]byte, bool) {
	if k.Code == tcell.KeyRune {
		return encodeRune(k.Rune, k.Mod)
	}
	return encodeNamed(k.Code, k.Mod, appCursor)
}

func encodeRune(r rune, mod tcell.ModMask) ([]byte, bool) {
	if mod&tcell.ModShift != 0 {
		r = unicode.ToUpper(r)
	}
	var out []byte
	if mod&tcell.ModCtrl != 0 {
		c, ok := ctrlByte(r)
		if !ok {
			return nil, false
		}
		out = []byte{c}
	} else {
		out = utf8.AppendRune(nil, r)
	}
	if mod&tcell.ModAlt != 0 {
		out = append([]byte{0x1b}, out...)
	}
	return out, true
}

// ctrlByte maps a character to its control code the way xterm does.
func ctrlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= '@' && r <= '_':
		return byte(r) & 0x1f, true
	case r == ' ' || r == '2':
		return 0, true
	case r == '/':
		return 0x1f, true
	case r == '~' || r == '6':
		return 0x1e, true
	case r == '?' || r == '8':
		return 0x7f, true
	}
	return 0, false
}

// modifierParam is the xterm modifier parameter: 1 + shift + 2*alt + 4*ctrl.
func modifierParam(mod tcell.ModMask) int {
	m := 1
	if mod&tcell.ModShift != 0 {
		m += 1
	}
	if mod&tcell.ModAlt != 0 {
		m += 2
	}
	if mod&tcell.ModCtrl != 0 {
		m += 4
	}
	return m
}

func encodeNamed(k tcell.Key, mod tcell.ModMask, appCursor bool) ([]byte, bool) {
	if final, ok := cursorFinals[k]; ok {
		switch {
		case mod != 0:
			return []byte("\x1b[1;" + strconv.Itoa(modifierParam(mod)) + string(final)), true
		case appCursor:
			return []byte{0x1b, 'O', final}, true
		default:
			return []byte{0x1b, '[', final}, true
		}
	}
	if final, ok := ss3Finals[k]; ok {
		if mod != 0 {
			return []byte("\x1b[1;" + strconv.Itoa(modifierParam(mod)) + string(final)), true
		}
		return []byte{0x1b, 'O', final}, true
	}
	if code, ok := tildeCodes[k]; ok {
		if mod != 0 {
			return []byte("\x1b[" + strconv.Itoa(code) + ";" + strconv.Itoa(modifierParam(mod)) + "~"), true
		}
		return []byte("\x1b[" + strconv.Itoa(code) + "~"), true
	}

	var out []byte
	switch k {
	case tcell.KeyEnter:
		out = []byte{'\r'}
	case tcell.KeyTab:
		if mod&tcell.ModShift != 0 {
			return []byte("\x1b[Z"), true
		}
		out = []byte{'\t'}
	case tcell.KeyBacktab:
		return []byte("\x1b[Z"), true
	case tcell.KeyEsc:
		out = []byte{0x1b}
	case tcell.KeyBackspace2:
		if mod&tcell.ModCtrl != 0 {
			out = []byte{0x08}
		} else {
			out = []byte{0x7f}
		}
	default:
		// tcell's control keys (KeyCtrlA...) are their own control codes.
		if k >= 0 && k < 0x20 {
			out = []byte{byte(k)}
			break
		}
		return nil, false
	}
	if mod&tcell.ModAlt != 0 {
		out = append([]byte{0x1b}, out...)
	}
	return out, true
}

// EncodeKey parses and encodes a single key name.
func EncodeKey(name string, appCursor bool) ([]byte, error) {
	k, err := ParseKey(name)
	if err != nil {
		return nil, err
	}
	b, ok := k.Encode(appCursor)
	if !ok {
		return nil, &UnknownKeyError{Name: name}
	}
	return b, nil
}

// EncodeKeys encodes every name in order and concatenates the results.
// It fails on the first unknown name without returning partial output.
func EncodeKeys(names []string, appCursor bool) ([]byte, error) {
	var out []byte
	for _, name := range names {
		b, err := EncodeKey(name, appCursor)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}
