// Package numpty drives interactive terminal programs from tests.
//
// A [Session] runs a program on a pseudo-terminal, emulates the display it
// draws and lets the caller type at it:
//
//	err := numpty.Run([]string{"nudoku"}, 60, 22, func(s *numpty.Session) error {
//	    if err := s.Settle(time.Second, 100*time.Millisecond); err != nil {
//	        return err
//	    }
//	    if err := s.Keys("Right", "Right", "5"); err != nil {
//	        return err
//	    }
//	    if err := s.Settle(time.Second, 100*time.Millisecond); err != nil {
//	        return err
//	    }
//	    for _, row := range s.Text() {
//	        fmt.Println(row)
//	    }
//	    return nil
//	})
//
// # Settling
//
// Programs redraw asynchronously. [Session.Settle] waits for the first
// output after an input (at most waitFirst) and then for a quiet period of
// waitMore. It takes a [Snapshot], and every exporter reads that snapshot
// until the next Settle, so repeated reads agree with each other.
//
// # Exporters
//
//   - Text: one string per row, exactly cols wide
//   - Render: rows with SGR markers, see [Snapshot.Render]
//   - Chars: the rows x cols rune grid
//   - ForegroundIndexedColor, ForegroundTrueColor and the Background
//     variants: color grids plus a mask of explicitly colored cells
//
// The mask is the same for the indexed and the true color view.
//
// # Keys
//
// [Session.Keys] takes key names: single characters, Enter, Space, Escape,
// Tab, arrows, Home, End, PageUp, PageDown, F1-F12 and so on, with C-, S-
// and A- modifier prefixes or ^x. All names are checked before anything is
// sent; see [ParseKey].
//
// # Emulation
//
// [Screen] can be used on its own as an in-memory terminal:
//
//	scr := numpty.NewScreen(24, 80)
//	scr.WriteString("\x1b[31mred\x1b[0m")
//	snap := scr.Snapshot()
//
// Its [Parser] is a table-driven VT state machine that survives arbitrary
// chunking and never fails on malformed input; unrecognised sequences are
// dropped and counted. There is no scrollback.
//
// Shells that emit OSC 133 prompt marks get them recorded per row; see
// [Screen.PromptMarks] and [Snapshot.LastCommandOutput].
//
// # Errors
//
// Failures are typed ([SpawnError], [IOError], [UnknownKeyError],
// [TimeoutError], [ResizeError]) and match the sentinels ErrSpawn,
// ErrClosed, ErrExited, ErrUnknownKey, ErrSettleTimeout and ErrResize with
// [errors.Is].
package numpty
