package numpty

import (
	"fmt"

	"github.com/danielgatis/go-ansicode"
)

// ActionKind identifies a display action produced by the parser.
type ActionKind uint8

const (
	ActionPrint             ActionKind = iota + 1 // Rune
	ActionRepeat                                  // N: repeat the last printed rune
	ActionSetCursorPosition                       // Row, Col (0-based, clamped)
	ActionSetCursorRow                            // Row
	ActionSetCursorColumn                         // Col
	ActionMoveCursor                              // Row, Col as deltas
	ActionMoveCursorLine                          // Row as delta, column returns to 0
	ActionSetForeground                           // Color
	ActionSetBackground                           // Color
	ActionSetAttribute                            // Flags
	ActionClearAttribute                          // Flags
	ActionResetAttributes
	ActionEraseDisplay // Display
	ActionEraseLine    // Line
	ActionEraseChars   // N
	ActionLineFeed
	ActionIndex
	ActionNewLine
	ActionReverseIndex
	ActionCarriageReturn
	ActionBackspace
	ActionTab     // N
	ActionBackTab // N
	ActionSetTabStop
	ActionClearTabStop    // N: 0 current column, 3 all
	ActionScrollUp        // N
	ActionScrollDown      // N
	ActionSetScrollRegion // Top (0-based), Bottom (exclusive, 0 = last row)
	ActionInsertLines     // N
	ActionDeleteLines     // N
	ActionInsertChars     // N
	ActionDeleteChars     // N
	ActionSetMode         // Mode
	ActionResetMode       // Mode
	ActionEnterAltScreen
	ActionLeaveAltScreen
	ActionSaveCursor
	ActionRestoreCursor
	ActionDesignateCharset // N: slot 0-3, Rune: charset final byte
	ActionShiftCharset     // N: slot
	ActionAlignment
	ActionReset
	ActionSetTitle // Text
	ActionBell
	ActionDeviceStatus // N: 5 status, 6 cursor position
	ActionIdentify     // N: 0 primary, '>' secondary
	ActionPromptMark   // Mark, N: exit code or -1
)

var actionNames = map[ActionKind]string{
	ActionPrint:             "Print",
	ActionRepeat:            "Repeat",
	ActionSetCursorPosition: "SetCursorPosition",
	ActionSetCursorRow:      "SetCursorRow",
	ActionSetCursorColumn:   "SetCursorColumn",
	ActionMoveCursor:        "MoveCursor",
	ActionMoveCursorLine:    "MoveCursorLine",
	ActionSetForeground:     "SetForeground",
	ActionSetBackground:     "SetBackground",
	ActionSetAttribute:      "SetAttribute",
	ActionClearAttribute:    "ClearAttribute",
	ActionResetAttributes:   "ResetAttributes",
	ActionEraseDisplay:      "EraseDisplay",
	ActionEraseLine:         "EraseLine",
	ActionEraseChars:        "EraseChars",
	ActionLineFeed:          "LineFeed",
	ActionIndex:             "Index",
	ActionNewLine:           "NewLine",
	ActionReverseIndex:      "ReverseIndex",
	ActionCarriageReturn:    "CarriageReturn",
	ActionBackspace:         "Backspace",
	ActionTab:               "Tab",
	ActionBackTab:           "BackTab",
	ActionSetTabStop:        "SetTabStop",
	ActionClearTabStop:      "ClearTabStop",
	ActionScrollUp:          "ScrollUp",
	ActionScrollDown:        "ScrollDown",
	ActionSetScrollRegion:   "SetScrollRegion",
	ActionInsertLines:       "InsertLines",
	ActionDeleteLines:       "DeleteLines",
	ActionInsertChars:       "InsertChars",
	ActionDeleteChars:       "DeleteChars",
	ActionSetMode:           "SetMode",
	ActionResetMode:         "ResetMode",
	ActionEnterAltScreen:    "EnterAltScreen",
	ActionLeaveAltScreen:    "LeaveAltScreen",
	ActionSaveCursor:        "SaveCursor",
	ActionRestoreCursor:     "RestoreCursor",
	ActionDesignateCharset:  "DesignateCharset",
	ActionShiftCharset:      "ShiftCharset",
	ActionAlignment:         "Alignment",
	ActionReset:             "Reset",
	ActionSetTitle:          "SetTitle",
	ActionBell:              "Bell",
	ActionDeviceStatus:      "DeviceStatus",
	ActionIdentify:          "Identify",
	ActionPromptMark:        "PromptMark",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", uint8(k))
}

// Action is one discrete display operation. Only the fields named next to
// the Kind constant are meaningful.
type Action struct {
	Kind    ActionKind
	Rune    rune
	Row     int
	Col     int
	N       int
	Top     int
	Bottom  int
	Color   Color
	Flags   CellFlags
	Display ansicode.ClearMode
	Line    ansicode.LineClearMode
	Mode    ansicode.TerminalMode
	Mark    PromptMarkType
	Text    string
}

func (a Action) String() string {
	switch a.Kind {
	case ActionPrint:
		return fmt.Sprintf("Print(%q)", a.Rune)
	case ActionSetCursorPosition, ActionMoveCursor:
		return fmt.Sprintf("%s(%d, %d)", a.Kind, a.Row, a.Col)
	case ActionSetCursorRow, ActionMoveCursorLine:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Row)
	case ActionSetCursorColumn:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Col)
	case ActionSetForeground, ActionSetBackground:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Color)
	case ActionSetAttribute, ActionClearAttribute:
		return fmt.Sprintf("%s(%#x)", a.Kind, uint16(a.Flags))
	case ActionSetScrollRegion:
		return fmt.Sprintf("%s(%d, %d)", a.Kind, a.Top, a.Bottom)
	case ActionSetTitle:
		return fmt.Sprintf("%s(%q)", a.Kind, a.Text)
	case ActionPromptMark:
		return fmt.Sprintf("%s(%s, %d)", a.Kind, a.Mark, a.N)
	case ActionRepeat, ActionEraseChars, ActionTab, ActionBackTab, ActionClearTabStop,
		ActionScrollUp, ActionScrollDown, ActionInsertLines, ActionDeleteLines,
		ActionInsertChars, ActionDeleteChars, ActionDeviceStatus, ActionShiftCharset:
		return fmt.Sprintf("%s(%d)", a.Kind, a.N)
	}
	return a.Kind.String()
}
