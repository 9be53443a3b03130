// Package keymap provides a compiled-in US layout mapping evdev keycodes
// (as delivered by wl_keyboard.key events) to keysyms and modifier bits.
// Compositors additionally offer an xkb keymap fd; the toolkit acknowledges
// it and keeps using this table, which covers everything the demos need.
package keymap

// Modifier mask bits accumulated by the input device.
const (
	ModShift uint32 = 1 << iota
	ModCaps
	ModCtrl
	ModAlt
	ModNum
	ModLogo
)

// Keysym values for the non-printable subset the demos use. Printable ASCII
// symbols are their own keysym value.
const (
	SymNone      uint32 = 0
	SymBackSpace uint32 = 0xff08
	SymTab       uint32 = 0xff09
	SymReturn    uint32 = 0xff0d
	SymEscape    uint32 = 0xff1b
	SymHome      uint32 = 0xff50
	SymLeft      uint32 = 0xff51
	SymUp        uint32 = 0xff52
	SymRight     uint32 = 0xff53
	SymDown      uint32 = 0xff54
	SymPageUp    uint32 = 0xff55
	SymPageDown  uint32 = 0xff56
	SymEnd       uint32 = 0xff57
	SymInsert    uint32 = 0xff63
	SymNumLock   uint32 = 0xff7f
	SymF1        uint32 = 0xffbe
	SymF11       uint32 = 0xffc8
	SymF12       uint32 = 0xffc9
	SymShiftL    uint32 = 0xffe1
	SymShiftR    uint32 = 0xffe2
	SymControlL  uint32 = 0xffe3
	SymControlR  uint32 = 0xffe4
	SymCapsLock  uint32 = 0xffe5
	SymAltL      uint32 = 0xffe9
	SymAltR      uint32 = 0xffea
	SymSuperL    uint32 = 0xffeb
	SymSuperR    uint32 = 0xffec
	SymDelete    uint32 = 0xffff
)

// Evdev keycodes referenced by the toolkit and demos.
const (
	CodeEsc        uint32 = 1
	CodeBackspace  uint32 = 14
	CodeTab        uint32 = 15
	CodeEnter      uint32 = 28
	CodeLeftCtrl   uint32 = 29
	CodeLeftShift  uint32 = 42
	CodeRightShift uint32 = 54
	CodeLeftAlt    uint32 = 56
	CodeSpace      uint32 = 57
	CodeCapsLock   uint32 = 58
	CodeNumLock    uint32 = 69
	CodeF11        uint32 = 87
	CodeRightCtrl  uint32 = 97
	CodeRightAlt   uint32 = 100
	CodeHome       uint32 = 102
	CodeUp         uint32 = 103
	CodePageUp     uint32 = 104
	CodeLeft       uint32 = 105
	CodeRight      uint32 = 106
	CodeEnd        uint32 = 107
	CodeDown       uint32 = 108
	CodePageDown   uint32 = 109
	CodeInsert     uint32 = 110
	CodeDelete     uint32 = 111
	CodeLeftMeta   uint32 = 125
	CodeRightMeta  uint32 = 126
)

type entry struct {
	plain   uint32
	shifted uint32
	letter  bool
}

func letter(lower, upper rune) entry {
	return entry{uint32(lower), uint32(upper), true}
}

func pair(plain, shifted rune) entry {
	return entry{uint32(plain), uint32(shifted), false}
}

func fixed(sym uint32) entry {
	return entry{sym, sym, false}
}

var table = map[uint32]entry{
	CodeEsc: fixed(SymEscape),
	2:       pair('1', '!'),
	3:       pair('2', '@'),
	4:       pair('3', '#'),
	5:       pair('4', '$'),
	6:       pair('5', '%'),
	7:       pair('6', '^'),
	8:       pair('7', '&'),
	9:       pair('8', '*'),
	10:      pair('9', '('),
	11:      pair('0', ')'),
	12:      pair('-', '_'),
	13:      pair('=', '+'),

	CodeBackspace: fixed(SymBackSpace),
	CodeTab:       fixed(SymTab),

	16: letter('q', 'Q'),
	17: letter('w', 'W'),
	18: letter('e', 'E'),
	19: letter('r', 'R'),
	20: letter('t', 'T'),
	21: letter('y', 'Y'),
	22: letter('u', 'U'),
	23: letter('i', 'I'),
	24: letter('o', 'O'),
	25: letter('p', 'P'),
	26: pair('[', '{'),
	27: pair(']', '}'),

	CodeEnter: fixed(SymReturn),

	30: letter('a', 'A'),
	31: letter('s', 'S'),
	32: letter('d', 'D'),
	33: letter('f', 'F'),
	34: letter('g', 'G'),
	35: letter('h', 'H'),
	36: letter('j', 'J'),
	37: letter('k', 'K'),
	38: letter('l', 'L'),
	39: pair(';', ':'),
	40: pair('\'', '"'),
	41: pair('`', '~'),
	43: pair('\\', '|'),

	44: letter('z', 'Z'),
	45: letter('x', 'X'),
	46: letter('c', 'C'),
	47: letter('v', 'V'),
	48: letter('b', 'B'),
	49: letter('n', 'N'),
	50: letter('m', 'M'),
	51: pair(',', '<'),
	52: pair('.', '>'),
	53: pair('/', '?'),

	CodeSpace: pair(' ', ' '),

	CodeHome:     fixed(SymHome),
	CodeUp:       fixed(SymUp),
	CodePageUp:   fixed(SymPageUp),
	CodeLeft:     fixed(SymLeft),
	CodeRight:    fixed(SymRight),
	CodeEnd:      fixed(SymEnd),
	CodeDown:     fixed(SymDown),
	CodePageDown: fixed(SymPageDown),
	CodeInsert:   fixed(SymInsert),
	CodeDelete:   fixed(SymDelete),

	CodeLeftShift:  fixed(SymShiftL),
	CodeRightShift: fixed(SymShiftR),
	CodeLeftCtrl:   fixed(SymControlL),
	CodeRightCtrl:  fixed(SymControlR),
	CodeLeftAlt:    fixed(SymAltL),
	CodeRightAlt:   fixed(SymAltR),
	CodeCapsLock:   fixed(SymCapsLock),
	CodeNumLock:    fixed(SymNumLock),
	CodeLeftMeta:   fixed(SymSuperL),
	CodeRightMeta:  fixed(SymSuperR),
}

var modTable = map[uint32]uint32{
	CodeLeftShift:  ModShift,
	CodeRightShift: ModShift,
	CodeLeftCtrl:   ModCtrl,
	CodeRightCtrl:  ModCtrl,
	CodeLeftAlt:    ModAlt,
	CodeRightAlt:   ModAlt,
	CodeCapsLock:   ModCaps,
	CodeNumLock:    ModNum,
	CodeLeftMeta:   ModLogo,
	CodeRightMeta:  ModLogo,
}

func init() {
	// Function keys F1..F12 occupy two evdev ranges.
	for i := uint32(0); i < 10; i++ {
		table[59+i] = fixed(SymF1 + i)
	}
	table[87] = fixed(SymF11)
	table[88] = fixed(SymF12)
}

// ModifierBit returns the modifier mask bit for a keycode, or 0 when the
// key is not a modifier.
func ModifierBit(code uint32) uint32 {
	return modTable[code]
}

// Resolve returns the keysym for a keycode under the given modifier mask.
// Caps lock inverts shift for letters only. Unknown codes resolve to
// SymNone.
func Resolve(code, mods uint32) uint32 {
	e, ok := table[code]
	if !ok {
		return SymNone
	}
	shifted := mods&ModShift != 0
	if e.letter && mods&ModCaps != 0 {
		shifted = !shifted
	}
	if shifted {
		return e.shifted
	}
	return e.plain
}

// Rune converts a printable keysym to its rune, reporting false for
// non-printable symbols.
func Rune(sym uint32) (rune, bool) {
	if sym >= 0x20 && sym < 0x7f {
		return rune(sym), true
	}
	return 0, false
}
