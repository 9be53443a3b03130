package cmd

import (
	"fmt"
	"strings"

	"github.com/ThomasT75/uinput"
	"github.com/spf13/cobra"

	"github.com/bnema/wltk/internal/keymap"
	"github.com/bnema/wltk/internal/logger"
	"github.com/bnema/wltk/internal/protocols"
	"github.com/bnema/wltk/internal/toolkit"
)

var keyboardInject bool

var keyboardCmd = &cobra.Command{
	Use:   "keyboard",
	Short: "An on-screen keyboard",
	Long: `Show a four-row keyboard. Clicking a key highlights it; with
--inject the key is also pressed on a uinput virtual keyboard, which
needs write access to /dev/uinput.`,
	RunE: runKeyboard,
}

func init() {
	keyboardCmd.Flags().BoolVar(&keyboardInject, "inject", false, "Press clicked keys on a virtual uinput keyboard")
}

const (
	kbUnit   = 32
	kbGap    = 4
	kbInset  = 8
	kbHeight = 32
)

// kbKey is one on-screen key: its evdev code, the printed label and the
// rectangle it occupies in surface coordinates.
type kbKey struct {
	code    uint32
	label   string
	rect    toolkit.Rectangle
	pressed bool
}

// kbSpec describes a key before layout: width in units of kbUnit.
type kbSpec struct {
	code  uint32
	units float64
}

func kbRows() [][]kbSpec {
	row := func(from, to uint32) []kbSpec {
		var specs []kbSpec
		for code := from; code <= to; code++ {
			specs = append(specs, kbSpec{code: code, units: 1})
		}
		return specs
	}
	r0 := append(row(2, 13), kbSpec{code: keymap.CodeBackspace, units: 1.5})
	r1 := append([]kbSpec{{code: keymap.CodeTab, units: 1.5}}, row(16, 27)...)
	r2 := append(row(30, 40), kbSpec{code: keymap.CodeEnter, units: 2})
	r3 := append([]kbSpec{{code: keymap.CodeLeftShift, units: 2}}, row(44, 53)...)
	r3 = append(r3, kbSpec{code: keymap.CodeSpace, units: 2.5})
	return [][]kbSpec{r0, r1, r2, r3}
}

func kbLabel(code uint32) string {
	switch code {
	case keymap.CodeBackspace:
		return "Bksp"
	case keymap.CodeTab:
		return "Tab"
	case keymap.CodeEnter:
		return "Enter"
	case keymap.CodeLeftShift:
		return "Shift"
	case keymap.CodeSpace:
		return ""
	}
	sym := keymap.Resolve(code, 0)
	if r, ok := keymap.Rune(sym); ok {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// layoutKeys places the rows inside the child area and returns the keys
// plus the child size they need.
func layoutKeys(rows [][]kbSpec) (keys []*kbKey, width, height int32) {
	for r, specs := range rows {
		x := 0.0
		y := kbInset + int32(r)*(kbHeight+kbGap)
		for _, s := range specs {
			w := s.units*kbUnit + (s.units-1)*kbGap
			keys = append(keys, &kbKey{
				code:  s.code,
				label: kbLabel(s.code),
				rect: toolkit.Rectangle{
					X: kbInset + int32(x), Y: y,
					Width: int32(w), Height: kbHeight,
				},
			})
			x += w + kbGap
		}
		if rw := kbInset + int32(x) - kbGap + kbInset; rw > width {
			width = rw
		}
	}
	height = kbInset + int32(len(rows))*(kbHeight+kbGap) - kbGap + kbInset
	return keys, width, height
}

type keyboard struct {
	window  *toolkit.Window
	keys    []*kbKey
	virtual uinput.Keyboard
}

func (k *keyboard) redraw(w *toolkit.Window) {
	if err := w.Draw(); err != nil {
		return
	}
	dc := w.Canvas()
	child := w.ChildAllocation()

	dc.DrawRectangle(float64(child.X), float64(child.Y),
		float64(child.Width), float64(child.Height))
	dc.SetRGB(0.17, 0.17, 0.2)
	dc.Fill()

	dc.SetFont(w.Display().Theme().TitleFace())
	for _, key := range k.keys {
		x := float64(child.X + key.rect.X)
		y := float64(child.Y + key.rect.Y)
		dc.DrawRoundedRectangle(x, y, float64(key.rect.Width), float64(key.rect.Height), 4)
		if key.pressed {
			dc.SetRGB(0.36, 0.51, 0.76)
		} else {
			dc.SetRGB(0.78, 0.78, 0.8)
		}
		dc.Fill()
		if key.pressed {
			dc.SetRGB(1, 1, 1)
		} else {
			dc.SetRGB(0.1, 0.1, 0.1)
		}
		dc.DrawStringAnchored(key.label,
			x+float64(key.rect.Width)/2, y+float64(key.rect.Height)/2, 0.5, 0.5)
	}

	w.Flush()
}

func (k *keyboard) press(key *kbKey, pressed bool) {
	key.pressed = pressed
	k.window.ScheduleRedraw()
	if k.virtual == nil {
		return
	}
	var err error
	if pressed {
		err = k.virtual.KeyDown(int(key.code))
	} else {
		err = k.virtual.KeyUp(int(key.code))
	}
	if err != nil {
		logger.Warn("failed to inject key", "code", key.code, "error", err)
	}
}

func (k *keyboard) button(w *toolkit.Window, in *toolkit.Input, t, button, state uint32) {
	if button != protocols.BtnLeft {
		return
	}
	item := w.FocusItem()
	if item == nil {
		return
	}
	key, ok := item.UserData().(*kbKey)
	if !ok {
		return
	}
	k.press(key, state == protocols.ButtonStatePressed)
}

// Physical keys light up their on-screen twin.
func (k *keyboard) key(w *toolkit.Window, in *toolkit.Input, t, code, sym, state uint32) {
	for _, key := range k.keys {
		if key.code == code {
			key.pressed = state != 0
			w.ScheduleRedraw()
			return
		}
	}
}

func runKeyboard(cmd *cobra.Command, args []string) error {
	d, err := toolkit.Create()
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer d.Close()

	keys, childWidth, childHeight := layoutKeys(kbRows())

	w, err := d.CreateWindow(childWidth, childHeight)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	w.SetTitle("Virtual keyboard")
	w.SetChildSize(childWidth, childHeight)

	k := &keyboard{window: w, keys: keys}
	if keyboardInject {
		virtual, err := uinput.CreateKeyboard("/dev/uinput", []byte("wltk virtual keyboard"))
		if err != nil {
			return fmt.Errorf("failed to create uinput keyboard: %w", err)
		}
		defer virtual.Close()
		k.virtual = virtual
	}

	child := w.ChildAllocation()
	for _, key := range keys {
		item := w.AddItem(key)
		item.SetAllocation(child.X+key.rect.X, child.Y+key.rect.Y,
			key.rect.Width, key.rect.Height)
	}

	w.SetRedrawHandler(k.redraw)
	w.SetButtonHandler(k.button)
	w.SetKeyHandler(k.key)
	w.SetItemFocusHandler(func(w *toolkit.Window, item *toolkit.Item) {
		w.ScheduleRedraw()
	})
	w.SetResizeHandler(func(w *toolkit.Window, width, height int32) {
		// Fixed layout; put the size back.
		w.SetChildSize(childWidth, childHeight)
		w.ScheduleRedraw()
	})

	w.ScheduleRedraw()
	return d.Run()
}
