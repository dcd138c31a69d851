package core

// AmountEntry drives an interactive amount field as an explicit two-phase
// state machine: a tentative value while the user types, a committed one
// once editing ends. It has no UI dependency; the owning surface feeds it
// focus changes and keystrokes and observes the two callbacks.
//
// Entry fields take non-negative input only; negative amounts exist in
// derived balances but are never typed.
type AmountEntry struct {
	editing bool
	text    string
	value   Amount

	// Tentative state of the current edit session.
	liveValue Amount
	liveValid bool

	// NotifyLive fires on every keystroke that parses, before commit.
	// NotifyCommitted fires once per commit with the final amount.
	NotifyLive      func(Amount)
	NotifyCommitted func(Amount)
}

// NewAmountEntry builds an idle entry displaying the initial amount.
func NewAmountEntry(initial Amount) *AmountEntry {
	return &AmountEntry{
		value: initial,
		text:  FormatForEditing(initial),
	}
}

// Text is the current display text. Outside an active edit it always
// satisfies FormatAmount(ParseAmount(Text())) == Text().
func (e *AmountEntry) Text() string { return e.text }

// Value is the last committed amount.
func (e *AmountEntry) Value() Amount { return e.value }

// Editing reports whether an edit session is active.
func (e *AmountEntry) Editing() bool { return e.editing }

// Focus starts an edit session. The full text is considered selected by
// the surface, so the next keystroke usually replaces it wholesale.
func (e *AmountEntry) Focus() {
	if e.editing {
		return
	}
	e.editing = true
	e.liveValid = false
}

// Keystroke takes the raw field content after a keystroke, sanitizes it
// to digits plus a single decimal separator with at most two fraction
// digits, and updates the display. When the sanitized text parses, the
// tentative value is pushed through NotifyLive as best-effort feedback;
// when it does not, the keystroke simply produces no live update.
func (e *AmountEntry) Keystroke(raw string) {
	if !e.editing {
		e.Focus()
	}
	e.text = sanitizeEntryText(raw)

	a, err := ParseAmount(e.text)
	if err != nil {
		return
	}
	e.liveValue = a
	e.liveValid = true
	if e.NotifyLive != nil {
		e.NotifyLive(a)
	}
}

// Blur commits the edit session. The display text is parsed; if it no
// longer parses, the commit falls back to the last value that was valid
// during the session, or to the pre-edit amount when nothing valid was
// ever typed. Either way the display is rewritten to the canonical
// format, so the field never shows an unparseable string once idle.
func (e *AmountEntry) Blur() {
	if !e.editing {
		return
	}

	if a, err := ParseAmount(e.text); err == nil {
		e.value = a
	} else if e.liveValid {
		e.value = e.liveValue
	}

	e.editing = false
	e.liveValid = false
	e.text = FormatAmount(e.value)
	if e.NotifyCommitted != nil {
		e.NotifyCommitted(e.value)
	}
}

// SetValue resynchronizes the field after an external value change. While
// an edit is active the change is ignored so in-progress keystrokes are
// not clobbered; the external value simply loses to the user.
func (e *AmountEntry) SetValue(a Amount) {
	if e.editing {
		return
	}
	e.value = a
	e.text = FormatAmount(a)
}
