package core

import "testing"

func TestAmountEntryInitialText(t *testing.T) {
	e := NewAmountEntry(1250)
	if e.Text() != "12,50" {
		t.Fatalf("initial text = %q, want %q", e.Text(), "12,50")
	}
	if e.Editing() {
		t.Fatal("new entry must start idle")
	}
}

func TestAmountEntryLiveFeedback(t *testing.T) {
	var live []Amount
	e := NewAmountEntry(0)
	e.NotifyLive = func(a Amount) { live = append(live, a) }

	e.Focus()
	e.Keystroke("1")
	e.Keystroke("12")
	e.Keystroke("12,")
	e.Keystroke("12,5")

	want := []Amount{100, 1200, 1200, 1250}
	if len(live) != len(want) {
		t.Fatalf("live notifications = %v, want %v", live, want)
	}
	for i := range want {
		if live[i] != want[i] {
			t.Fatalf("live[%d] = %d, want %d", i, live[i], want[i])
		}
	}
	if e.Value() != 0 {
		t.Fatalf("committed value changed before Blur: %d", e.Value())
	}
}

func TestAmountEntryCommit(t *testing.T) {
	var committed Amount = -1
	e := NewAmountEntry(0)
	e.NotifyCommitted = func(a Amount) { committed = a }

	e.Focus()
	e.Keystroke("12,5")
	e.Blur()

	if committed != 1250 {
		t.Fatalf("committed = %d, want 1250", committed)
	}
	if e.Value() != 1250 {
		t.Fatalf("value = %d, want 1250", e.Value())
	}
	if e.Text() != "12,50" {
		t.Fatalf("text after commit = %q, want %q", e.Text(), "12,50")
	}
	if e.Editing() {
		t.Fatal("entry must be idle after Blur")
	}
}

func TestAmountEntryGarbageCommitFallsBack(t *testing.T) {
	e := NewAmountEntry(700)

	// Garbage from the first keystroke: nothing valid typed, keep 7,00.
	e.Focus()
	e.Keystroke("xyz")
	e.Blur()
	if e.Value() != 700 || e.Text() != "7,00" {
		t.Fatalf("after garbage edit: value=%d text=%q", e.Value(), e.Text())
	}

	// Valid text mid-session, then cleared: commit the last valid state.
	e.Focus()
	e.Keystroke("3")
	e.Keystroke("")
	e.Blur()
	if e.Value() != 300 {
		t.Fatalf("value = %d, want 300 (last valid during edit)", e.Value())
	}
	if e.Text() != "3,00" {
		t.Fatalf("text = %q, want %q", e.Text(), "3,00")
	}
}

func TestAmountEntryCommitSafety(t *testing.T) {
	// Whatever gets typed, after Blur the display must parse back to
	// itself.
	inputs := []string{"", "abc", "3.4.5", ",,", "12,345", "0", "  9 "}
	for _, in := range inputs {
		e := NewAmountEntry(150)
		e.Focus()
		e.Keystroke(in)
		e.Blur()

		a, err := ParseAmount(e.Text())
		if err != nil {
			t.Fatalf("after typing %q display %q is unparseable: %v", in, e.Text(), err)
		}
		if FormatAmount(a) != e.Text() {
			t.Fatalf("after typing %q display %q is not canonical", in, e.Text())
		}
	}
}

func TestAmountEntryExternalChange(t *testing.T) {
	e := NewAmountEntry(100)

	// Idle: resynchronized.
	e.SetValue(2500)
	if e.Text() != "25,00" || e.Value() != 2500 {
		t.Fatalf("idle SetValue: value=%d text=%q", e.Value(), e.Text())
	}

	// Editing: user keystrokes win.
	e.Focus()
	e.Keystroke("4")
	e.SetValue(9900)
	if e.Text() != "4" {
		t.Fatalf("editing SetValue clobbered text: %q", e.Text())
	}
	e.Blur()
	if e.Value() != 400 {
		t.Fatalf("value = %d, want 400", e.Value())
	}
}

func TestAmountEntryKeystrokeWhileIdleStartsEdit(t *testing.T) {
	e := NewAmountEntry(0)
	e.Keystroke("5")
	if !e.Editing() {
		t.Fatal("keystroke must open an edit session")
	}
	e.Blur()
	if e.Value() != 500 {
		t.Fatalf("value = %d, want 500", e.Value())
	}
}
