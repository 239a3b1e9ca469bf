package cursor

import "testing"

func TestForTool(t *testing.T) {
	tests := []struct {
		tool Tool
		want Cursor
	}{
		{Select, Default},
		{Selection, Crosshair},
		{Pen, Crosshair},
		{Eraser, Crosshair},
		{TextTool, Text},
		{MoveTool, Move},
		{Tool("laser"), Default},
	}
	for _, tt := range tests {
		t.Run(string(tt.tool), func(t *testing.T) {
			if got := ForTool(tt.tool); got != tt.want {
				t.Errorf("ForTool(%q) = %q, expected %q", tt.tool, got, tt.want)
			}
		})
	}
}

func TestManager(t *testing.T) {
	var applied []Cursor
	m := NewManager(func(c Cursor) { applied = append(applied, c) })

	if m.Tool() != Selection || m.Cursor() != Crosshair {
		t.Fatalf("unexpected initial state %q/%q", m.Tool(), m.Cursor())
	}

	m.SetTool(Select)
	if m.Cursor() != Default {
		t.Errorf("expected default cursor after select tool, got %q", m.Cursor())
	}

	m.SetTemporaryCursor(Pointer)
	if m.Cursor() != Default {
		t.Errorf("temporary cursor must not change recorded cursor, got %q", m.Cursor())
	}

	m.SetTool(Selection)
	m.ResetToToolCursor()

	want := []Cursor{Default, Pointer, Crosshair, Crosshair}
	if len(applied) != len(want) {
		t.Fatalf("applied %v, expected %v", applied, want)
	}
	for i := range want {
		if applied[i] != want[i] {
			t.Errorf("applied[%d] = %q, expected %q", i, applied[i], want[i])
		}
	}
}

func TestManagerUnbound(t *testing.T) {
	m := NewManager(nil)
	m.SetTool(Pen)
	m.SetTemporaryCursor(Wait)
	if m.Cursor() != Crosshair {
		t.Errorf("expected crosshair, got %q", m.Cursor())
	}
}
