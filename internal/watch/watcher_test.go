package watch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/acptdev/condrules/internal/htmlform"
	"github.com/acptdev/condrules/internal/testutil"
)

func mustParse(t *testing.T, s string) *htmlform.Document {
	t.Helper()
	doc, err := htmlform.ParseString(s)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	return doc
}

func TestDiff_NoChanges(t *testing.T) {
	a := mustParse(t, testutil.SampleForm)
	b := mustParse(t, testutil.SampleForm)
	if changes := Diff(a, b); len(changes) != 0 {
		t.Errorf("Expected no changes, got %+v", changes)
	}
}

func TestDiff_ReportsOnlyChangedControls(t *testing.T) {
	edited := strings.Replace(testutil.SampleForm, `value="second"`, `value="changed"`, 1)
	edited = strings.Replace(edited, `value="1" checked`, `value="1"`, 1)

	changes := Diff(mustParse(t, testutil.SampleForm), mustParse(t, edited))
	if len(changes) != 2 {
		t.Fatalf("Expected 2 changes, got %+v", changes)
	}

	if changes[0].Name != "show_details" || changes[0].Checked {
		t.Errorf("Expected unchecked show_details first, got %+v", changes[0])
	}
	note := changes[1]
	if note.Name != "note" || note.FormID != "rep_2" || note.Occurrence != 0 || note.Value != "changed" {
		t.Errorf("Unexpected note change: %+v", note)
	}
}

func TestDiff_OccurrenceWithinSameNameAndForm(t *testing.T) {
	const before = `<input name="tag" value="a" data-conditional-rules-id="f"><input name="tag" value="b" data-conditional-rules-id="f">`
	const after = `<input name="tag" value="a" data-conditional-rules-id="f"><input name="tag" value="c" data-conditional-rules-id="f">`

	changes := Diff(mustParse(t, before), mustParse(t, after))
	if len(changes) != 1 || changes[0].Occurrence != 1 || changes[0].Value != "c" {
		t.Errorf("Expected second occurrence to change, got %+v", changes)
	}
}

func TestChange_ApplyTo(t *testing.T) {
	live := mustParse(t, testutil.SampleForm)

	ctrl, ok := Change{Name: "color", FormID: "box_1", Value: "red"}.ApplyTo(live)
	if !ok {
		t.Fatal("Expected color control")
	}
	if ctrl.RawValue() != "red" {
		t.Errorf("Expected red, got %s", ctrl.RawValue())
	}

	box, ok := Change{Name: "show_details", FormID: "box_1", Value: "1", Checked: false}.ApplyTo(live)
	if !ok {
		t.Fatal("Expected checkbox control")
	}
	if box.Checked() {
		t.Error("Expected checkbox to be unchecked")
	}

	if _, ok := (Change{Name: "missing", FormID: "box_1"}).ApplyTo(live); ok {
		t.Error("Expected unknown control to be reported missing")
	}
}

func TestWatcher_ReportsFileEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.html")
	if err := os.WriteFile(path, []byte(testutil.SampleForm), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got := make(chan []Change, 4)
	w := NewWatcher(path, func(c []Change) { got <- c }, WithSettle(20*time.Millisecond))
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	// unrelated files in the directory are ignored
	_ = os.WriteFile(filepath.Join(dir, "other.html"), []byte("x"), 0o600)

	edited := strings.Replace(testutil.SampleForm, `>hello<`, `>bye<`, 1)
	if err := os.WriteFile(path, []byte(edited), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	select {
	case changes := <-got:
		if len(changes) != 1 || changes[0].Name != "summary" || changes[0].Value != "bye" {
			t.Errorf("Unexpected changes: %+v", changes)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for change notification")
	}

	ctrl, ok := w.Current().Control("summary", "box_1", 0)
	if !ok || ctrl.RawValue() != "bye" {
		t.Error("Expected Current to hold the latest parse")
	}
}

func TestWatcher_StartFailsForMissingFile(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope.html"), func([]Change) {})
	if err := w.Start(); err == nil {
		t.Error("Expected error for missing file")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop after failed Start returned %v", err)
	}
}
