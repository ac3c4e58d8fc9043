package watch

import (
	"github.com/acptdev/condrules/internal/htmlform"
)

// Change is a control whose value or checked state differs between two
// parses of the same form. Controls are matched by name, form id and their
// position among controls sharing both.
type Change struct {
	Name       string
	FormID     string
	Occurrence int
	Value      string
	Checked    bool
}

type controlKey struct {
	name       string
	formID     string
	occurrence int
}

type controlState struct {
	value   string
	checked bool
}

func snapshot(doc *htmlform.Document) ([]controlKey, map[controlKey]controlState) {
	seen := make(map[[2]string]int)
	var order []controlKey
	states := make(map[controlKey]controlState)
	for _, c := range doc.Controls() {
		id := [2]string{c.Name(), c.FormID()}
		k := controlKey{name: id[0], formID: id[1], occurrence: seen[id]}
		seen[id]++
		order = append(order, k)
		states[k] = controlState{value: c.RawValue(), checked: c.Checked()}
	}
	return order, states
}

// Diff returns the controls of next whose state differs from prev, in
// document order. Controls present in only one of the documents are skipped.
func Diff(prev, next *htmlform.Document) []Change {
	_, before := snapshot(prev)
	order, after := snapshot(next)

	var changes []Change
	for _, k := range order {
		old, ok := before[k]
		if !ok {
			continue
		}
		cur := after[k]
		if cur == old {
			continue
		}
		changes = append(changes, Change{
			Name:       k.name,
			FormID:     k.formID,
			Occurrence: k.occurrence,
			Value:      cur.value,
			Checked:    cur.checked,
		})
	}
	return changes
}

// ApplyTo copies the change onto the matching control of doc and returns it.
func (c Change) ApplyTo(doc *htmlform.Document) (*htmlform.Control, bool) {
	ctrl, ok := doc.Control(c.Name, c.FormID, c.Occurrence)
	if !ok {
		return nil, false
	}
	switch ctrl.Type() {
	case "checkbox", "radio":
		ctrl.SetChecked(c.Checked)
	default:
		ctrl.SetValue(c.Value)
	}
	return ctrl, true
}
