package visibility

// Control is one form control that takes part in conditional rules.
type Control interface {
	// Name is the control's element name, used as the observation's field id.
	Name() string
	// FormID identifies the form or block instance the control belongs to.
	FormID() string
	// FieldIndex is the control's position within a repeating group, if any.
	FieldIndex() (string, bool)
	// Type is the lower-cased control type ("checkbox", "text", "select", ...).
	Type() string
	// RawValue is the control's value attribute or current text.
	RawValue() string
	// Checked reports the checked state of checkboxes and radios.
	Checked() bool
}

// Element is a visibility target.
type Element interface {
	SetHidden(hidden bool)
}

// FormScope gives the client access to the participating controls and the
// elements a decision can address. It replaces direct document access so the
// client can run against any document model.
type FormScope interface {
	// Controls returns every participating control in document order.
	Controls() []Control
	// ElementByID returns the element with the given unique id.
	ElementByID(id string) (Element, bool)
	// ElementsByTarget returns, in document order, every element sharing the
	// given target attribute.
	ElementsByTarget(target string) []Element
}

// EventKind distinguishes the listener that produced a ChangeEvent. Both
// kinds are handled identically.
type EventKind string

const (
	EventChange EventKind = "change"
	EventKeyUp  EventKind = "keyup"
)

// ChangeEvent reports that a control's value may have changed.
type ChangeEvent struct {
	Kind    EventKind
	Control Control
}

// toggleValueAttr is the value attribute that marks a checkbox as a boolean
// toggle.
const toggleValueAttr = "1"

// ReadValue reads a control the way the rule-evaluation service expects:
// toggle checkboxes become 0/1, everything else is the raw value.
func ReadValue(c Control) Value {
	if c.Type() == "checkbox" && c.RawValue() == toggleValueAttr {
		return ToggleValue(c.Checked())
	}
	return StringValue(c.RawValue())
}

// Observe builds the observation for c.
func Observe(c Control) Observation {
	obs := Observation{
		FieldID: c.Name(),
		FormID:  c.FormID(),
		Value:   ReadValue(c),
	}
	if idx, ok := c.FieldIndex(); ok {
		obs.FieldIndex = &idx
	}
	return obs
}
