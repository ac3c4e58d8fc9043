package visibility

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is the observed value of one form control: either the control's raw
// string value, or a 0/1 toggle for boolean checkboxes.
type Value struct {
	str    string
	toggle bool
	on     bool
}

// StringValue wraps a raw control value.
func StringValue(s string) Value { return Value{str: s} }

// ToggleValue wraps a boolean toggle, encoded on the wire as 1 or 0.
func ToggleValue(on bool) Value { return Value{toggle: true, on: on} }

// IsToggle reports whether v is a 0/1 toggle.
func (v Value) IsToggle() bool { return v.toggle }

// String returns the raw value, or "0"/"1" for toggles.
func (v Value) String() string {
	if v.toggle {
		if v.on {
			return "1"
		}
		return "0"
	}
	return v.str
}

// MarshalJSON encodes toggles as numbers and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.toggle {
		return []byte(v.String()), nil
	}
	return json.Marshal(v.str)
}

// MarshalYAML encodes toggles as integers and everything else as strings.
func (v Value) MarshalYAML() (any, error) {
	if v.toggle {
		if v.on {
			return 1, nil
		}
		return 0, nil
	}
	return v.str, nil
}

// UnmarshalJSON accepts a string or the numbers 0 and 1.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil || (n != 0 && n != 1) {
		return fmt.Errorf("visibility: value must be a string or 0/1, got %s", data)
	}
	*v = ToggleValue(n == 1)
	return nil
}

// Observation is the current value of one tracked control.
type Observation struct {
	FieldID    string  `json:"id" yaml:"id"`
	FormID     string  `json:"formId" yaml:"formId"`
	Value      Value   `json:"value" yaml:"value"`
	FieldIndex *string `json:"fieldIndex" yaml:"fieldIndex"`
}

// EvaluateRequest is the payload sent to the rule-evaluation service.
type EvaluateRequest struct {
	Values    []Observation `json:"values"`
	ElementID string        `json:"elementId"`
	BelongsTo string        `json:"belongsTo"`
}

// Target is the visibility of one decision key: a single flag for an element
// addressed by id, or a positional list for elements sharing a target
// attribute.
type Target struct {
	visible bool
	list    []bool
	isList  bool
}

// Single returns a target for one element.
func Single(visible bool) Target { return Target{visible: visible} }

// List returns a positional target for a group of elements.
func List(visible ...bool) Target {
	l := make([]bool, len(visible))
	copy(l, visible)
	return Target{list: l, isList: true}
}

// IsList reports whether t addresses a group of elements.
func (t Target) IsList() bool { return t.isList }

// Visible returns the flag of a single target.
func (t Target) Visible() bool { return t.visible }

// Values returns a copy of the flags of a list target.
func (t Target) Values() []bool {
	out := make([]bool, len(t.list))
	copy(out, t.list)
	return out
}

// Equal reports whether both targets carry the same visibility.
func (t Target) Equal(o Target) bool {
	if t.isList != o.isList {
		return false
	}
	if !t.isList {
		return t.visible == o.visible
	}
	if len(t.list) != len(o.list) {
		return false
	}
	for i := range t.list {
		if t.list[i] != o.list[i] {
			return false
		}
	}
	return true
}

func (t Target) MarshalJSON() ([]byte, error) {
	if t.isList {
		return json.Marshal(t.list)
	}
	return json.Marshal(t.visible)
}

// MarshalYAML encodes t the same way as MarshalJSON.
func (t Target) MarshalYAML() (any, error) {
	if t.isList {
		return t.Values(), nil
	}
	return t.visible, nil
}

// Decision maps target identifiers to their visibility, as answered by the
// rule-evaluation service.
type Decision map[string]Target

// UnmarshalJSON keeps boolean and boolean-list values and drops every other
// value type. An empty JSON array, which PHP emits for an empty associative
// array, decodes as an empty decision.
func (d *Decision) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		if len(items) > 0 {
			return fmt.Errorf("visibility: decision must be a JSON object")
		}
		*d = Decision{}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("visibility: decision must be a JSON object")
	}

	out := make(Decision, len(raw))
	for key, msg := range raw {
		msg = bytes.TrimSpace(msg)
		if len(msg) == 0 {
			continue
		}
		switch msg[0] {
		case 't', 'f':
			var b bool
			if err := json.Unmarshal(msg, &b); err == nil {
				out[key] = Single(b)
			}
		case '[':
			if l, ok := decodeFlags(msg); ok {
				out[key] = List(l...)
			}
		}
	}
	*d = out
	return nil
}

// decodeFlags rejects lists holding anything but booleans, null included.
func decodeFlags(msg json.RawMessage) ([]bool, bool) {
	var ptrs []*bool
	if err := json.Unmarshal(msg, &ptrs); err != nil {
		return nil, false
	}
	flags := make([]bool, len(ptrs))
	for i, p := range ptrs {
		if p == nil {
			return nil, false
		}
		flags[i] = *p
	}
	return flags, true
}

// Equal reports whether both decisions hold the same targets.
func (d Decision) Equal(o Decision) bool {
	if len(d) != len(o) {
		return false
	}
	for k, t := range d {
		ot, ok := o[k]
		if !ok || !t.Equal(ot) {
			return false
		}
	}
	return true
}

// ParseDecision decodes a decision from JSON.
func ParseDecision(data []byte) (Decision, error) {
	var d Decision
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse decision: %w", err)
	}
	return d, nil
}
