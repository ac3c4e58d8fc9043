package visibility

import (
	"encoding/json"
	"testing"
)

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision([]byte(`{
		"box": false,
		"panel": true,
		"rows": [true, false, true],
		"label": "yes",
		"count": 3,
		"nested": {"a": true},
		"holes": [true, null],
		"mixed": [true, 1],
		"nothing": null
	}`))
	if err != nil {
		t.Fatalf("ParseDecision failed: %v", err)
	}

	want := Decision{
		"box":   Single(false),
		"panel": Single(true),
		"rows":  List(true, false, true),
	}
	if !d.Equal(want) {
		t.Errorf("Expected %v, got %v", want, d)
	}
}

func TestParseDecision_RejectsNonObject(t *testing.T) {
	for _, in := range []string{`null`, `[true]`, `"x"`, `{`} {
		if _, err := ParseDecision([]byte(in)); err == nil {
			t.Errorf("Expected error for %s", in)
		}
	}
}

func TestParseDecision_EmptyArray(t *testing.T) {
	for _, in := range []string{`[]`, ` [ ] `} {
		d, err := ParseDecision([]byte(in))
		if err != nil {
			t.Fatalf("ParseDecision(%q) failed: %v", in, err)
		}
		if d == nil || len(d) != 0 {
			t.Errorf("Expected empty non-nil decision for %q, got %#v", in, d)
		}
	}
}

func TestDecision_MarshalRoundTrip(t *testing.T) {
	d := Decision{"a": Single(true), "b": List(false, true)}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	back, err := ParseDecision(data)
	if err != nil {
		t.Fatalf("ParseDecision failed: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("Expected %v, got %v", d, back)
	}
}

func TestReadValue(t *testing.T) {
	tests := []struct {
		name    string
		control *fakeControl
		want    string
		toggle  bool
	}{
		{"checked toggle", &fakeControl{typ: "checkbox", value: "1", checked: true}, "1", true},
		{"unchecked toggle", &fakeControl{typ: "checkbox", value: "1", checked: false}, "0", true},
		{"checkbox with other value", &fakeControl{typ: "checkbox", value: "on", checked: true}, "on", false},
		{"text", &fakeControl{typ: "text", value: "1"}, "1", false},
		{"select", &fakeControl{typ: "select", value: "red"}, "red", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ReadValue(tt.control)
			if v.String() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, v.String())
			}
			if v.IsToggle() != tt.toggle {
				t.Errorf("Expected toggle=%v, got %v", tt.toggle, v.IsToggle())
			}
		})
	}
}

func TestValue_JSON(t *testing.T) {
	on, _ := json.Marshal(ToggleValue(true))
	off, _ := json.Marshal(ToggleValue(false))
	str, _ := json.Marshal(StringValue("1"))

	if string(on) != "1" || string(off) != "0" {
		t.Errorf("Expected toggles to encode as numbers, got %s and %s", on, off)
	}
	if string(str) != `"1"` {
		t.Errorf("Expected string value to stay a string, got %s", str)
	}

	var v Value
	if err := json.Unmarshal([]byte("1"), &v); err != nil || !v.IsToggle() {
		t.Errorf("Expected 1 to decode as toggle, got %v (err %v)", v, err)
	}
	if err := json.Unmarshal([]byte("7"), &v); err == nil {
		t.Error("Expected 7 to be rejected")
	}
}
