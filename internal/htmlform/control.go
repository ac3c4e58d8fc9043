package htmlform

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Control is a participating form control backed by an HTML node.
type Control struct {
	doc *Document
	n   *html.Node
}

func (c *Control) Name() string {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	v, _ := attr(c.n, "name")
	return v
}

func (c *Control) FormID() string {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	v, _ := attr(c.n, AttrRulesID)
	return v
}

func (c *Control) FieldIndex() (string, bool) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return attr(c.n, AttrFieldIndex)
}

// Type is the lower-cased input type, or "select"/"textarea".
func (c *Control) Type() string {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	return controlType(c.n)
}

// RawValue follows browser semantics: the value attribute for inputs ("on"
// for checkboxes and radios without one), the selected option for selects
// and the text content for textareas.
func (c *Control) RawValue() string {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()

	switch c.n.DataAtom {
	case atom.Select:
		return selectValue(c.n)
	case atom.Textarea:
		return textContent(c.n)
	}
	v, ok := attr(c.n, "value")
	if !ok {
		switch controlType(c.n) {
		case "checkbox", "radio":
			return "on"
		}
	}
	return v
}

func (c *Control) Checked() bool {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	_, ok := attr(c.n, "checked")
	return ok
}

// SetValue changes the control's current value. For selects it selects the
// option carrying value.
func (c *Control) SetValue(value string) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()

	switch c.n.DataAtom {
	case atom.Select:
		for _, opt := range options(c.n) {
			if optionValue(opt) == value {
				setAttr(opt, "selected", "")
			} else {
				removeAttr(opt, "selected")
			}
		}
	case atom.Textarea:
		setTextContent(c.n, value)
	default:
		setAttr(c.n, "value", value)
	}
}

// SetChecked changes the checked state of a checkbox or radio.
func (c *Control) SetChecked(checked bool) {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()
	if checked {
		setAttr(c.n, "checked", "")
	} else {
		removeAttr(c.n, "checked")
	}
}

func controlType(n *html.Node) string {
	switch n.DataAtom {
	case atom.Select:
		return "select"
	case atom.Textarea:
		return "textarea"
	}
	t, ok := attr(n, "type")
	if !ok || t == "" {
		return "text"
	}
	return strings.ToLower(t)
}

func options(sel *html.Node) []*html.Node {
	var out []*html.Node
	walk(sel, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			out = append(out, n)
		}
		return true
	})
	return out
}

func optionValue(opt *html.Node) string {
	if v, ok := attr(opt, "value"); ok {
		return v
	}
	return strings.TrimSpace(textContent(opt))
}

// selectValue returns the value of the last selected option, or of the first
// option when none is selected.
func selectValue(sel *html.Node) string {
	opts := options(sel)
	if len(opts) == 0 {
		return ""
	}
	chosen := opts[0]
	for _, opt := range opts {
		if _, ok := attr(opt, "selected"); ok {
			chosen = opt
		}
	}
	return optionValue(chosen)
}

// Element is a visibility target backed by an HTML node.
type Element struct {
	doc *Document
	n   *html.Node
}

// SetHidden adds or removes the hidden class.
func (e *Element) SetHidden(hidden bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	classes := strings.Fields(classAttr(e.n))
	out := classes[:0]
	for _, cls := range classes {
		if cls != HiddenClass {
			out = append(out, cls)
		}
	}
	if hidden {
		out = append(out, HiddenClass)
	}
	if len(out) == 0 {
		removeAttr(e.n, "class")
		return
	}
	setAttr(e.n, "class", strings.Join(out, " "))
}

// Hidden reports whether the element carries the hidden class.
func (e *Element) Hidden() bool {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for _, cls := range strings.Fields(classAttr(e.n)) {
		if cls == HiddenClass {
			return true
		}
	}
	return false
}

func classAttr(n *html.Node) string {
	v, _ := attr(n, "class")
	return v
}
