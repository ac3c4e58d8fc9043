// Package htmlform exposes an HTML form document as a visibility.FormScope.
//
// Participating controls are input, select and textarea elements carrying
// data-conditional-rules-id. Targets are addressed by id (single) or by the
// shared data-id attribute (list), and are hidden through the "hidden" class.
package htmlform

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/acptdev/condrules/internal/visibility"
)

const (
	AttrRulesID    = "data-conditional-rules-id"
	AttrFieldIndex = "data-conditional-rules-field-index"
	AttrTarget     = "data-id"
	HiddenClass    = "hidden"
)

// Document is a parsed HTML form. It is safe for concurrent use.
type Document struct {
	mu   sync.Mutex
	root *html.Node
}

// Parse reads an HTML document or fragment.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString parses s as HTML.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render writes the document, including visibility changes, to w.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String renders the document; rendering errors yield an empty string.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Controls returns every participating control in document order.
func (d *Document) Controls() []visibility.Control {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []visibility.Control
	walk(d.root, func(n *html.Node) bool {
		if isControl(n) {
			out = append(out, &Control{doc: d, n: n})
		}
		return true
	})
	return out
}

// ElementByID returns the first element whose id is id.
func (d *Document) ElementByID(id string) (visibility.Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if v, ok := attr(n, "id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil, false
	}
	return &Element{doc: d, n: found}, true
}

// ElementsByTarget returns every element whose data-id is target, in
// document order.
func (d *Document) ElementsByTarget(target string) []visibility.Element {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []visibility.Element
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if v, ok := attr(n, AttrTarget); ok && v == target {
				out = append(out, &Element{doc: d, n: n})
			}
		}
		return true
	})
	return out
}

// Control returns the occurrence-th control (0-based) named name in form
// formID.
func (d *Document) Control(name, formID string, occurrence int) (*Control, bool) {
	for _, c := range d.controlsMatching(name, formID) {
		if occurrence == 0 {
			return c, true
		}
		occurrence--
	}
	return nil, false
}

func (d *Document) controlsMatching(name, formID string) []*Control {
	var out []*Control
	for _, vc := range d.Controls() {
		c := vc.(*Control)
		if c.Name() == name && c.FormID() == formID {
			out = append(out, c)
		}
	}
	return out
}

// walk visits n and its descendants depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func isControl(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Input, atom.Select, atom.Textarea:
	default:
		return false
	}
	_, ok := attr(n, AttrRulesID)
	return ok
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

func setTextContent(n *html.Node, s string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}
