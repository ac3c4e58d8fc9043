package ajax

import "golang.org/x/net/html"

// Translations maps plugin UI strings to their translated form, as served by
// languagesAction. Values may be HTML-entity encoded.
type Translations map[string]string

// Translate returns the translation of s, or s itself when no non-empty
// translation exists.
func (t Translations) Translate(s string) string {
	if tr, ok := t[s]; ok && tr != "" {
		return html.UnescapeString(tr)
	}
	return s
}
