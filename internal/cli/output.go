package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/acptdev/condrules/internal/ajax"
	"github.com/acptdev/condrules/internal/visibility"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use table, json or yaml)", s)
	}
}

// PrintDecision outputs a decision, one row per target in table format.
func PrintDecision(w io.Writer, d visibility.Decision, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, d)
	case FormatYAML:
		return printYAML(w, d)
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header("Target", "Kind", "Visible")
		for _, key := range sortedKeys(d) {
			t := d[key]
			if t.IsList() {
				if err := table.Append(key, "list", formatFlags(t.Values())); err != nil {
					return err
				}
				continue
			}
			if err := table.Append(key, "single", strconv.FormatBool(t.Visible())); err != nil {
				return err
			}
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintObservations outputs the tracked control values.
func PrintObservations(w io.Writer, obs []visibility.Observation, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, map[string][]visibility.Observation{"values": obs})
	case FormatYAML:
		return printYAML(w, map[string][]visibility.Observation{"values": obs})
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header("Field", "Form", "Index", "Value")
		for _, o := range obs {
			index := "-"
			if o.FieldIndex != nil {
				index = *o.FieldIndex
			}
			value := o.Value.String()
			if o.Value.IsToggle() {
				value += " (toggle)"
			}
			if len(value) > 40 {
				value = value[:37] + "..."
			}
			if err := table.Append(o.FieldID, o.FormID, index, value); err != nil {
				return err
			}
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintTranslations outputs the admin translation table with entities
// decoded.
func PrintTranslations(w io.Writer, t ajax.Translations, format OutputFormat) error {
	decoded := make(map[string]string, len(t))
	for k := range t {
		decoded[k] = t.Translate(k)
	}
	switch format {
	case FormatJSON:
		return printJSON(w, decoded)
	case FormatYAML:
		return printYAML(w, decoded)
	case FormatTable:
		keys := make([]string, 0, len(decoded))
		for k := range decoded {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		table := tablewriter.NewWriter(w)
		table.Header("Key", "Translation")
		for _, k := range keys {
			if err := table.Append(k, decoded[k]); err != nil {
				return err
			}
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintPages outputs the pages that have a cached decision.
func PrintPages(w io.Writer, pages []string, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, map[string][]string{"pages": pages})
	case FormatYAML:
		return printYAML(w, map[string][]string{"pages": pages})
	case FormatTable:
		table := tablewriter.NewWriter(w)
		table.Header("Page")
		for _, p := range pages {
			if err := table.Append(p); err != nil {
				return err
			}
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintSettings outputs key/value settings, sorted by key.
func PrintSettings(w io.Writer, settings map[string]string, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(w, settings)
	case FormatYAML:
		return printYAML(w, settings)
	case FormatTable:
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		table := tablewriter.NewWriter(w)
		table.Header("Setting", "Value")
		for _, k := range keys {
			if err := table.Append(k, settings[k]); err != nil {
				return err
			}
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func sortedKeys(d visibility.Decision) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFlags(flags []bool) string {
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = strconv.FormatBool(f)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
