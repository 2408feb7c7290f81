package resources

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Format selects how records are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatYAML:
		return FormatYAML, nil
	}

	return "", fmt.Errorf("%w: unknown output format %q (want table or yaml)", apperrors.ErrValidation, s)
}

// RenderList prints records of kind k.
func RenderList(w io.Writer, k *Kind, records []Record, format Format) error {
	if format == FormatYAML {
		return renderYAML(w, records)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintf(w, "No %s found.\n", k.Name)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := make([]string, len(k.Columns))
	for i, c := range k.Columns {
		headers[i] = strings.ToUpper(c.Header)
	}

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, r := range records {
		cells := make([]string, len(k.Columns))
		for i, c := range k.Columns {
			cells[i] = cell(r.Value(c))
		}

		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}

// RenderRecord prints every top-level field of one record.
func RenderRecord(w io.Writer, r Record, format Format) error {
	if format == FormatYAML {
		return renderYAML(w, r)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	r.raw.ForEach(func(key, value gjson.Result) bool {
		v := value.String()
		if value.IsObject() || value.IsArray() {
			v = value.Get("@ugly").Raw
		}

		fmt.Fprintf(tw, "%s:\t%s\n", key.String(), cell(v))

		return true
	})

	return tw.Flush()
}

// cell makes a value safe for a single tabwriter cell.
func cell(s string) string {
	if s == "" {
		return "-"
	}

	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}

func renderYAML(w io.Writer, v interface{}) error {
	var out interface{}

	switch x := v.(type) {
	case Record:
		d, err := x.decoded()
		if err != nil {
			return err
		}

		out = d
	case []Record:
		list := make([]interface{}, 0, len(x))

		for _, r := range x {
			d, err := r.decoded()
			if err != nil {
				return err
			}

			list = append(list, d)
		}

		out = list
	default:
		out = v
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}

	return enc.Close()
}

// Diff returns a line diff of two records. Unchanged lines are prefixed
// with two spaces, removed lines with "- " and added lines with "+ ".
func Diff(before, after Record) string {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(before.Pretty(), after.Pretty())
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder

	for _, d := range diffs {
		prefix := "  "

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			sb.WriteString(prefix)
			sb.WriteString(line)

			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}

// Changed reports whether the update altered the record.
func (c Change) Changed() bool {
	return c.Before.Pretty() != c.After.Pretty()
}
