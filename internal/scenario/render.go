package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/comalice/storex"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Render writes res in the given format. Output is deterministic: fields are
// printed in sorted order.
func Render(w io.Writer, res *Result, format string) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("json marshal: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case FormatText, "":
		_, err := io.WriteString(w, renderText(res))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func renderText(res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", res.Name)
	for _, e := range res.Trace {
		fmt.Fprintf(&b, "#%d %s %s\n", e.Seq, e.Action, FormatState(e.State))
	}
	fmt.Fprintf(&b, "final: %s\n", FormatState(res.Final))
	if res.Passed() {
		b.WriteString("expect: ok\n")
		return b.String()
	}
	b.WriteString("expect: FAILED\n")
	for _, m := range res.Mismatches {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	return b.String()
}

// FormatState prints fields as space-separated key=value pairs in key order.
func FormatState(s storex.State) string {
	if len(s) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(s))
	for _, k := range s.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%v", k, s[k]))
	}
	return strings.Join(parts, " ")
}
