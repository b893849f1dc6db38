package variables

import (
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

// FormatValues renders the values of a variable for interpolation using the
// named format. An empty format behaves like raw.
func FormatValues(values []string, format string) (string, error) {
	switch format {
	case "", FormatRaw, FormatCSV:
		return strings.Join(values, ","), nil
	case FormatHTML:
		escaped := make([]string, len(values))
		for i, v := range values {
			escaped[i] = html.EscapeString(v)
		}
		return strings.Join(escaped, ", "), nil
	case FormatPipe:
		return strings.Join(values, "|"), nil
	case FormatJSON:
		var data []byte
		var err error
		if len(values) == 1 {
			data, err = json.Marshal(values[0])
		} else {
			data, err = json.Marshal(values)
		}
		if err != nil {
			return "", fmt.Errorf("encoding json value: %w", err)
		}
		return string(data), nil
	case FormatPercentEncode:
		if len(values) == 1 {
			return percentEncode(values[0]), nil
		}
		return percentEncode("{" + strings.Join(values, ",") + "}"), nil
	case FormatGlob:
		if len(values) == 1 {
			return values[0], nil
		}
		return "{" + strings.Join(values, ",") + "}", nil
	case FormatRegex:
		quoted := make([]string, len(values))
		for i, v := range values {
			quoted[i] = regexp.QuoteMeta(v)
		}
		if len(quoted) == 1 {
			return quoted[0], nil
		}
		return "(" + strings.Join(quoted, "|") + ")", nil
	default:
		return "", fmt.Errorf("unknown variable format %q", format)
	}
}

// uriComponentUnescaper undoes the escapes url.QueryEscape applies to
// characters encodeURIComponent leaves alone.
var uriComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// percentEncode matches encodeURIComponent.
func percentEncode(s string) string {
	return uriComponentUnescaper.Replace(url.QueryEscape(s))
}
