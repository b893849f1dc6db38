package variables

import "time"

// Variable is a named dashboard variable. Multi-value variables keep their
// values in selection order.
type Variable struct {
	Name      string    `json:"name"`
	Values    []string  `json:"values"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScopedVars override stored variables for a single substitution call.
type ScopedVars map[string]Variable

// Format names accepted by Replace and the ${name:format} syntax.
const (
	FormatRaw           = "raw"
	FormatHTML          = "html"
	FormatCSV           = "csv"
	FormatPipe          = "pipe"
	FormatJSON          = "json"
	FormatPercentEncode = "percentencode"
	FormatGlob          = "glob"
	FormatRegex         = "regex"
)
