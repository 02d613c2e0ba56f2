package widget

import (
	"net/url"
	"strings"

	"navfinder/internal/domain"
)

// BuildDownloadURL builds the navigation target for a CSV export. code and
// name are always present; start and end only when non-empty. Parameters are
// percent-encoded the way browsers' encodeURIComponent does it.
func BuildDownloadURL(endpoint string, fund domain.FundSummary, r domain.DateRange) string {
	var b strings.Builder
	b.WriteString(endpoint)
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	add := func(key, value string) {
		b.WriteString(sep)
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(escapeComponent(value))
		sep = "&"
	}

	add("code", fund.Code)
	add("name", fund.Name)
	if r.Start != "" {
		add("start", r.Start)
	}
	if r.End != "" {
		add("end", r.End)
	}
	return b.String()
}

// componentUnescape restores the marks encodeURIComponent leaves alone but
// url.QueryEscape encodes, and spells spaces as %20.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func escapeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
