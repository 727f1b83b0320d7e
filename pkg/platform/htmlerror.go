package platform

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryLen = 200

// summarizeBody turns a non-JSON response body into a short single-line
// description. Load balancers in front of the Platform answer with HTML pages,
// so markup is reduced to its title and visible text.
func summarizeBody(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return "empty response"
	}
	if !strings.HasPrefix(raw, "<") {
		return truncate(collapseSpace(raw), maxSummaryLen)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return truncate(collapseSpace(raw), maxSummaryLen)
	}
	doc.Find("script, style").Remove()

	title := collapseSpace(doc.Find("title").First().Text())
	text := collapseSpace(doc.Find("body").Text())

	switch {
	case title != "" && text != "" && !strings.HasPrefix(text, title):
		return truncate(title+": "+text, maxSummaryLen)
	case text != "":
		return truncate(text, maxSummaryLen)
	default:
		return truncate(title, maxSummaryLen)
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
