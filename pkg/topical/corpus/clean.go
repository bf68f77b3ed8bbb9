package corpus

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"

	"github.com/cognicore/topical/pkg/topical/internalerr"
)

// Parts of a newsgroup post that can be removed before training.
const (
	RemoveHeaders = "headers"
	RemoveFooters = "footers"
	RemoveQuotes  = "quotes"
)

var quoteRE = regexp.MustCompile(`(writes in|writes:|wrote:|says:|said:|^In article|^Quoted from|^\||^>)`)

type cleaner struct {
	headers, footers, quotes bool
}

func newCleaner(remove []string) (cleaner, error) {
	var c cleaner
	for _, part := range remove {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case RemoveHeaders:
			c.headers = true
		case RemoveFooters:
			c.footers = true
		case RemoveQuotes:
			c.quotes = true
		default:
			return cleaner{}, fmt.Errorf("%w: unknown remove option %q", internalerr.ErrInvalidConfig, part)
		}
	}
	return c, nil
}

func (c cleaner) clean(text string) string {
	if looksLikeHTML(text) {
		text = StripHTML(text)
	}
	if c.headers {
		text = StripHeader(text)
	}
	if c.footers {
		text = StripFooter(text)
	}
	if c.quotes {
		text = StripQuotes(text)
	}
	return text
}

// StripHeader drops everything up to the first blank line.
func StripHeader(text string) string {
	if _, after, ok := strings.Cut(text, "\n\n"); ok {
		return after
	}
	return text
}

// StripFooter drops the signature block that follows the last "--" line.
func StripFooter(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i > 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" && strings.Trim(line, "-") == "" {
			return strings.Join(lines[:i], "\n")
		}
	}
	return text
}

// StripQuotes drops quoted lines and quote attributions.
func StripQuotes(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if quoteRE.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// StripHTML reduces an HTML body to its text nodes, skipping scripts and styles.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}

func looksLikeHTML(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '<' {
		return false
	}
	next := s[1]
	return next == '!' || next == '/' || ('a' <= next && next <= 'z') || ('A' <= next && next <= 'Z')
}

// decode returns UTF-8 text, reading invalid input as Latin-1.
func decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return string(out)
}
