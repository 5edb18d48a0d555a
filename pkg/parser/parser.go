// pkg/parser/parser.go
package parser

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// MaxLabelLength is the longest label DNS allows between two dots.
const MaxLabelLength = 63

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

// ParseWordList returns one lowercased word per line, otherwise exactly as
// written. Blank lines and lines starting with '#' are skipped.
func (p *Parser) ParseWordList(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	words := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}

	return words
}

// ParseHTML extracts candidate words from the visible text of an HTML page.
func (p *Parser) ParseHTML(content []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript").Remove()

	// Walk text nodes one by one; Selection.Text would glue adjacent
	// elements like <li>a</li><li>b</li> into a single word.
	var words []string
	doc.Find("*").Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "#text" {
			return
		}
		for _, field := range strings.Fields(s.Text()) {
			if word := cleanWord(field); word != "" {
				words = append(words, word)
			}
		}
	})
	return words, nil
}

// cleanWord lowercases word and drops everything that cannot appear in a
// domain label.
func cleanWord(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))

	word = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			return r
		}
		return -1
	}, word)

	return strings.Trim(word, "-")
}

// IsDomainLabel reports whether word is a valid ASCII LDH label.
func IsDomainLabel(word string) bool {
	if word == "" || len(word) > MaxLabelLength {
		return false
	}
	if word[0] == '-' || word[len(word)-1] == '-' {
		return false
	}
	for _, r := range word {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
