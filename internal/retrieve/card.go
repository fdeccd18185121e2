package retrieve

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Card is one scraped tax card: normalized label to value
type Card = map[string]string

var nonLetterRun = regexp.MustCompile(`[^a-z]+`)

// ParseHits returns the result tokens of a search results page: the title attribute of
// every button under the #hit_list element, in document order
func ParseHits(body []byte) ([]string, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	list := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == "hit_list"
	})
	if list == nil {
		return nil, nil
	}

	var tokens []string
	for _, button := range findAll(list, func(n *html.Node) bool {
		return isElement(n, atom.Button)
	}) {
		if token := strings.TrimSpace(attr(button, "title")); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// ParseCard scrapes the label/value rows of a tax card page. Only rows of a cardTable
// that have a label cell are read. The district row and any row whose label mentions
// a city are skipped.
func ParseCard(body []byte) (Card, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	card := Card{}

	tables := findAll(doc, func(n *html.Node) bool {
		return isElement(n, atom.Table) && hasClass(n, "cardTable")
	})

	for _, table := range tables {
		rows := findAll(table, func(n *html.Node) bool {
			return isElement(n, atom.Tr) && hasLabelCell(n)
		})

		for _, tr := range rows {
			label := classText(tr, "label")
			if excludedLabel(label) {
				continue
			}
			key := NormalizeLabel(label)
			if key == "" {
				continue
			}
			card[key] = classText(tr, "value")
		}
	}

	return card, nil
}

// NormalizeLabel turns a card label into a snake_case key: lowercase, every run of
// characters outside a-z becomes one underscore, leading and trailing underscores dropped
func NormalizeLabel(label string) string {
	return strings.Trim(nonLetterRun.ReplaceAllString(strings.ToLower(label), "_"), "_")
}

func excludedLabel(label string) bool {
	return label == "District:" || strings.Contains(strings.ToLower(label), "city")
}

func hasLabelCell(tr *html.Node) bool {
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, atom.Td) && hasClass(c, "label") {
			return true
		}
	}
	return false
}

// classText returns the own text of the first element under n carrying the class
func classText(n *html.Node, className string) string {
	el := findFirst(n, func(c *html.Node) bool {
		return hasClass(c, className)
	})
	if el == nil {
		return ""
	}
	return ownText(el)
}
