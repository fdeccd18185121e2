package retrieve

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Search form field names understood by the lookup service
const (
	fieldSearchBy     = "search[search_by]"
	fieldSearchString = "search[search_by_string]"
	fieldStatus       = "search[status]"
)

// SearchValues returns the fields that turn the start page's form into a parcel
// identifier search for pin
func SearchValues(pin string) url.Values {
	return url.Values{
		fieldSearchBy:     {"mapNo"},
		fieldSearchString: {pin},
		fieldStatus:       {"All"},
	}
}

// ParseForm returns the values the first form of a page would submit: named inputs,
// selects and textareas, checkboxes and radios only when checked, plus the name and
// value of the first submit control.
func ParseForm(body []byte) (url.Values, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	form := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, atom.Form)
	})
	if form == nil {
		return nil, fmt.Errorf("no form on page")
	}

	values := url.Values{}
	clicked := false

	controls := findAll(form, func(n *html.Node) bool {
		return isElement(n, atom.Input) || isElement(n, atom.Select) ||
			isElement(n, atom.Textarea) || isElement(n, atom.Button)
	})

	for _, n := range controls {
		name := attr(n, "name")
		if name == "" || hasAttr(n, "disabled") {
			continue
		}

		switch n.DataAtom {
		case atom.Input:
			switch strings.ToLower(attr(n, "type")) {
			case "submit", "image":
				if !clicked {
					clicked = true
					values.Add(name, attr(n, "value"))
				}
			case "reset", "button", "file":
			case "checkbox", "radio":
				if hasAttr(n, "checked") {
					value := attr(n, "value")
					if !hasAttr(n, "value") {
						value = "on"
					}
					values.Add(name, value)
				}
			default:
				values.Add(name, attr(n, "value"))
			}
		case atom.Button:
			t := strings.ToLower(attr(n, "type"))
			if (t == "" || t == "submit") && !clicked {
				clicked = true
				values.Add(name, attr(n, "value"))
			}
		case atom.Select:
			if v, ok := selectValue(n); ok {
				values.Add(name, v)
			}
		case atom.Textarea:
			values.Add(name, textContent(n))
		}
	}

	return values, nil
}

// selectValue returns the selected option of a select, or its first option
func selectValue(sel *html.Node) (string, bool) {
	options := findAll(sel, func(n *html.Node) bool {
		return isElement(n, atom.Option)
	})
	if len(options) == 0 {
		return "", false
	}

	chosen := options[0]
	for _, o := range options {
		if hasAttr(o, "selected") {
			chosen = o
			break
		}
	}

	if hasAttr(chosen, "value") {
		return attr(chosen, "value"), true
	}
	return strings.TrimSpace(textContent(chosen)), true
}

// MergeForm overlays the override values on the form's own values
func MergeForm(form, override url.Values) url.Values {
	merged := url.Values{}
	for k, v := range form {
		merged[k] = append([]string(nil), v...)
	}
	for k, v := range override {
		merged[k] = append([]string(nil), v...)
	}
	return merged
}
