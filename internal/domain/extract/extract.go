// Package extract turns one archive results page into raw result rows
// grouped by event key.
package extract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/okian/palmares/internal/domain/model"
)

// Page holds the rows of one results page.
type Page struct {
	// Events maps the event key to its entries in document order. Each entry
	// keeps its literal label.
	Events model.EventBucket
	// Keys lists event keys in order of first appearance.
	Keys []string
	// Rows counts accepted rows, Dropped counts rejected ones.
	Rows    int
	Dropped int
}

// Extract parses raw page markup. Rows yielding fewer than model.RowCells
// cells, or no event label, are dropped without error.
func Extract(markup string) (Page, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrMalformedPage, err)
	}

	page := Page{Events: make(model.EventBucket)}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			page.addRow(rowCells(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return page, nil
}

func (p *Page) addRow(cells []string) {
	row, ok := model.RowFromCells(cells)
	key := model.EventKey(row.Event)
	if !ok || key == "" {
		p.Dropped++
		return
	}
	if _, seen := p.Events[key]; !seen {
		p.Keys = append(p.Keys, key)
	}
	p.Events[key] = append(p.Events[key], row.Entry())
	p.Rows++
}

// rowCells returns the text of the direct <td> children of a <tr>.
func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Td {
			cells = append(cells, cellText(c))
		}
	}
	return cells
}

func cellText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		case n.Type == html.ElementNode && n.DataAtom == atom.Table:
			// nested tables carry their own rows
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Merge concatenates the pages of one athlete-year, keeping each page's
// internal order. Rows are not deduplicated.
func Merge(pages ...Page) model.EventBucket {
	out := make(model.EventBucket)
	for _, p := range pages {
		for _, key := range p.Keys {
			out[key] = append(out[key], p.Events[key]...)
		}
	}
	return out
}
