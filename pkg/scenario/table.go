package scenario

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Row is the trimmed text of the cells of one table row.
type Row []string

// ParseTable extracts the rows matched by rowSelector from an HTML document.
// Cell text is whitespace-collapsed. Header rows (no td cells) and rows
// without any text are dropped.
func ParseTable(html, rowSelector string) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var rows []Row
	doc.Find(rowSelector).Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("td").Length() == 0 {
			return
		}
		var row Row
		empty := true
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			text := strings.Join(strings.Fields(cell.Text()), " ")
			if text != "" {
				empty = false
			}
			row = append(row, text)
		})
		if !empty {
			rows = append(rows, row)
		}
	})
	return rows, nil
}
