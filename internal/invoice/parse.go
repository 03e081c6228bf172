package invoice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// itemRowRe matches a complete item row. All five fields are mandatory and
// the match must consume the whole line.
var itemRowRe = regexp.MustCompile(
	`^(?P<line_no>\d+)\s+` + // Line #
		`(?P<qty>\d+(?:\.\d+)?)\s+` + // Quantity
		`(?P<part_id>\S+)\s+` + // Part ID
		`\$(?P<unit_price>[\d,]+\.\d{2})\s+` + // Unit Price
		`\$(?P<ext_price>[\d,]+\.\d{2})$`, // Extended Price
)

// isLeadTimeLine reports whether a would-be continuation line is lead-time
// metadata rather than description text
func isLeadTimeLine(line string) bool {
	return strings.HasPrefix(strings.ToUpper(line), "LEAD TIME")
}

// parseAmount converts a numeric field to a float after stripping thousands
// separators
func parseAmount(field, value, line string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q on line %q: %w", field, value, line, err)
	}
	return f, nil
}

// extendedPrice computes quantity * unit price rounded to 2 decimal places.
// The extended price printed on the document is never trusted; this derived
// value is authoritative.
func extendedPrice(quantity, unitPrice float64) float64 {
	ext, _ := decimal.NewFromFloat(quantity).
		Mul(decimal.NewFromFloat(unitPrice)).
		Round(2).
		Float64()
	return ext
}

// ReconstructItems recovers the item table from an ordered sequence of
// trimmed, non-empty text lines. Lines matching the item row pattern start a
// new item; subsequent non-matching lines are folded into that item's
// description (lead-time noise excepted) until the next item row. Lines
// before the first item row are discarded. An input with no item rows yields
// an empty, non-error result.
func ReconstructItems(lines []string) ([]Item, error) {
	items := make([]Item, 0)
	var current *Item

	for _, ln := range lines {
		m := itemRowRe.FindStringSubmatch(ln)
		if m != nil {
			lineNo, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("parsing line number %q on line %q: %w", m[1], ln, err)
			}
			qty, err := parseAmount("quantity", m[2], ln)
			if err != nil {
				return nil, err
			}
			unitPrice, err := parseAmount("unit price", m[4], ln)
			if err != nil {
				return nil, err
			}
			// Parsed only to surface malformed input; the printed value is
			// discarded in favor of the recomputed one
			if _, err := parseAmount("extended price", m[5], ln); err != nil {
				return nil, err
			}

			items = append(items, Item{
				LineNumber:       lineNo,
				QuantityOrdered:  qty,
				PartID:           m[3],
				NetUnitPrice:     unitPrice,
				NetExtendedPrice: extendedPrice(qty, unitPrice),
			})
			current = &items[len(items)-1]
			continue
		}

		if current == nil || isLeadTimeLine(ln) {
			continue
		}

		if current.Description == "" {
			current.Description = ln
		} else {
			current.Description += " " + ln
		}
	}

	return items, nil
}
