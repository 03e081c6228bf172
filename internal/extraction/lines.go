package extraction

import "strings"

// splitLines splits a page's text on line boundaries, trims each line, and
// drops empty lines
func splitLines(pageText string) []string {
	lines := make([]string, 0)
	for _, ln := range strings.Split(pageText, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}
