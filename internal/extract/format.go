package extract

import (
	"fmt"
	"strings"

	"github.com/local/guidereader/internal/pdfxref"
)

const linkRule = "----------------------------------------"

// Format renders pages as "Page N:" blocks separated by a blank line.
func Format(pages []Page) string {
	blocks := make([]string, 0, len(pages))
	for _, p := range pages {
		blocks = append(blocks, FormatPage(p))
	}
	return strings.Join(blocks, "\n\n")
}

// FormatPage renders one page with its text and, when present, its internal links.
func FormatPage(p Page) string {
	lines := []string{fmt.Sprintf("Page %d:", p.Number)}
	if p.Text != "" {
		lines = append(lines, p.Text)
	}
	if len(p.Links) > 0 {
		lines = append(lines, "\nInternal Links:", linkRule)
		for i, l := range p.Links {
			s := fmt.Sprintf("Link %d: %s", i+1, CleanTarget(l.RawTarget))
			if l.ResolvedPage != nil {
				s += fmt.Sprintf(" -> Page %d", *l.ResolvedPage)
			}
			lines = append(lines, s)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// CleanTarget strips the InDesign prefix and trailing object numbers from a
// raw target for display. Other targets are returned unchanged.
func CleanTarget(target string) string {
	i := strings.Index(target, pdfxref.InDesignMarker)
	if i < 0 {
		return target
	}
	target = target[i+len(pdfxref.InDesignMarker):]
	if j := strings.Index(target, ":"); j >= 0 {
		target = target[:j]
	}
	return target
}
