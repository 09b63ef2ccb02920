// Package extract turns a PDF document into per-page text blocks listing the
// internal links of each page and the pages they jump to.
package extract

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/guidereader/internal/metrics"
	"github.com/local/guidereader/internal/pagerange"
	"github.com/local/guidereader/internal/pdfxref"
)

// Page is the extracted content of one page.
type Page struct {
	Number int            `json:"page_number"`
	Text   string         `json:"text"`
	Links  []pdfxref.Link `json:"internal_links"`
}

// Report collects the per-item faults of one extraction call.
type Report struct {
	TotalPages       int                        `json:"total_pages"`
	Selected         []int                      `json:"selected_pages"`
	StructureErrors  []*pdfxref.StructureError  `json:"-"`
	AnnotationErrors []*pdfxref.AnnotationError `json:"-"`
	SpecWarnings     []*pagerange.Warning       `json:"-"`
	PageErrors       []error                    `json:"-"`
	LinksResolved    int                        `json:"links_resolved"`
	LinksUnresolved  int                        `json:"links_unresolved"`
	Warnings         []string                   `json:"warnings,omitempty"`
}

func (r *Report) warn(err error) { r.Warnings = append(r.Warnings, err.Error()) }

// Extractor extracts text and internal links. The zero value is ready to use
// and it holds no per-document state, so one Extractor may serve concurrent calls.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor { return &Extractor{} }

// ErrNoDocument is wrapped in the ExtractionError returned for a nil document.
var ErrNoDocument = errors.New("invalid document handle")

// Extract returns the formatted content of the pages selected by pageSpec.
func (e *Extractor) Extract(doc Document, pageSpec string) (string, error) {
	pages, _, err := e.ExtractPages(doc, pageSpec)
	if err != nil {
		return "", err
	}
	return Format(pages), nil
}

// ExtractPages returns the selected pages in ascending order along with the
// diagnostics gathered on the way. Only a missing document is fatal.
func (e *Extractor) ExtractPages(doc Document, pageSpec string) ([]Page, *Report, error) {
	if doc == nil {
		metrics.IncExtraction("error")
		return nil, nil, &pdfxref.ExtractionError{Err: ErrNoDocument}
	}
	selected, warnings := pagerange.Parse(pageSpec, doc.NumPage())
	return e.ExtractSelected(doc, selected, warnings)
}

// ExtractSelected is ExtractPages for a selection the caller already parsed.
// Indices outside the document are reported as page errors.
func (e *Extractor) ExtractSelected(doc Document, selected []int, warnings []*pagerange.Warning) ([]Page, *Report, error) {
	if doc == nil {
		metrics.IncExtraction("error")
		return nil, nil, &pdfxref.ExtractionError{Err: ErrNoDocument}
	}
	start := time.Now()
	total := doc.NumPage()
	rep := &Report{TotalPages: total}

	index := pdfxref.BuildPageIndex(total, func(i int) (int, error) {
		p, err := doc.Page(i)
		if err != nil {
			return 0, err
		}
		return p.ObjectID()
	})
	rep.StructureErrors = index.Errors
	for _, serr := range index.Errors {
		rep.warn(serr)
	}

	dests, err := doc.NamedDestinations()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read named destinations")
		rep.warn(fmt.Errorf("named destinations: %w", err))
	}
	resolver := pdfxref.NewResolver(index.Xref, pdfxref.BuildNamedDestinations(dests, index.Xref))

	rep.Selected = selected
	rep.SpecWarnings = warnings
	for _, w := range warnings {
		metrics.IncSpecWarning()
		rep.warn(w)
	}
	log.Info().Int("total_pages", total).Ints("pages", oneBased(selected)).Msg("extracting pages")

	out := make([]Page, 0, len(selected))
	for _, i := range selected {
		var page Page
		var err error
		if i < 0 || i >= total {
			err = fmt.Errorf("page %d out of range (document has %d pages)", i+1, total)
		} else {
			page, err = e.extractPage(doc, i, resolver, rep)
		}
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("page extraction failed")
			rep.PageErrors = append(rep.PageErrors, err)
			rep.warn(err)
			page = Page{Number: i + 1, Links: []pdfxref.Link{}}
		}
		out = append(out, page)
	}

	metrics.IncExtraction("success")
	metrics.ObserveExtraction(time.Since(start))
	metrics.AddPages(len(out))
	log.Info().Int("pages", len(out)).Int("links_resolved", rep.LinksResolved).
		Int("links_unresolved", rep.LinksUnresolved).Msg("extracted content")
	return out, rep, nil
}

func (e *Extractor) extractPage(doc Document, i int, resolver *pdfxref.Resolver, rep *Report) (Page, error) {
	src, err := doc.Page(i)
	if err != nil {
		return Page{}, fmt.Errorf("page %d: %w", i+1, err)
	}
	page := Page{Number: i + 1, Text: pageText(src, i+1)}
	page.Links = e.pageLinks(src, page.Number, resolver, rep)
	log.Debug().Int("page", page.Number).Int("chars", len(page.Text)).Int("links", len(page.Links)).Msg("extracted page")
	return page, nil
}

// pageText prefers layout-preserving text and falls back to plain extraction.
func pageText(src SourcePage, number int) string {
	text, err := src.LayoutText()
	if err == nil && text != "" {
		return text
	}
	if err != nil {
		log.Debug().Err(err).Int("page", number).Msg("layout text extraction failed")
	}
	text, err = src.PlainText()
	if err != nil {
		log.Warn().Err(err).Int("page", number).Msg("failed to extract text from page")
		return ""
	}
	return text
}

func (e *Extractor) pageLinks(src SourcePage, number int, resolver *pdfxref.Resolver, rep *Report) []pdfxref.Link {
	annots, err := src.Annotations()
	if err != nil {
		log.Debug().Err(err).Int("page", number).Msg("no annotations found")
		return []pdfxref.Link{}
	}
	links := make([]pdfxref.Link, 0, len(annots))
	for k, a := range annots {
		act, err := a.Action()
		if err != nil {
			aerr := &pdfxref.AnnotationError{Page: number, Index: k, Err: err}
			rep.AnnotationErrors = append(rep.AnnotationErrors, aerr)
			log.Debug().Err(err).Int("page", number).Int("annotation", k).Msg("error processing annotation")
			continue
		}
		if act == nil || act.Subtype != GoTo {
			continue
		}
		l := resolver.Link(number, act.Target)
		metrics.IncLink(l.Strategy.String())
		if l.Resolved() {
			rep.LinksResolved++
		} else {
			rep.LinksUnresolved++
		}
		links = append(links, l)
	}
	return links
}

func oneBased(idx []int) []int {
	out := make([]int, len(idx))
	for k, i := range idx {
		out[k] = i + 1
	}
	return out
}
