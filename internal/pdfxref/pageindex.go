// Package pdfxref maps PDF object identifiers and named destinations to page
// numbers and resolves the raw targets of GoTo link annotations.
//
// Every table here is built once per document and is read-only afterwards.
// Missing or dangling targets are absent map entries, never errors.
package pdfxref

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// PageRecord ties a page's object identifier to its 1-based page number.
type PageRecord struct {
	ObjectID   int
	PageNumber int
}

// XrefTable maps object identifiers to 1-based page numbers.
type XrefTable map[int]int

// Page returns the page number for an object id.
func (t XrefTable) Page(objectID int) (int, bool) {
	p, ok := t[objectID]
	return p, ok
}

// PageIndex is the append-only page array plus its xref lookup.
type PageIndex struct {
	Records []PageRecord
	Xref    XrefTable
	Errors  []*StructureError
}

// ObjectIDFunc returns the object identifier of the page at a 0-based index.
type ObjectIDFunc func(index int) (int, error)

// BuildPageIndex assigns page index+1 to the object id of every page in
// document order. Pages whose id cannot be determined are skipped and reported.
func BuildPageIndex(numPages int, objectID ObjectIDFunc) *PageIndex {
	idx := &PageIndex{
		Records: make([]PageRecord, 0, numPages),
		Xref:    make(XrefTable, numPages),
	}
	for i := 0; i < numPages; i++ {
		id, err := objectID(i)
		if err != nil {
			idx.skip(i, err)
			continue
		}
		if prev, dup := idx.Xref[id]; dup {
			idx.skip(i, fmt.Errorf("object %d already assigned to page %d", id, prev))
			continue
		}
		idx.Xref[id] = i + 1
		idx.Records = append(idx.Records, PageRecord{ObjectID: id, PageNumber: i + 1})
	}
	log.Info().Int("pages", numPages).Int("mapped", len(idx.Xref)).Msg("built xref to page mapping")
	return idx
}

func (idx *PageIndex) skip(i int, err error) {
	serr := &StructureError{PageIndex: i, Err: err}
	idx.Errors = append(idx.Errors, serr)
	log.Warn().Err(err).Int("page", i+1).Msg("page skipped from xref table")
}
