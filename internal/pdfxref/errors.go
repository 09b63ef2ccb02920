package pdfxref

import "fmt"

// StructureError reports a page whose object identifier could not be determined.
// The page is left out of the xref table; other pages are unaffected.
type StructureError struct {
	PageIndex int
	Err       error
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("page %d: no object identifier: %v", e.PageIndex+1, e.Err)
}

func (e *StructureError) Unwrap() error { return e.Err }

// AnnotationError reports a single annotation that could not be read.
type AnnotationError struct {
	Page  int
	Index int
	Err   error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("page %d annotation %d: %v", e.Page, e.Index, e.Err)
}

func (e *AnnotationError) Unwrap() error { return e.Err }

// ExtractionError is fatal for an extraction call: the document could not be opened or read.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to extract PDF content: %v", e.Err)
	}
	return fmt.Sprintf("failed to extract PDF content from %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
