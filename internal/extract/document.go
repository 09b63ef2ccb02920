package extract

// Document is the PDF provider the extractor reads from. Implementations are
// expected to have the whole document loaded; none of these calls block on I/O.
type Document interface {
	NumPage() int
	// Page returns the page at a 0-based index.
	Page(i int) (SourcePage, error)
	// NamedDestinations maps destination names to the object id of their target.
	// Destinations without an indirect target are left out.
	NamedDestinations() (map[string]int, error)
}

// SourcePage is a single page of a Document.
type SourcePage interface {
	ObjectID() (int, error)
	LayoutText() (string, error)
	PlainText() (string, error)
	Annotations() ([]Annotation, error)
}

// Annotation is one entry of a page's annotation list.
type Annotation interface {
	// Action returns the annotation's action, or nil when it has none.
	Action() (*Action, error)
}

// Action is the part of an annotation action dictionary the extractor needs.
type Action struct {
	Subtype string // e.g. "GoTo", "URI"
	Target  string // raw destination, rendered as text
}

// GoTo is the action subtype for jumps within the same document.
const GoTo = "GoTo"
