package extract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/guidereader/internal/pagerange"
	"github.com/local/guidereader/internal/pdfxref"
)

type fakeAnnot struct {
	action *Action
	err    error
}

func (a fakeAnnot) Action() (*Action, error) { return a.action, a.err }

type fakePage struct {
	id       int
	idErr    error
	layout   string
	layErr   error
	plain    string
	annots   []Annotation
	annotErr error
}

func (p *fakePage) ObjectID() (int, error)             { return p.id, p.idErr }
func (p *fakePage) LayoutText() (string, error)        { return p.layout, p.layErr }
func (p *fakePage) PlainText() (string, error)         { return p.plain, nil }
func (p *fakePage) Annotations() ([]Annotation, error) { return p.annots, p.annotErr }

type fakeDoc struct {
	pages   []*fakePage
	dests   map[string]int
	pageErr map[int]error
}

func (d *fakeDoc) NumPage() int { return len(d.pages) }

func (d *fakeDoc) Page(i int) (SourcePage, error) {
	if err := d.pageErr[i]; err != nil {
		return nil, err
	}
	return d.pages[i], nil
}

func (d *fakeDoc) NamedDestinations() (map[string]int, error) { return d.dests, nil }

func goTo(target string) Annotation {
	return fakeAnnot{action: &Action{Subtype: GoTo, Target: target}}
}

func threePageDoc() *fakeDoc {
	return &fakeDoc{pages: []*fakePage{
		{id: 4, layout: "Introduction"},
		{id: 8, layout: "Treatment", annots: []Annotation{goTo("4 0 R")}},
		{id: 12, layout: "References"},
	}}
}

func TestExtractResolvesLinkToFirstPage(t *testing.T) {
	out, err := New().Extract(threePageDoc(), "")
	require.NoError(t, err)

	want := strings.Join([]string{
		"Page 1:\nIntroduction",
		"Page 2:\nTreatment\n\nInternal Links:\n" + linkRule + "\nLink 1: 4 0 R -> Page 1\n",
		"Page 3:\nReferences",
	}, "\n\n")
	assert.Equal(t, want, out)
}

func TestExtractPagesLinkRecord(t *testing.T) {
	pages, rep, err := New().ExtractPages(threePageDoc(), "2")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Len(t, pages[0].Links, 1)

	l := pages[0].Links[0]
	assert.Equal(t, 2, l.SourcePage)
	require.NotNil(t, l.ResolvedPage)
	assert.Equal(t, 1, *l.ResolvedPage)
	assert.Equal(t, 1, rep.LinksResolved)
	assert.Equal(t, []int{1}, rep.Selected)
}

func TestExtractZeroPages(t *testing.T) {
	pages, rep, err := New().ExtractPages(&fakeDoc{}, "")
	require.NoError(t, err)
	assert.Empty(t, pages)
	assert.Equal(t, 0, rep.TotalPages)

	out, err := New().Extract(&fakeDoc{}, "")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestExtractNilDocument(t *testing.T) {
	_, err := New().Extract(nil, "")
	var eerr *pdfxref.ExtractionError
	require.ErrorAs(t, err, &eerr)
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestExtractNamedDestinations(t *testing.T) {
	doc := &fakeDoc{
		pages: []*fakePage{
			{id: 3, layout: "one"},
			{id: 5, layout: "two", annots: []Annotation{
				goTo("Chapter.1"),
				goTo("Dangling"),
				goTo("NCCN.indd:Discussion:7:3"),
			}},
		},
		dests: map[string]int{"Chapter.1": 5, "Dangling": 42},
	}
	pages, rep, err := New().ExtractPages(doc, "-1")
	require.NoError(t, err)
	require.Len(t, pages, 1)

	links := pages[0].Links
	require.Len(t, links, 3)
	assert.Equal(t, 2, *links[0].ResolvedPage)
	assert.Nil(t, links[1].ResolvedPage)
	assert.Equal(t, 1, *links[2].ResolvedPage)
	assert.Equal(t, 2, rep.LinksResolved)
	assert.Equal(t, 1, rep.LinksUnresolved)

	out := FormatPage(pages[0])
	assert.Contains(t, out, "Link 1: Chapter.1 -> Page 2\n")
	assert.Contains(t, out, "Link 2: Dangling\n")
	assert.Contains(t, out, "Link 3: Discussion -> Page 1\n")
}

func TestExtractSkipsNonGoToAndBadAnnotations(t *testing.T) {
	doc := &fakeDoc{pages: []*fakePage{{
		id:     1,
		layout: "text",
		annots: []Annotation{
			fakeAnnot{},
			fakeAnnot{action: &Action{Subtype: "URI", Target: "https://example.com"}},
			fakeAnnot{err: errors.New("malformed action dictionary")},
			goTo("1 0 R"),
		},
	}}}
	pages, rep, err := New().ExtractPages(doc, "")
	require.NoError(t, err)
	require.Len(t, pages[0].Links, 1)
	require.Len(t, rep.AnnotationErrors, 1)
	assert.Equal(t, 1, rep.AnnotationErrors[0].Page)
	assert.Equal(t, 2, rep.AnnotationErrors[0].Index)
}

func TestExtractTextFallback(t *testing.T) {
	doc := &fakeDoc{pages: []*fakePage{
		{id: 1, layout: "", plain: "plain one"},
		{id: 2, layErr: errors.New("layout failed"), plain: "plain two"},
		{id: 3, layout: "layout three", plain: "unused"},
	}}
	pages, _, err := New().ExtractPages(doc, "")
	require.NoError(t, err)
	assert.Equal(t, "plain one", pages[0].Text)
	assert.Equal(t, "plain two", pages[1].Text)
	assert.Equal(t, "layout three", pages[2].Text)
}

func TestExtractPageFailureIsIsolated(t *testing.T) {
	doc := threePageDoc()
	doc.pageErr = map[int]error{0: errors.New("broken page")}

	pages, rep, err := New().ExtractPages(doc, "")
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, Page{Number: 1, Links: []pdfxref.Link{}}, pages[0])
	assert.Len(t, rep.StructureErrors, 1)
	assert.Len(t, rep.PageErrors, 1)

	// page 1 is missing from the xref table, so the link no longer resolves
	require.Len(t, pages[1].Links, 1)
	assert.Nil(t, pages[1].Links[0].ResolvedPage)

	out := Format(pages)
	assert.True(t, strings.HasPrefix(out, "Page 1:\n\nPage 2:\n"))
}

func TestExtractSpecWarnings(t *testing.T) {
	pages, rep, err := New().ExtractPages(threePageDoc(), "1,abc")
	require.NoError(t, err)
	assert.Len(t, pages, 1)
	require.Len(t, rep.SpecWarnings, 1)
	assert.NotEmpty(t, rep.Warnings)
}

func TestExtractPagesWithoutLinksEncodeEmptyList(t *testing.T) {
	doc := threePageDoc()
	doc.pages[2].annotErr = errors.New("no /Annots")

	pages, _, err := New().ExtractPages(doc, "1,3")
	require.NoError(t, err)
	require.Len(t, pages, 2)

	for _, p := range pages {
		b, err := json.Marshal(p)
		require.NoError(t, err)
		assert.Contains(t, string(b), `"internal_links":[]`)
	}
}

func TestExtractSelected(t *testing.T) {
	warnings := []*pagerange.Warning{{Part: "abc", Err: errors.New("invalid page number")}}
	pages, rep, err := New().ExtractSelected(threePageDoc(), []int{1, 7}, warnings)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Treatment", pages[0].Text)
	assert.Equal(t, 8, pages[1].Number)
	assert.Len(t, rep.PageErrors, 1)
	assert.Equal(t, warnings, rep.SpecWarnings)
	assert.Equal(t, []int{1, 7}, rep.Selected)
}

func TestCleanTarget(t *testing.T) {
	assert.Equal(t, "Discussion", CleanTarget("NCCN.indd:Discussion:123"))
	assert.Equal(t, "12", CleanTarget("indd:12:34:56"))
	assert.Equal(t, "Tail", CleanTarget("x.indd:Tail"))
	assert.Equal(t, "78 0 R", CleanTarget("78 0 R"))
}
