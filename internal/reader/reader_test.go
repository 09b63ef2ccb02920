package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/guidereader/internal/extract"
	"github.com/local/guidereader/internal/pdfxref"
	"github.com/local/guidereader/internal/source"
)

var pdfBytes = []byte("%PDF-1.4\n%%EOF\n")

type stubLoader struct{ err error }

func (l stubLoader) Load(ctx context.Context, ref string) (*source.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	return &source.Document{Name: ref, Data: pdfBytes}, nil
}

type mapCache map[string]string

func (c mapCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := c[key]
	return v, ok, nil
}

func (c mapCache) Set(ctx context.Context, key, value string) error {
	c[key] = value
	return nil
}

type stubAnnot struct{ target string }

func (a stubAnnot) Action() (*extract.Action, error) {
	return &extract.Action{Subtype: extract.GoTo, Target: a.target}, nil
}

type stubPage struct {
	id     int
	text   string
	annots []extract.Annotation
}

func (p stubPage) ObjectID() (int, error)                     { return p.id, nil }
func (p stubPage) LayoutText() (string, error)                { return p.text, nil }
func (p stubPage) PlainText() (string, error)                 { return "", nil }
func (p stubPage) Annotations() ([]extract.Annotation, error) { return p.annots, nil }

type stubDoc struct {
	pages  []stubPage
	closed bool
}

func (d *stubDoc) NumPage() int                                { return len(d.pages) }
func (d *stubDoc) Page(i int) (extract.SourcePage, error)      { return d.pages[i], nil }
func (d *stubDoc) NamedDestinations() (map[string]int, error) { return map[string]int{"start": 1}, nil }
func (d *stubDoc) Close() error                                { d.closed = true; return nil }

func newStubDoc() *stubDoc {
	return &stubDoc{pages: []stubPage{
		{id: 1, text: "Overview"},
		{id: 2, text: "Workup", annots: []extract.Annotation{stubAnnot{"start"}}},
	}}
}

func TestExtractContent(t *testing.T) {
	doc := newStubDoc()
	svc := New(Options{
		Loader: stubLoader{},
		Open:   func([]byte) (Doc, error) { return doc, nil },
	})
	out, err := svc.ExtractContent(context.Background(), "guide.pdf", "2")
	require.NoError(t, err)
	assert.Equal(t, "Page 2:\nWorkup\n\nInternal Links:\n----------------------------------------\nLink 1: start -> Page 1\n", out)
	assert.True(t, doc.closed)
}

func TestExtractUsesCache(t *testing.T) {
	cache := mapCache{}
	opens := 0
	svc := New(Options{
		Loader: stubLoader{},
		Cache:  cache,
		Open: func([]byte) (Doc, error) {
			opens++
			return newStubDoc(), nil
		},
	})

	first, err := svc.Extract(context.Background(), Request{Ref: "guide.pdf"})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Len(t, cache, 1)

	second, err := svc.Extract(context.Background(), Request{Ref: "guide.pdf", Pages: "1-2"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, 2, opens)
}

func TestExtractCacheKeepsSpecWarningsApart(t *testing.T) {
	cache := mapCache{}
	svc := New(Options{
		Loader: stubLoader{},
		Cache:  cache,
		Open:   func([]byte) (Doc, error) { return newStubDoc(), nil },
	})
	ctx := context.Background()

	withBad, err := svc.Extract(ctx, Request{Ref: "guide.pdf", Pages: "1,abc", Format: FormatJSON})
	require.NoError(t, err)
	assert.False(t, withBad.Cached)

	clean, err := svc.Extract(ctx, Request{Ref: "guide.pdf", Pages: "1", Format: FormatJSON})
	require.NoError(t, err)
	assert.False(t, clean.Cached)
	assert.NotContains(t, clean.Output, "abc")
	assert.Empty(t, clean.Report.Warnings)
	assert.Len(t, cache, 2)

	again, err := svc.Extract(ctx, Request{Ref: "guide.pdf", Pages: "abc,1", Format: FormatJSON})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Contains(t, again.Output, "abc")
	require.Len(t, again.Report.SpecWarnings, 1)
	assert.Equal(t, "abc", again.Report.SpecWarnings[0].Part)
}

func TestExtractCachedTextKeepsSpecWarnings(t *testing.T) {
	svc := New(Options{
		Loader: stubLoader{},
		Cache:  mapCache{},
		Open:   func([]byte) (Doc, error) { return newStubDoc(), nil },
	})
	ctx := context.Background()

	_, err := svc.Extract(ctx, Request{Ref: "guide.pdf", Pages: "2,x"})
	require.NoError(t, err)
	res, err := svc.Extract(ctx, Request{Ref: "guide.pdf", Pages: "2,x"})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	require.NotNil(t, res.Report)
	require.Len(t, res.Report.Warnings, 1)
	assert.Contains(t, res.Report.Warnings[0], `"x"`)
	assert.Equal(t, []int{1}, res.Report.Selected)
}

func TestExtractLogsSpecWarningOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	svc := New(Options{Loader: stubLoader{}, Open: func([]byte) (Doc, error) { return newStubDoc(), nil }})
	res, err := svc.Extract(context.Background(), Request{Ref: "guide.pdf", Pages: "1,abc"})
	require.NoError(t, err)
	require.Len(t, res.Report.SpecWarnings, 1)
	assert.Equal(t, 1, strings.Count(buf.String(), "could not parse page specification"))
}

func TestExtractJSON(t *testing.T) {
	svc := New(Options{Open: func([]byte) (Doc, error) { return newStubDoc(), nil }})
	res, err := svc.Extract(context.Background(), Request{Name: "upload.pdf", Data: pdfBytes, Format: FormatJSON})
	require.NoError(t, err)

	var out jsonOutput
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	require.Len(t, out.Pages, 2)
	assert.Equal(t, 2, out.Report.TotalPages)
	require.Len(t, out.Pages[1].Links, 1)
	assert.Equal(t, 1, *out.Pages[1].Links[0].ResolvedPage)
}

func TestExtractFailures(t *testing.T) {
	var eerr *pdfxref.ExtractionError

	svc := New(Options{Loader: stubLoader{err: source.ErrEmptyRef}})
	_, err := svc.ExtractContent(context.Background(), "", "")
	require.ErrorAs(t, err, &eerr)
	assert.ErrorIs(t, err, source.ErrEmptyRef)

	broken := errors.New("xref table not found")
	svc = New(Options{Loader: stubLoader{}, Open: func([]byte) (Doc, error) { return nil, broken }})
	_, err = svc.ExtractContent(context.Background(), "bad.pdf", "")
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "bad.pdf", eerr.Source)
	assert.ErrorIs(t, err, broken)

	_, err = svc.Extract(context.Background(), Request{Name: "x", Data: []byte("plain text")})
	assert.ErrorIs(t, err, source.ErrNotPDF)

	_, err = svc.Extract(context.Background(), Request{Ref: "a.pdf", Format: "xml"})
	assert.Error(t, err)
}
