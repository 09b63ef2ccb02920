// Package reader serves extraction requests: it loads the document, opens it,
// runs the extractor and caches the formatted result.
package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/local/guidereader/internal/extract"
	"github.com/local/guidereader/internal/metrics"
	"github.com/local/guidereader/internal/pagerange"
	"github.com/local/guidereader/internal/pdfdoc"
	"github.com/local/guidereader/internal/pdfxref"
	"github.com/local/guidereader/internal/source"
	"github.com/local/guidereader/internal/store"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Loader fetches document bytes by reference.
type Loader interface {
	Load(ctx context.Context, ref string) (*source.Document, error)
}

// Cache stores formatted results.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Doc is an opened document that must be closed.
type Doc interface {
	extract.Document
	io.Closer
}

// Opener parses PDF bytes.
type Opener func(data []byte) (Doc, error)

// Request names a document by reference or carries it inline.
type Request struct {
	Ref    string
	Name   string
	Data   []byte
	Pages  string
	Format string
}

// Result is the outcome of one extraction.
type Result struct {
	Output string
	Pages  []extract.Page
	Report *extract.Report
	Cached bool
}

// Service is safe for concurrent use; every call opens its own document.
type Service struct {
	loader    Loader
	cache     Cache
	open      Opener
	extractor *extract.Extractor
}

// Options configures a Service. Cache may be nil.
type Options struct {
	Loader Loader
	Cache  Cache
	Open   Opener
}

func New(opts Options) *Service {
	open := opts.Open
	if open == nil {
		open = func(data []byte) (Doc, error) {
			d, err := pdfdoc.Open(data)
			if err != nil {
				return nil, err
			}
			return d, nil
		}
	}
	return &Service{loader: opts.Loader, cache: opts.Cache, open: open, extractor: extract.New()}
}

// ExtractContent returns the formatted text of the selected pages of the PDF at ref.
func (s *Service) ExtractContent(ctx context.Context, ref, pages string) (string, error) {
	res, err := s.Extract(ctx, Request{Ref: ref, Pages: pages})
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// Extract runs one request. Failures to load or open the document are
// returned as *pdfxref.ExtractionError.
func (s *Service) Extract(ctx context.Context, req Request) (*Result, error) {
	if req.Format == "" {
		req.Format = FormatText
	}
	if req.Format != FormatText && req.Format != FormatJSON {
		return nil, fmt.Errorf("unknown format %q", req.Format)
	}
	name := req.Ref
	if name == "" {
		name = req.Name
	}
	log.Info().Str("source", name).Str("pages", req.Pages).Msg("starting PDF content extraction")

	src, err := s.load(ctx, req)
	if err != nil {
		return nil, s.fail(name, err)
	}
	doc, err := s.open(src.Data)
	if err != nil {
		return nil, s.fail(name, err)
	}
	defer doc.Close()

	total := doc.NumPage()
	selected, warnings := pagerange.Parse(req.Pages, total)
	key := ""
	if s.cache != nil {
		key = store.ResultKey(store.Digest(src.Data), selected, skippedParts(warnings), req.Format)
		if out, ok, err := s.cache.Get(ctx, key); err != nil {
			log.Warn().Err(err).Msg("result cache read failed")
		} else if ok {
			metrics.IncExtraction("cached")
			log.Info().Str("source", name).Msg("served extraction from cache")
			return &Result{Output: out, Report: cachedReport(total, selected, warnings), Cached: true}, nil
		}
	}

	pages, rep, err := s.extractor.ExtractSelected(doc, selected, warnings)
	if err != nil {
		return nil, s.fail(name, err)
	}
	res := &Result{Pages: pages, Report: rep}
	if res.Output, err = render(req.Format, pages, rep); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, res.Output); err != nil {
			log.Warn().Err(err).Msg("result cache write failed")
		}
	}
	return res, nil
}

func (s *Service) load(ctx context.Context, req Request) (*source.Document, error) {
	if req.Data != nil {
		return source.Check(req.Name, req.Data)
	}
	if s.loader == nil {
		return nil, fmt.Errorf("no loader configured")
	}
	return s.loader.Load(ctx, req.Ref)
}

func (s *Service) fail(name string, err error) error {
	if _, ok := err.(*pdfxref.ExtractionError); !ok {
		err = &pdfxref.ExtractionError{Source: name, Err: err}
	}
	metrics.IncExtraction("error")
	log.Error().Err(err).Str("source", name).Msg("failed to extract PDF content")
	return err
}

func skippedParts(warnings []*pagerange.Warning) []string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = w.Part
	}
	return parts
}

// cachedReport rebuilds the page-spec part of the report for a cache hit.
// Document diagnostics are only available in the cached JSON output.
func cachedReport(total int, selected []int, warnings []*pagerange.Warning) *extract.Report {
	rep := &extract.Report{TotalPages: total, Selected: selected, SpecWarnings: warnings}
	for _, w := range warnings {
		rep.Warnings = append(rep.Warnings, w.Error())
	}
	return rep
}

type jsonOutput struct {
	Pages  []extract.Page  `json:"pages"`
	Report *extract.Report `json:"report"`
}

func render(format string, pages []extract.Page, rep *extract.Report) (string, error) {
	if format == FormatText {
		return extract.Format(pages), nil
	}
	b, err := json.Marshal(jsonOutput{Pages: pages, Report: rep})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
