// Package pdfdoc implements extract.Document on top of pdfcpu, which exposes
// the object graph (page references, annotations, destination trees), and
// go-fitz, which renders page text with MuPDF.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"

	"github.com/local/guidereader/internal/extract"
)

func init() {
	// keep pdfcpu from creating a config dir under $HOME
	api.DisableConfigDir()
}

// ErrNoIndirectRef is returned for pages that are not indirect objects.
var ErrNoIndirectRef = errors.New("page has no indirect reference")

// Document is an opened PDF. It is not safe for concurrent use.
type Document struct {
	ctx   *model.Context
	fz    *fitz.Document
	pages map[int]*Page
}

// OpenFile reads and opens the PDF at path.
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(data)
}

// Open parses an in-memory PDF. The text layer is optional: when MuPDF cannot
// open the file, layout extraction fails per page and callers fall back to the
// plain content-stream text.
func Open(data []byte) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	d := &Document{ctx: ctx, pages: make(map[int]*Page)}
	if fz, err := fitz.NewFromMemory(data); err != nil {
		log.Warn().Err(err).Msg("mupdf could not open document; layout text disabled")
	} else {
		d.fz = fz
	}
	return d, nil
}

// Close releases the MuPDF document.
func (d *Document) Close() error {
	if d.fz == nil {
		return nil
	}
	err := d.fz.Close()
	d.fz = nil
	return err
}

// NumPage returns the page count from the page tree.
func (d *Document) NumPage() int { return d.ctx.PageCount }

// Page returns the page at the 0-based index i.
func (d *Document) Page(i int) (extract.SourcePage, error) {
	if p, ok := d.pages[i]; ok {
		return p, nil
	}
	if i < 0 || i >= d.ctx.PageCount {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", i+1, d.ctx.PageCount)
	}
	dict, ref, _, err := d.ctx.PageDict(i+1, false)
	if err != nil {
		return nil, fmt.Errorf("page dict %d: %w", i+1, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("page %d not found in page tree", i+1)
	}
	p := &Page{doc: d, index: i, dict: dict, ref: ref}
	d.pages[i] = p
	return p, nil
}

// NamedDestinations collects the document's /Dests dictionary and /Names
// /Dests name tree. Destinations whose target is not an indirect object are skipped.
func (d *Document) NamedDestinations() (map[string]int, error) {
	out := make(map[string]int)
	if d.ctx.Root == nil {
		return out, errors.New("missing document catalog")
	}
	catalog, err := d.ctx.DereferenceDict(*d.ctx.Root)
	if err != nil {
		return out, fmt.Errorf("catalog: %w", err)
	}

	if o, found := catalog.Find("Dests"); found {
		dests, err := d.ctx.DereferenceDict(o)
		if err != nil {
			log.Debug().Err(err).Msg("unreadable /Dests dictionary")
		}
		for name, v := range dests {
			d.addDest(out, name, v)
		}
	}

	if o, found := catalog.Find("Names"); found {
		names, err := d.ctx.DereferenceDict(o)
		if err != nil {
			return out, fmt.Errorf("names dictionary: %w", err)
		}
		if root, found := names.Find("Dests"); found {
			if err := d.walkNameTree(root, out, 0); err != nil {
				return out, fmt.Errorf("dests name tree: %w", err)
			}
		}
	}
	return out, nil
}

// maxTreeDepth bounds name tree recursion on cyclic /Kids.
const maxTreeDepth = 32

func (d *Document) walkNameTree(o types.Object, out map[string]int, depth int) error {
	if depth > maxTreeDepth {
		return errors.New("name tree too deep")
	}
	node, err := d.ctx.DereferenceDict(o)
	if err != nil || node == nil {
		return err
	}
	if o, found := node.Find("Names"); found {
		arr, err := d.ctx.DereferenceArray(o)
		if err != nil {
			return err
		}
		for i := 0; i+1 < len(arr); i += 2 {
			name, err := d.stringValue(arr[i])
			if err != nil {
				log.Debug().Err(err).Msg("unreadable destination name")
				continue
			}
			d.addDest(out, name, arr[i+1])
		}
	}
	if o, found := node.Find("Kids"); found {
		kids, err := d.ctx.DereferenceArray(o)
		if err != nil {
			return err
		}
		for k, kid := range kids {
			if err := d.walkNameTree(kid, out, depth+1); err != nil {
				log.Debug().Err(err).Int("kid", k).Int("depth", depth+1).Msg("skipping unreadable name tree node")
			}
		}
	}
	return nil
}

func (d *Document) addDest(out map[string]int, name string, v types.Object) {
	id, ok := d.destObjectID(v)
	if !ok {
		log.Debug().Str("name", name).Msg("named destination has no page reference")
		return
	}
	out[name] = id
}

// destObjectID returns the object number of a destination's page: either
// [page /XYZ ...] or << /D [page ...] >>.
func (d *Document) destObjectID(v types.Object) (int, bool) {
	o, err := d.ctx.Dereference(v)
	if err != nil {
		return 0, false
	}
	if dict, ok := o.(types.Dict); ok {
		inner, found := dict.Find("D")
		if !found {
			return 0, false
		}
		if o, err = d.ctx.Dereference(inner); err != nil {
			return 0, false
		}
	}
	arr, ok := o.(types.Array)
	if !ok || len(arr) == 0 {
		return 0, false
	}
	ref, ok := arr[0].(types.IndirectRef)
	if !ok {
		return 0, false
	}
	return ref.ObjectNumber.Value(), true
}
