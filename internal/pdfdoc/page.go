package pdfdoc

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/local/guidereader/internal/extract"
)

// Page is one page of a Document.
type Page struct {
	doc   *Document
	index int
	dict  types.Dict
	ref   *types.IndirectRef
}

// ObjectID returns the object number of the page dictionary.
func (p *Page) ObjectID() (int, error) {
	if p.ref == nil {
		return 0, ErrNoIndirectRef
	}
	return p.ref.ObjectNumber.Value(), nil
}

// LayoutText returns MuPDF's text for the page, which keeps line structure.
func (p *Page) LayoutText() (string, error) {
	if p.doc.fz == nil {
		return "", errors.New("layout text unavailable")
	}
	return p.doc.fz.Text(p.index)
}

// PlainText returns the text shown by the page's content streams, without
// font decoding or positioning beyond line breaks.
func (p *Page) PlainText() (string, error) {
	r, err := pdfcpu.ExtractPageContent(p.doc.ctx, p.index+1)
	if err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return contentText(data), nil
}

// Annotations returns the entries of the page's /Annots array. Each entry is
// dereferenced lazily so one broken annotation does not hide the others.
func (p *Page) Annotations() ([]extract.Annotation, error) {
	o, found := p.dict.Find("Annots")
	if !found || o == nil {
		return nil, nil
	}
	arr, err := p.doc.ctx.DereferenceArray(o)
	if err != nil {
		return nil, fmt.Errorf("annots: %w", err)
	}
	out := make([]extract.Annotation, 0, len(arr))
	for _, a := range arr {
		out = append(out, &annotation{doc: p.doc, obj: a})
	}
	return out, nil
}

type annotation struct {
	doc *Document
	obj types.Object
}

// Action returns the /A action of a link annotation, or nil when there is none.
func (a *annotation) Action() (*extract.Action, error) {
	dict, err := a.doc.ctx.DereferenceDict(a.obj)
	if err != nil {
		return nil, err
	}
	if dict == nil {
		return nil, errors.New("annotation is not a dictionary")
	}
	o, found := dict.Find("A")
	if !found || o == nil {
		return nil, nil
	}
	act, err := a.doc.ctx.DereferenceDict(o)
	if err != nil {
		return nil, fmt.Errorf("action: %w", err)
	}
	if act == nil {
		return nil, nil
	}
	s := act.NameEntry("S")
	if s == nil {
		return nil, nil
	}
	res := &extract.Action{Subtype: *s}
	if res.Subtype != extract.GoTo {
		return res, nil
	}
	dest, found := act.Find("D")
	if !found {
		return nil, errors.New("GoTo action without /D")
	}
	if res.Target, err = a.doc.render(dest, 0); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	return res, nil
}

// render writes a destination as text: strings are decoded, references become
// "N G R" and arrays are bracketed.
func (d *Document) render(o types.Object, depth int) (string, error) {
	if depth > maxTreeDepth {
		return "", errors.New("destination nested too deep")
	}
	switch v := o.(type) {
	case nil:
		return "", errors.New("empty destination")
	case types.StringLiteral, types.HexLiteral:
		return d.stringValue(v)
	case types.Name:
		return string(v), nil
	case types.Integer:
		return strconv.Itoa(v.Value()), nil
	case types.Float:
		return strconv.FormatFloat(v.Value(), 'f', -1, 64), nil
	case types.IndirectRef:
		if depth == 0 {
			// the destination itself is stored indirectly
			target, err := d.ctx.Dereference(v)
			if err != nil {
				return "", err
			}
			return d.render(target, depth+1)
		}
		return fmt.Sprintf("%d %d R", v.ObjectNumber.Value(), v.GenerationNumber.Value()), nil
	case types.Array:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			s, err := d.render(e, depth+1)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, " ") + "]", nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (d *Document) stringValue(o types.Object) (string, error) {
	o, err := d.ctx.Dereference(o)
	if err != nil {
		return "", err
	}
	switch v := o.(type) {
	case types.StringLiteral:
		return types.StringLiteralToString(v)
	case types.HexLiteral:
		return types.HexLiteralToString(v)
	case types.Name:
		return string(v), nil
	default:
		return "", fmt.Errorf("unexpected %T", o)
	}
}
