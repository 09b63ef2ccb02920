package pdfxref

import (
	"regexp"
	"strconv"
	"strings"
)

// InDesignMarker prefixes compound link targets written by InDesign exports.
const InDesignMarker = "indd:"

// Strategy identifies how a link target was resolved.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyNamedDest
	StrategyInDesign
	StrategyGeneric
)

func (s Strategy) String() string {
	switch s {
	case StrategyNamedDest:
		return "named_dest"
	case StrategyInDesign:
		return "indd"
	case StrategyGeneric:
		return "generic"
	default:
		return "unresolved"
	}
}

// Link is one GoTo annotation found on a page. ResolvedPage is nil when the
// target could not be mapped to a page.
type Link struct {
	SourcePage   int      `json:"source_page"`
	RawTarget    string   `json:"target"`
	ResolvedPage *int     `json:"target_page,omitempty"`
	Strategy     Strategy `json:"-"`
}

// Resolved reports whether the link points at a known page.
func (l Link) Resolved() bool { return l.ResolvedPage != nil }

var digitsRegex = regexp.MustCompile(`\d+`)

type strategy struct {
	kind    Strategy
	resolve func(r *Resolver, target string) (int, bool)
}

// strategies are tried in order; the first hit wins.
var strategies = []strategy{
	{StrategyNamedDest, (*Resolver).byName},
	{StrategyInDesign, (*Resolver).byInDesign},
	{StrategyGeneric, (*Resolver).byFirstInteger},
}

// Resolver maps raw GoTo targets to page numbers using one document's tables.
type Resolver struct {
	xref  XrefTable
	named NamedDests
}

// NewResolver returns a resolver over the given tables. Either may be nil.
func NewResolver(xref XrefTable, named NamedDests) *Resolver {
	return &Resolver{xref: xref, named: named}
}

// Resolve returns the page a raw target points at and the strategy that matched.
// The zero page with StrategyNone means unresolved.
func (r *Resolver) Resolve(target string) (int, Strategy) {
	for _, s := range strategies {
		if page, ok := s.resolve(r, target); ok {
			return page, s.kind
		}
	}
	return 0, StrategyNone
}

// Link builds the link record for target found on sourcePage.
func (r *Resolver) Link(sourcePage int, target string) Link {
	l := Link{SourcePage: sourcePage, RawTarget: target}
	if page, kind := r.Resolve(target); kind != StrategyNone {
		l.ResolvedPage = &page
		l.Strategy = kind
	}
	return l
}

func (r *Resolver) byName(target string) (int, bool) {
	page, ok := r.named[target]
	return page, ok
}

// byInDesign uses the last integer between the first marker and the next one;
// a sequence number precedes the object id in this encoding.
func (r *Resolver) byInDesign(target string) (int, bool) {
	i := strings.Index(target, InDesignMarker)
	if i < 0 {
		return 0, false
	}
	rest := target[i+len(InDesignMarker):]
	if j := strings.Index(rest, InDesignMarker); j >= 0 {
		rest = rest[:j]
	}
	nums := digitsRegex.FindAllString(rest, -1)
	if len(nums) == 0 {
		return 0, false
	}
	return r.lookup(nums[len(nums)-1])
}

func (r *Resolver) byFirstInteger(target string) (int, bool) {
	if strings.Contains(target, InDesignMarker) {
		return 0, false
	}
	num := digitsRegex.FindString(target)
	if num == "" {
		return 0, false
	}
	return r.lookup(num)
}

func (r *Resolver) lookup(num string) (int, bool) {
	id, err := strconv.Atoi(num)
	if err != nil {
		return 0, false
	}
	return r.xref.Page(id)
}
