// Package pagerange parses page specifications such as "1,3,5-7,-1".
package pagerange

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Warning reports a part of a page specification that was skipped.
type Warning struct {
	Part string
	Err  error
}

func (w *Warning) Error() string {
	return fmt.Sprintf("could not parse page specification %q: %v", w.Part, w.Err)
}

func (w *Warning) Unwrap() error { return w.Err }

// Parse returns the sorted, unique 0-based page indices selected by spec in a
// document of total pages. An empty spec selects every page. Parts that do not
// parse are skipped and returned as warnings.
//
// Negative numbers count from the end: -1 is the last page.
func Parse(spec string, total int) ([]int, []*Warning) {
	if total < 0 {
		total = 0
	}
	if strings.TrimSpace(spec) == "" {
		return All(total), nil
	}

	seen := make(map[int]struct{})
	var warnings []*Warning
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, err := parsePart(part)
		if err != nil {
			w := &Warning{Part: part, Err: err}
			warnings = append(warnings, w)
			log.Warn().Str("part", part).Err(err).Msg("could not parse page specification")
			continue
		}
		lo, hi = resolve(lo, total), resolve(hi, total)
		if lo <= 0 || hi <= 0 {
			continue
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo < 1 {
			lo = 1
		}
		if hi > total {
			hi = total
		}
		for p := lo; p <= hi; p++ {
			seen[p-1] = struct{}{}
		}
	}

	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, warnings
}

// All returns every page index of a document with total pages.
func All(total int) []int {
	out := make([]int, 0, total)
	for i := 0; i < total; i++ {
		out = append(out, i)
	}
	return out
}

// parsePart returns the 1-based bounds of a part before negative indexing.
// A single page n yields n, n.
func parsePart(part string) (int, int, error) {
	if n, err := strconv.Atoi(part); err == nil {
		return n, n, nil
	}
	start, end, ok := strings.Cut(part, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid page number")
	}
	lo, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range start: %w", err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range end: %w", err)
	}
	return lo, hi, nil
}

func resolve(n, total int) int {
	if n < 0 {
		return total + n + 1
	}
	return n
}
