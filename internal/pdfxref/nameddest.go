package pdfxref

import "github.com/rs/zerolog/log"

// NamedDests maps destination names to 1-based page numbers.
type NamedDests map[string]int

// BuildNamedDestinations keeps every destination whose target object is a page
// in xref. Destinations pointing anywhere else are dropped silently.
func BuildNamedDestinations(dests map[string]int, xref XrefTable) NamedDests {
	out := make(NamedDests, len(dests))
	for name, objectID := range dests {
		page, ok := xref.Page(objectID)
		if !ok {
			continue
		}
		out[name] = page
		log.Debug().Str("name", name).Int("xref", objectID).Int("page", page).Msg("named destination")
	}
	log.Info().Int("destinations", len(out)).Int("dangling", len(dests)-len(out)).Msg("built named destinations mapping")
	return out
}
