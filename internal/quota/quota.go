package quota

import (
	"math"

	"ReviewPipeline/internal/domain"
)

// PriorityOrder is the fixed order sources are drained in. Earlier sources
// can starve later ones when the requested total is small; tests assert on
// this directly.
var PriorityOrder = []domain.SourceKind{
	domain.SourceDeal,
	domain.SourceKeyword,
	domain.SourceCategory,
	domain.SourcePrivateLabel,
}

// DefaultWeights mirrors the production collection split.
var DefaultWeights = map[domain.SourceKind]float64{
	domain.SourceDeal:         0.20,
	domain.SourceKeyword:      0.30,
	domain.SourceCategory:     0.40,
	domain.SourcePrivateLabel: 0.10,
}

// Allocation is one source's share of a collection run. Quota caps the
// total taken from the source; PerSub caps each concrete sub-source fetch.
// Subs is empty for sources without fan-out (deals).
type Allocation struct {
	Kind   domain.SourceKind
	Quota  int
	PerSub int
	Subs   []string
}

// Plan splits a requested batch size across the enabled sources by weight.
// A source is enabled iff its kind is present in enabled; the mapped slice
// holds its concrete sub-sources and may be empty. Allocations are
// floor(requested*weight) capped by the remaining quota, in PriorityOrder;
// a source whose allocation comes out non-positive is skipped for the rest
// of the run. Multiple sub-sources split their allocation evenly as
// max(1, floor(allocation/subCount)); uneven remainders are not carried
// over, and the source-level Quota still bounds what is actually taken.
func Plan(requested int, weights map[domain.SourceKind]float64, enabled map[domain.SourceKind][]string) []Allocation {
	if requested <= 0 {
		return nil
	}

	remaining := requested
	var plan []Allocation

	for _, kind := range PriorityOrder {
		subs, ok := enabled[kind]
		if !ok {
			continue
		}

		alloc := int(math.Floor(float64(requested) * weights[kind]))
		if alloc > remaining {
			alloc = remaining
		}
		if alloc <= 0 {
			continue
		}

		perSub := alloc
		if len(subs) > 1 {
			perSub = max(1, alloc/len(subs))
		}

		plan = append(plan, Allocation{Kind: kind, Quota: alloc, PerSub: perSub, Subs: subs})
		remaining -= alloc
	}

	return plan
}
