package assembly

import (
	"sort"
	"strings"
)

// section is one block of the content structure, holding the prepared
// sources that feed it.
type section struct {
	Name    string
	Sources []preparedSource
}

// contentStructure is the organizer output consumed by synthesis.
type contentStructure struct {
	Organization ContentOrganization
	Sections     []section
}

// Organizer thresholds for the action_oriented buckets.
const (
	immediateBucketFloor = 0.7
	strategicBucketFloor = 0.6
	longTermBucketFloor  = 0.5
)

// buildStructure dispatches on the organization mode. The switch is
// exhaustive over ContentOrganization; Validate rejects unknown values
// before this point.
func buildStructure(ac Context, org ContentOrganization, prepared []preparedSource) contentStructure {
	switch org {
	case OrganizeFrameworkBased:
		return organizeByFramework(ac.QueryText, prepared)
	case OrganizeActionOriented:
		return organizeByAction(prepared)
	case OrganizeProblemSolution:
		return contentStructure{
			Organization: OrganizeProblemSolution,
			Sections: []section{
				{Name: "Problem", Sources: nil},
				{Name: "Solution", Sources: prepared},
			},
		}
	case OrganizeEducational:
		return contentStructure{
			Organization: OrganizeEducational,
			Sections:     []section{{Name: "Concepts", Sources: prepared}},
		}
	default:
		return contentStructure{
			Organization: OrganizeFrameworkBased,
			Sections:     []section{{Name: "General", Sources: prepared}},
		}
	}
}

// organizeByFramework builds one section per distinct framework tag. A
// framework named in the query text sorts ahead of the rest; otherwise
// first-appearance order is kept.
func organizeByFramework(queryText string, prepared []preparedSource) contentStructure {
	lowerQuery := strings.ToLower(queryText)

	type frameworkGroup struct {
		name       string
		sources    []preparedSource
		queryBoost bool
		order      int
	}

	groups := make(map[string]*frameworkGroup)
	var ordered []*frameworkGroup
	addTo := func(name string, ps preparedSource) {
		key := strings.ToLower(name)
		group, ok := groups[key]
		if !ok {
			group = &frameworkGroup{
				name:       name,
				queryBoost: strings.Contains(lowerQuery, strings.ReplaceAll(key, "_", " ")),
				order:      len(ordered),
			}
			groups[key] = group
			ordered = append(ordered, group)
		}
		group.sources = append(group.sources, ps)
	}

	for _, ps := range prepared {
		if len(ps.frameworks) == 0 {
			addTo("General Guidance", ps)
			continue
		}
		for _, fw := range ps.frameworks {
			addTo(fw, ps)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].queryBoost != ordered[j].queryBoost {
			return ordered[i].queryBoost
		}
		return ordered[i].order < ordered[j].order
	})

	structure := contentStructure{Organization: OrganizeFrameworkBased}
	for _, group := range ordered {
		structure.Sections = append(structure.Sections, section{Name: group.name, Sources: group.sources})
	}
	return structure
}

// organizeByAction buckets sources into the three fixed urgency tiers. A
// source may appear in more than one bucket when its scores qualify.
func organizeByAction(prepared []preparedSource) contentStructure {
	var immediate, strategic, longTerm []preparedSource
	for _, ps := range prepared {
		var placed bool
		if ps.immediacy > immediateBucketFloor {
			immediate = append(immediate, ps)
			placed = true
		}
		if ps.strategicValue > strategicBucketFloor {
			strategic = append(strategic, ps)
			placed = true
		}
		if ps.longTermValue > longTermBucketFloor {
			longTerm = append(longTerm, ps)
			placed = true
		}
		if !placed {
			strategic = append(strategic, ps)
		}
	}
	return contentStructure{
		Organization: OrganizeActionOriented,
		Sections: []section{
			{Name: "Immediate Actions", Sources: immediate},
			{Name: "Strategic Initiatives", Sources: strategic},
			{Name: "Long-Term Positioning", Sources: longTerm},
		},
	}
}
