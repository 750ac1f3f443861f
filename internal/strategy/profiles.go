package strategy

import "strings"

// frameworkProfile is the expansion vocabulary for one framework, split by
// approach kind.
type frameworkProfile struct {
	components   []string
	scenarios    []string
	progression  []string
	integrations []string
	stages       []string
}

// profiles holds curated vocabularies for the frameworks the corpus is
// tagged with. Unknown frameworks fall back to a profile derived from the
// tag itself.
var profiles = map[string]frameworkProfile{
	"grand_slam_offers": {
		components:   []string{"value equation", "guarantee", "scarcity", "urgency", "bonuses", "naming"},
		scenarios:    []string{"launching a new offer", "raising prices", "standing out in a crowded market"},
		progression:  []string{"offer creation steps", "testing an offer", "offer iteration"},
		integrations: []string{"offer and lead generation", "offer and pricing"},
		stages:       []string{"startup", "scaling"},
	},
	"core_four": {
		components:   []string{"warm outreach", "cold outreach", "content", "paid ads"},
		scenarios:    []string{"getting first customers", "scaling lead flow", "channel saturation"},
		progression:  []string{"channel selection", "volume ramp", "delegating outreach"},
		integrations: []string{"leads and offer", "leads and sales process"},
		stages:       []string{"startup", "scaling", "growth"},
	},
	"value_ladder": {
		components:   []string{"entry offer", "core offer", "premium tier", "continuity"},
		scenarios:    []string{"monetizing an audience", "increasing customer lifetime value"},
		progression:  []string{"ladder design", "ascension path", "tier pricing"},
		integrations: []string{"value ladder and lead magnet", "value ladder and retention"},
		stages:       []string{"scaling", "growth"},
	},
	"lead_magnet": {
		components:   []string{"lead magnet format", "problem solved", "delivery", "call to action"},
		scenarios:    []string{"building an email list", "low conversion landing page"},
		progression:  []string{"magnet ideation", "magnet testing", "magnet to offer handoff"},
		integrations: []string{"lead magnet and core four", "lead magnet and value ladder"},
		stages:       []string{"startup"},
	},
	"pricing_psychology": {
		components:   []string{"anchoring", "price framing", "premium positioning", "payment terms"},
		scenarios:    []string{"underpricing", "price objections", "moving upmarket"},
		progression:  []string{"price testing", "price increase rollout"},
		integrations: []string{"pricing and offer", "pricing and guarantees"},
		stages:       []string{"startup", "scaling", "growth"},
	},
	"scaling_systems": {
		components:   []string{"hiring", "delegation", "process documentation", "metrics"},
		scenarios:    []string{"founder bottleneck", "quality dropping with growth"},
		progression:  []string{"first hires", "management layer", "operating cadence"},
		integrations: []string{"systems and lead generation", "systems and fulfillment"},
		stages:       []string{"scaling", "growth"},
	},
}

// profileFor returns the curated profile for a framework tag, or a generic
// one derived from the tag when the framework is not curated.
func profileFor(framework string) frameworkProfile {
	if profile, ok := profiles[framework]; ok {
		return profile
	}
	name := strings.ReplaceAll(framework, "_", " ")
	return frameworkProfile{
		components:   []string{name + " components"},
		scenarios:    []string{"applying " + name},
		progression:  []string{name + " step by step"},
		integrations: []string{name + " with other frameworks"},
	}
}
