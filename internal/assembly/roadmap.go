package assembly

import "fmt"

// buildRoadmap buckets insights by timeframe and derives milestones and
// risk notes from their complexity mix.
func buildRoadmap(insights []ActionableInsight) Roadmap {
	var roadmap Roadmap
	var complexCount int

	for _, insight := range insights {
		action := RoadmapAction{Title: insight.Title, Timeframe: insight.Timeframe}
		if len(insight.SourceIDs) > 0 {
			action.SourceID = insight.SourceIDs[0]
		}
		switch insight.Timeframe {
		case "immediate":
			roadmap.Immediate = append(roadmap.Immediate, action)
		case "long_term":
			roadmap.LongTerm = append(roadmap.LongTerm, action)
		default:
			roadmap.ShortTerm = append(roadmap.ShortTerm, action)
		}
		if insight.Complexity == "complex" {
			complexCount++
		}
	}

	if len(roadmap.Immediate) > 0 {
		roadmap.Milestones = append(roadmap.Milestones, fmt.Sprintf("complete %d immediate actions within the first week", len(roadmap.Immediate)))
	}
	if len(roadmap.ShortTerm) > 0 {
		roadmap.Milestones = append(roadmap.Milestones, fmt.Sprintf("complete %d short-term actions within the first quarter", len(roadmap.ShortTerm)))
	}
	if len(roadmap.LongTerm) > 0 {
		roadmap.Milestones = append(roadmap.Milestones, "review long-term initiatives at each planning cycle")
	}

	if complexCount > 0 {
		roadmap.Risks = append(roadmap.Risks, fmt.Sprintf("%d actions are complex and may need dedicated resources", complexCount))
	}
	if len(insights) == 0 {
		roadmap.Risks = append(roadmap.Risks, "no actionable insights were derived; roadmap is empty")
	}
	return roadmap
}
