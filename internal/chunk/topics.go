// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chunk

import (
	"regexp"
	"sort"
	"strings"
)

type topic struct {
	label    string
	keywords []*regexp.Regexp
}

func newTopic(label string, keywords ...string) topic {
	t := topic{label: label}
	for _, kw := range keywords {
		t.keywords = append(t.keywords, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)+`(?:s|es)?\b`))
	}
	return t
}

// vocabulary is the fixed topic list. Its order breaks scoring ties.
var vocabulary = []topic{
	newTopic("Advancement", "advancement", "promotion", "exam", "rating", "fms", "pma", "sipg", "rsca", "bibliography", "e-4", "e-5", "e-6", "e-7"),
	newTopic("Leadership", "leadership", "leader", "supervisor", "mentor", "chain of command", "division", "counseling"),
	newTopic("Safety", "safety", "hazard", "mishap", "ppe", "risk", "orm", "protective equipment"),
	newTopic("Damage Control", "damage control", "fire", "flooding", "firefighting", "repair locker", "casualty"),
	newTopic("Seamanship", "seamanship", "mooring", "line handling", "anchor", "deck", "boat", "underway"),
	newTopic("Navigation", "navigation", "chart", "bearing", "compass", "gps", "plotting", "latitude", "longitude"),
	newTopic("Engineering", "engineering", "engine", "propulsion", "boiler", "turbine", "electrical", "generator", "maintenance"),
	newTopic("Administration", "administration", "evaluation", "eval", "fitness report", "record", "instruction", "opnav", "navpers", "form"),
	newTopic("Security", "security", "classified", "clearance", "opsec", "access", "watchstander"),
	newTopic("Medical", "medical", "first aid", "corpsman", "injury", "health", "cpr"),
	newTopic("Supply", "supply", "logistics", "inventory", "requisition", "stock"),
	newTopic("Communications", "communication", "radio", "signal", "message", "comms"),
	newTopic("Weapons", "weapon", "ordnance", "small arms", "ammunition", "missile", "gunnery"),
	newTopic("Uniforms", "uniform", "grooming", "insignia", "dress"),
	newTopic("Military Justice", "ucmj", "nonjudicial", "court-martial", "justice"),
}

// Topics returns up to max topic labels for text, ranked by keyword
// frequency with ties broken by vocabulary order. It returns nil when no
// keyword matches.
func Topics(text string, max int) []string {
	if max <= 0 {
		return nil
	}
	lower := strings.ToLower(text)

	type scored struct {
		label string
		score int
	}
	var ranked []scored
	for _, t := range vocabulary {
		score := 0
		for _, kw := range t.keywords {
			score += len(kw.FindAllStringIndex(lower, -1))
		}
		if score > 0 {
			ranked = append(ranked, scored{label: t.label, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	var labels []string
	for _, r := range ranked {
		labels = append(labels, r.label)
	}
	return labels
}
