package skills

import "strings"

// Match is one skill routing decision.
type Match struct {
	Skill      *LoadedSkill
	Confidence float64
}

// MatchForMessage finds the skill whose match hints best cover the message.
// Confidence is matched hints over total hints; results below the registry
// threshold are dropped. Ties go to the earliest-discovered skill.
func (r *Registry) MatchForMessage(text, channel string) (Match, bool) {
	lower := strings.ToLower(text)

	var best Match
	for _, s := range r.List() {
		if !s.Enabled || !s.RoutableFrom(channel) || len(s.MatchHints) == 0 {
			continue
		}
		matched := 0
		for _, hint := range s.MatchHints {
			if strings.Contains(lower, strings.ToLower(hint)) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		conf := float64(matched) / float64(len(s.MatchHints))
		if conf > best.Confidence {
			best = Match{Skill: s, Confidence: conf}
		}
	}

	if best.Skill == nil || best.Confidence < r.cfg.ConfidenceThreshold {
		return Match{}, false
	}
	return best, true
}
