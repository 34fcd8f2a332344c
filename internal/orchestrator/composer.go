package orchestrator

// fallbackReply is sent when no step produced usable text.
const fallbackReply = "Sorry, I couldn't complete that. Please try rephrasing."

// Compose assembles the final reply from the executed plan: the last
// completed step with non-empty string output wins, and any auth-required
// marker's URL is passed through verbatim.
func Compose(plan *ExecutionPlan, pc *PlanContext) string {
	var body string
	for _, s := range plan.Steps {
		if s.Status != StepCompleted || s.Result == nil {
			continue
		}
		if text, ok := s.Result.Output.(string); ok && text != "" {
			body = text
		}
	}

	if url := authURL(plan); url != "" {
		if body == "" {
			return "I need access to your account first. Connect it here: " + url
		}
		return body + "\n\nConnect your account here: " + url
	}

	if body == "" {
		return fallbackReply
	}
	return body
}

// authURL finds an auth-required marker in any step result.
func authURL(plan *ExecutionPlan) string {
	for _, s := range plan.Steps {
		if s.Result == nil || !s.Result.OutputFlag("auth_required") {
			continue
		}
		if m := s.Result.OutputMap(); m != nil {
			if url, ok := m["auth_url"].(string); ok {
				return url
			}
		}
	}
	return ""
}
