package orchestrator

import (
	"fmt"
	"time"

	"github.com/hermes-assist/hermes/internal/tools"
)

// resolveTaskDates rewrites step tasks containing relative time phrases to
// carry an absolute RFC-3339 timestamp, interpreted in the user's timezone.
func resolveTaskDates(steps []*PlanStep, pc *PlanContext) {
	loc, err := time.LoadLocation(pc.Timezone())
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)

	for _, step := range steps {
		if !tools.ContainsRelativeDate(step.Task) {
			continue
		}
		resolved, ok := tools.ResolveRelative(step.Task, now)
		if !ok {
			continue
		}
		step.Task = fmt.Sprintf("%s (resolved time: %s)", step.Task, resolved.Format(time.RFC3339))
	}
}
