package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hermes-assist/hermes/internal/cron"
	"github.com/hermes-assist/hermes/internal/store"
)

// CreateReminderTool saves a scheduled job that fires through the job runner.
type CreateReminderTool struct {
	jobs store.JobStore
}

func NewCreateReminderTool(jobs store.JobStore) *CreateReminderTool {
	return &CreateReminderTool{jobs: jobs}
}

func (t *CreateReminderTool) Name() string { return "create_reminder" }

func (t *CreateReminderTool) Description() string {
	return "Schedule a reminder or recurring task. Use schedule='@once@{rfc3339}' for one-time reminders, or a five-field cron expression (e.g. '0 9 * * *') for recurring ones."
}

func (t *CreateReminderTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "What to do when the reminder fires, phrased as an instruction",
			},
			"schedule": map[string]interface{}{
				"type":        "string",
				"description": "Five-field cron expression or @once@{rfc3339}",
			},
			"user_request": map[string]interface{}{
				"type":        "string",
				"description": "The user's original phrasing, kept for context",
			},
		},
		"required": []string{"prompt", "schedule"},
	}
}

func (t *CreateReminderTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	prompt, _ := args["prompt"].(string)
	schedule, _ := args["schedule"].(string)
	userRequest, _ := args["user_request"].(string)
	if strings.TrimSpace(prompt) == "" || strings.TrimSpace(schedule) == "" {
		return ErrorResult("prompt and schedule are required")
	}

	phone := PhoneFromCtx(ctx)
	if phone == "" {
		return ErrorResult("no user in context")
	}
	timezone := UserTimezoneFromCtx(ctx)

	if err := cron.Validate(schedule); err != nil {
		return ErrorResult("invalid schedule: " + err.Error())
	}

	var nextRun time.Time
	if cron.IsOnce(schedule) {
		once, err := cron.OnceTime(schedule)
		if err != nil {
			return ErrorResult("invalid schedule: " + err.Error())
		}
		if once.Before(time.Now()) {
			return ErrorResult("reminder time is in the past")
		}
		nextRun = once
	} else {
		next, err := cron.NextRun(schedule, timezone, time.Now())
		if err != nil {
			return ErrorResult("invalid schedule: " + err.Error())
		}
		nextRun = next
	}

	job := &store.ScheduledJob{
		Phone:          phone,
		UserRequest:    userRequest,
		Prompt:         prompt,
		CronExpression: schedule,
		Timezone:       timezone,
		Channel:        ChannelFromCtx(ctx),
		NextRunAt:      nextRun.Unix(),
		Enabled:        true,
	}
	if err := t.jobs.CreateJob(ctx, job); err != nil {
		return ErrorResult("failed to save reminder: " + err.Error()).WithError(err)
	}

	return NewResult(fmt.Sprintf("Reminder %s scheduled; first run at %s.", job.ID, nextRun.Format(time.RFC3339)))
}

// ListRemindersTool lists the user's scheduled jobs.
type ListRemindersTool struct {
	jobs store.JobStore
}

func NewListRemindersTool(jobs store.JobStore) *ListRemindersTool {
	return &ListRemindersTool{jobs: jobs}
}

func (t *ListRemindersTool) Name() string { return "list_reminders" }

func (t *ListRemindersTool) Description() string {
	return "List the user's scheduled reminders and recurring tasks."
}

func (t *ListRemindersTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *ListRemindersTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	phone := PhoneFromCtx(ctx)
	if phone == "" {
		return ErrorResult("no user in context")
	}

	jobs, err := t.jobs.ListJobs(ctx, phone)
	if err != nil {
		return ErrorResult("failed to list reminders: " + err.Error()).WithError(err)
	}
	if len(jobs) == 0 {
		return NewResult("No reminders scheduled.")
	}

	var lines []string
	for _, j := range jobs {
		state := "enabled"
		if !j.Enabled {
			state = "disabled"
		}
		next := time.Unix(j.NextRunAt, 0).UTC().Format(time.RFC3339)
		lines = append(lines, fmt.Sprintf("- [%s] %q (%s, next %s, %s)", j.ID, j.Prompt, j.CronExpression, next, state))
	}
	return NewResult(strings.Join(lines, "\n"))
}

// CancelReminderTool deletes a scheduled job by id.
type CancelReminderTool struct {
	jobs store.JobStore
}

func NewCancelReminderTool(jobs store.JobStore) *CancelReminderTool {
	return &CancelReminderTool{jobs: jobs}
}

func (t *CancelReminderTool) Name() string { return "cancel_reminder" }

func (t *CancelReminderTool) Description() string {
	return "Cancel a scheduled reminder by its id (from list_reminders)."
}

func (t *CancelReminderTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "The reminder id to cancel",
			},
		},
		"required": []string{"id"},
	}
}

func (t *CancelReminderTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	id, _ := args["id"].(string)
	if id == "" {
		return ErrorResult("id is required")
	}

	job, err := t.jobs.GetJob(ctx, id)
	if err != nil {
		return ErrorResult("failed to look up reminder: " + err.Error()).WithError(err)
	}
	if job == nil || job.Phone != PhoneFromCtx(ctx) {
		return ErrorResult("no such reminder")
	}

	if err := t.jobs.DeleteJob(ctx, id); err != nil {
		return ErrorResult("failed to cancel reminder: " + err.Error()).WithError(err)
	}
	return NewResult("Reminder cancelled.")
}
