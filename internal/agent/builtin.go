package agent

import (
	"context"
	"strings"
	"time"
)

// Builtin agent prompt templates. {userContext} and {timeContext} are
// resolved per-request from the execution context.
const (
	generalPrompt = `You are Hermes, a helpful personal assistant reached over text message.
{userContext}
{timeContext}
Answer directly and concisely. Text messages are short: prefer one or two sentences.
Use tools when they help; otherwise just answer.`

	emailPrompt = `You are Hermes's email specialist.
{userContext}
{timeContext}
Search, read, and send email on the user's behalf using the available tools.
Report findings plainly. If a search returns nothing, say so rather than guessing.`

	calendarPrompt = `You are Hermes's calendar specialist.
{userContext}
{timeContext}
Create, list, and update calendar events using the available tools.
Event times must be absolute timestamps; never schedule from a vague phrase.`

	memoryPrompt = `You are Hermes's memory keeper.
{userContext}
{timeContext}
Store and recall facts about the user with the memory tools. Keep facts short,
standalone, and phrased in third person.`

	reminderPrompt = `You are Hermes's reminder scheduler.
{userContext}
{timeContext}
Create, list, and cancel reminders with the reminder tools. Resolve relative
times with resolve_date before scheduling.`
)

// RegisterBuiltinAgents wires the standard agent set onto a registry,
// each a prompt shim over the shared execution surface.
func RegisterBuiltinAgents(registry *Registry, surface *Surface) {
	register := func(cap Capability, prompt string) {
		registry.Register(Registration{
			Capability: cap,
			Execute: func(ctx context.Context, task string, ec *ExecContext) *StepResult {
				return surface.Execute(ctx, ExecuteRequest{
					SystemPrompt: RenderPrompt(prompt, ec),
					Task:         task,
					AllowedTools: cap.Tools,
				}, ec)
			},
		})
	}

	register(Capability{
		Name:        GeneralAgent,
		Description: "Handles greetings, questions, and anything no specialist covers.",
		Tools:       []string{"*"},
		Examples:    []string{"Hello!", "What's the weather like in Rome?", "Summarize my day"},
	}, generalPrompt)

	register(Capability{
		Name:        "email-agent",
		Description: "Searches, reads, and sends email.",
		Tools:       []string{"search_email", "read_email", "send_email"},
		Examples:    []string{"Find my hotel confirmation", "Email Sam that I'm running late"},
	}, emailPrompt)

	register(Capability{
		Name:        "calendar-agent",
		Description: "Creates and lists calendar events.",
		Tools:       []string{"list_calendar_events", "create_calendar_event", "resolve_date"},
		Examples:    []string{"Schedule dentist tomorrow at 3pm", "What's on my calendar Friday?"},
	}, calendarPrompt)

	register(Capability{
		Name:        "memory-agent",
		Description: "Remembers and recalls facts about the user.",
		Tools:       []string{"save_memory", "search_memory", "delete_memory"},
		Examples:    []string{"Remember my gate code is 4821", "What's my gate code?"},
	}, memoryPrompt)

	register(Capability{
		Name:        "reminder-agent",
		Description: "Schedules, lists, and cancels reminders and recurring tasks.",
		Tools:       []string{"create_reminder", "list_reminders", "cancel_reminder", "resolve_date"},
		Examples:    []string{"Remind me to call mom at 6pm", "Send me a morning briefing every day at 9"},
	}, reminderPrompt)
}

// RenderPrompt resolves {userContext} and {timeContext} placeholders.
func RenderPrompt(template string, ec *ExecContext) string {
	var userCtx strings.Builder
	if ec != nil && ec.User != nil && ec.User.Name != "" {
		userCtx.WriteString("The user's name is " + ec.User.Name + ".")
	} else {
		userCtx.WriteString("The user has not shared their name.")
	}
	if ec != nil && ec.MediaContext != "" {
		userCtx.WriteString("\nAttached media: " + ec.MediaContext)
	}

	loc, err := time.LoadLocation(ec.Timezone())
	if err != nil {
		loc = time.UTC
	}
	timeCtx := "Current time: " + time.Now().In(loc).Format("Monday, January 2, 2006 3:04 PM MST")

	out := strings.ReplaceAll(template, "{userContext}", userCtx.String())
	out = strings.ReplaceAll(out, "{timeContext}", timeCtx)
	return out
}
