// Package scheduler fires stored jobs on their cron schedule through the
// shared execution surface and delivers the output to the user.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hermes-assist/hermes/internal/agent"
	"github.com/hermes-assist/hermes/internal/bus"
	"github.com/hermes-assist/hermes/internal/cron"
	"github.com/hermes-assist/hermes/internal/poller"
	"github.com/hermes-assist/hermes/internal/providers"
	"github.com/hermes-assist/hermes/internal/store"
)

// DefaultInterval between runner ticks.
const DefaultInterval = time.Minute

const scheduledTaskPrompt = `You are Hermes executing a scheduled task on the user's behalf.
There is no live conversation: produce the final message to deliver, nothing else.
Keep it short enough for a text message. Use only the tools you are given.`

// Surface is the slice of the execution surface the runner needs.
type Surface interface {
	Execute(ctx context.Context, req agent.ExecuteRequest, ec *agent.ExecContext) *agent.StepResult
}

// Runner drives due scheduled jobs on an interval poller.
type Runner struct {
	jobs     store.JobStore
	users    store.UserConfigStore
	surface  Surface
	sender   bus.Sender
	readOnly []string // tool allow-list for scheduled execution
	clock    store.Clock
	poller   *poller.Poller
}

// Config assembles a Runner.
type Config struct {
	Jobs          store.JobStore
	Users         store.UserConfigStore
	Surface       Surface
	Sender        bus.Sender
	ReadOnlyTools []string
	Interval      time.Duration
	Clock         store.Clock
}

func NewRunner(cfg Config) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	r := &Runner{
		jobs:     cfg.Jobs,
		users:    cfg.Users,
		surface:  cfg.Surface,
		sender:   cfg.Sender,
		readOnly: cfg.ReadOnlyTools,
		clock:    cfg.Clock,
	}
	r.poller = poller.New("scheduler", cfg.Interval, r.Tick)
	return r
}

// Start begins the polling loop.
func (r *Runner) Start() { r.poller.Start() }

// Stop halts the loop, draining any in-flight tick.
func (r *Runner) Stop() <-chan struct{} { return r.poller.Stop() }

// Tick runs one batch of due jobs. Job failures are isolated: a bad job is
// logged and the batch continues.
func (r *Runner) Tick(ctx context.Context) {
	now := r.clock()
	due, err := r.jobs.GetDueJobs(ctx, now.Unix())
	if err != nil {
		slog.Error("scheduler: due-job query failed", "error", err)
		return
	}

	for i := range due {
		job := &due[i]
		if err := r.runJob(ctx, job, now); err != nil {
			slog.Error("scheduler: job failed", "job", job.ID, "error", err)
		}
	}
}

func (r *Runner) runJob(ctx context.Context, job *store.ScheduledJob, now time.Time) error {
	slog.Info("scheduler: firing job", "job", job.ID, "phone", job.Phone, "cron", job.CronExpression)

	user, err := r.users.Get(ctx, job.Phone)
	if err != nil {
		slog.Warn("scheduler: user lookup failed, executing without profile", "job", job.ID, "error", err)
	}

	var initial []providers.Message
	if job.UserRequest != "" {
		initial = append(initial, providers.Message{
			Role:    "user",
			Content: "For context, this task was originally set up with: " + job.UserRequest,
		})
	}

	result := r.surface.Execute(ctx, agent.ExecuteRequest{
		SystemPrompt:    scheduledTaskPrompt,
		Task:            job.Prompt,
		AllowedTools:    r.readOnly,
		InitialMessages: initial,
	}, &agent.ExecContext{
		Phone:   job.Phone,
		Channel: bus.ChannelScheduler,
		User:    user,
	})

	if result.Success {
		if text, ok := result.Output.(string); ok && text != "" {
			channel := job.Channel
			if channel == "" {
				channel = bus.ChannelSMS
			}
			if err := r.sender.Send(ctx, bus.OutboundMessage{
				Phone:   job.Phone,
				Channel: channel,
				Body:    text,
			}); err != nil {
				slog.Error("scheduler: send failed", "job", job.ID, "error", err)
			}
		}
	} else {
		slog.Warn("scheduler: job execution failed", "job", job.ID, "error", result.Error)
	}

	return r.advance(ctx, job, now)
}

// advance moves the job past this fire: one-shots are disabled, cron jobs
// get their next tick in the job's timezone.
func (r *Runner) advance(ctx context.Context, job *store.ScheduledJob, now time.Time) error {
	lastRun := now.Unix()

	if cron.IsOnce(job.CronExpression) {
		disabled := false
		return r.jobs.UpdateJob(ctx, job.ID, store.JobPatch{
			Enabled:   &disabled,
			LastRunAt: &lastRun,
		})
	}

	next, err := cron.NextRun(job.CronExpression, job.Timezone, now)
	if err != nil {
		// A job that cannot advance would fire every tick; disable it.
		slog.Error("scheduler: disabling unadvanceable job", "job", job.ID, "error", err)
		disabled := false
		if uerr := r.jobs.UpdateJob(ctx, job.ID, store.JobPatch{Enabled: &disabled, LastRunAt: &lastRun}); uerr != nil {
			return uerr
		}
		return fmt.Errorf("advance job %s: %w", job.ID, err)
	}

	nextUnix := next.Unix()
	return r.jobs.UpdateJob(ctx, job.ID, store.JobPatch{
		NextRunAt: &nextUnix,
		LastRunAt: &lastRun,
	})
}
