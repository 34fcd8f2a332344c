package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hermes-assist/hermes/internal/agent"
	"github.com/hermes-assist/hermes/internal/bus"
	"github.com/hermes-assist/hermes/internal/store"
)

type fakeJobStore struct {
	mu      sync.Mutex
	jobs    map[string]*store.ScheduledJob
	patches map[string][]store.JobPatch
}

func newFakeJobStore(jobs ...*store.ScheduledJob) *fakeJobStore {
	s := &fakeJobStore{jobs: make(map[string]*store.ScheduledJob), patches: make(map[string][]store.JobPatch)}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *fakeJobStore) CreateJob(ctx context.Context, job *store.ScheduledJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *fakeJobStore) GetJob(ctx context.Context, id string) (*store.ScheduledJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id], nil
}

func (s *fakeJobStore) GetDueJobs(ctx context.Context, nowSeconds int64) ([]store.ScheduledJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []store.ScheduledJob
	for _, j := range s.jobs {
		if j.Enabled && j.NextRunAt <= nowSeconds {
			due = append(due, *j)
		}
	}
	return due, nil
}

func (s *fakeJobStore) ListJobs(ctx context.Context, phone string) ([]store.ScheduledJob, error) {
	return nil, nil
}

func (s *fakeJobStore) UpdateJob(ctx context.Context, id string, patch store.JobPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patches[id] = append(s.patches[id], patch)
	j := s.jobs[id]
	if patch.NextRunAt != nil {
		j.NextRunAt = *patch.NextRunAt
	}
	if patch.LastRunAt != nil {
		j.LastRunAt = *patch.LastRunAt
	}
	if patch.Enabled != nil {
		j.Enabled = *patch.Enabled
	}
	return nil
}

func (s *fakeJobStore) DeleteJob(ctx context.Context, id string) error { return nil }

type fakeUserStore struct{}

func (fakeUserStore) Get(ctx context.Context, phone string) (*store.UserConfig, error) {
	return &store.UserConfig{Phone: phone, Timezone: "America/Los_Angeles"}, nil
}
func (fakeUserStore) Set(ctx context.Context, cfg *store.UserConfig) error { return nil }
func (fakeUserStore) GetEmailWatcherUsers(ctx context.Context) ([]string, error) {
	return nil, nil
}
func (fakeUserStore) UpdateWatcherCheckpoint(ctx context.Context, phone, token string) error {
	return nil
}

type fakeSurface struct {
	mu       sync.Mutex
	requests []agent.ExecuteRequest
	result   *agent.StepResult
}

func (f *fakeSurface) Execute(ctx context.Context, req agent.ExecuteRequest, ec *agent.ExecContext) *agent.StepResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.result != nil {
		return f.result
	}
	return &agent.StepResult{Success: true, Output: "Your briefing: all clear."}
}

type captureSender struct {
	mu   sync.Mutex
	sent []bus.OutboundMessage
}

func (c *captureSender) Send(ctx context.Context, msg bus.OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

func TestTickFiresDailyJob(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	now := time.Date(2026, 8, 10, 9, 0, 0, 0, loc)

	job := &store.ScheduledJob{
		ID:             "job-1",
		Phone:          "+1555",
		UserRequest:    "send me a morning briefing every day at 9",
		Prompt:         "Send morning briefing",
		CronExpression: "0 9 * * *",
		Timezone:       "America/Los_Angeles",
		NextRunAt:      now.Unix(),
		Enabled:        true,
	}
	jobs := newFakeJobStore(job)
	surface := &fakeSurface{}
	sender := &captureSender{}

	r := NewRunner(Config{
		Jobs:          jobs,
		Users:         fakeUserStore{},
		Surface:       surface,
		Sender:        sender,
		ReadOnlyTools: []string{"search_email", "list_calendar_events"},
		Clock:         func() time.Time { return now },
	})
	r.Tick(context.Background())

	if len(sender.sent) != 1 {
		t.Fatalf("sends = %d, want 1", len(sender.sent))
	}
	if sender.sent[0].Phone != "+1555" || sender.sent[0].Channel != bus.ChannelSMS {
		t.Errorf("sent = %+v", sender.sent[0])
	}

	// nextRunAt advances by exactly 24h; lastRunAt equals the tick time.
	if job.NextRunAt != now.Add(24*time.Hour).Unix() {
		t.Errorf("nextRunAt = %d, want %d", job.NextRunAt, now.Add(24*time.Hour).Unix())
	}
	if job.LastRunAt != now.Unix() {
		t.Errorf("lastRunAt = %d, want %d", job.LastRunAt, now.Unix())
	}
	if !job.Enabled {
		t.Error("recurring job must stay enabled")
	}

	// The original request rides along as a context preamble, with the
	// restricted tool set.
	req := surface.requests[0]
	if len(req.InitialMessages) != 1 {
		t.Fatalf("initial messages = %d, want 1", len(req.InitialMessages))
	}
	if len(req.AllowedTools) != 2 {
		t.Errorf("allowed tools = %v", req.AllowedTools)
	}
}

func TestTickDisablesOneShot(t *testing.T) {
	now := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	job := &store.ScheduledJob{
		ID:             "job-once",
		Phone:          "+1555",
		Prompt:         "Remind me to call mom",
		CronExpression: "@once@2026-08-10T09:00:00Z",
		Timezone:       "UTC",
		NextRunAt:      now.Unix(),
		Enabled:        true,
	}
	jobs := newFakeJobStore(job)
	sender := &captureSender{}

	r := NewRunner(Config{
		Jobs:    jobs,
		Users:   fakeUserStore{},
		Surface: &fakeSurface{},
		Sender:  sender,
		Clock:   func() time.Time { return now },
	})
	r.Tick(context.Background())

	if len(sender.sent) != 1 {
		t.Fatalf("sends = %d, want 1", len(sender.sent))
	}
	if job.Enabled {
		t.Error("one-shot job must be disabled after firing")
	}
	if job.LastRunAt != now.Unix() {
		t.Errorf("lastRunAt = %d", job.LastRunAt)
	}
}

func TestTickIsolatesJobFailures(t *testing.T) {
	now := time.Now()
	good := &store.ScheduledJob{
		ID: "good", Phone: "+1555", Prompt: "p",
		CronExpression: "0 9 * * *", Timezone: "UTC",
		NextRunAt: now.Unix(), Enabled: true,
	}
	bad := &store.ScheduledJob{
		ID: "bad", Phone: "+1666", Prompt: "p",
		CronExpression: "not a cron", Timezone: "UTC",
		NextRunAt: now.Unix(), Enabled: true,
	}
	jobs := newFakeJobStore(good, bad)
	sender := &captureSender{}

	r := NewRunner(Config{
		Jobs:    jobs,
		Users:   fakeUserStore{},
		Surface: &fakeSurface{},
		Sender:  sender,
		Clock:   func() time.Time { return now },
	})
	r.Tick(context.Background())

	if len(sender.sent) != 2 {
		t.Errorf("sends = %d, a bad job must not abort the batch", len(sender.sent))
	}
	if bad.Enabled {
		t.Error("unadvanceable job should be disabled")
	}
	if !good.Enabled || good.NextRunAt <= now.Unix() {
		t.Error("good job should advance normally")
	}
}

func TestFailedExecutionStillAdvances(t *testing.T) {
	now := time.Now()
	job := &store.ScheduledJob{
		ID: "j", Phone: "+1555", Prompt: "p",
		CronExpression: "0 9 * * *", Timezone: "UTC",
		NextRunAt: now.Unix(), Enabled: true,
	}
	jobs := newFakeJobStore(job)
	sender := &captureSender{}

	r := NewRunner(Config{
		Jobs:    jobs,
		Users:   fakeUserStore{},
		Surface: &fakeSurface{result: agent.Failure("tool loop exceeded")},
		Sender:  sender,
		Clock:   func() time.Time { return now },
	})
	r.Tick(context.Background())

	if len(sender.sent) != 0 {
		t.Error("failed execution should not send")
	}
	if job.NextRunAt <= now.Unix() {
		t.Error("job must advance past a failed run")
	}
}
