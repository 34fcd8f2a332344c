// Package watcher polls users' mailboxes in the background, routes new
// items through the skill registry, and notifies the user under a per-hour
// throttle.
package watcher

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hermes-assist/hermes/internal/bus"
	"github.com/hermes-assist/hermes/internal/poller"
	"github.com/hermes-assist/hermes/internal/skills"
	"github.com/hermes-assist/hermes/internal/store"
	"github.com/hermes-assist/hermes/internal/tools"
)

// Defaults.
const (
	DefaultInterval                = 5 * time.Minute
	DefaultMaxNotificationsPerHour = 3

	credentialProvider = "google"
	throttleWindow     = time.Hour
)

// Item is one unit produced by the sync layer, e.g. a new email.
type Item struct {
	ID      string
	Subject string
	From    string
	Snippet string
}

// MatchText is the string skills are matched against.
func (it Item) MatchText() string {
	return strings.ToLower(it.Subject + " " + it.From + " " + it.Snippet)
}

// Syncer is the domain sync layer: it returns new items since the user's
// checkpoint and the checkpoint to store for the next pass.
type Syncer interface {
	Sync(ctx context.Context, phone, checkpoint string) (items []Item, nextCheckpoint string, err error)
}

// NoopSyncer stands in when no mailbox integration is configured.
type NoopSyncer struct{}

func (NoopSyncer) Sync(ctx context.Context, phone, checkpoint string) ([]Item, string, error) {
	return nil, checkpoint, nil
}

// throttleState is per-user send accounting in a fixed 1h window.
type throttleState struct {
	count       int
	windowStart time.Time
}

// Watcher drives the background mailbox loop on an interval poller.
type Watcher struct {
	users       store.UserConfigStore
	credentials store.CredentialStore
	skills      *skills.Registry
	syncer      Syncer
	sender      bus.Sender
	maxPerHour  int
	clock       store.Clock
	poller      *poller.Poller

	mu       sync.Mutex
	throttle map[string]*throttleState
}

// Config assembles a Watcher.
type Config struct {
	Users                   store.UserConfigStore
	Credentials             store.CredentialStore
	Skills                  *skills.Registry
	Syncer                  Syncer
	Sender                  bus.Sender
	Interval                time.Duration
	MaxNotificationsPerHour int
	Clock                   store.Clock
}

func New(cfg Config) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxNotificationsPerHour <= 0 {
		cfg.MaxNotificationsPerHour = DefaultMaxNotificationsPerHour
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	w := &Watcher{
		users:       cfg.Users,
		credentials: cfg.Credentials,
		skills:      cfg.Skills,
		syncer:      cfg.Syncer,
		sender:      cfg.Sender,
		maxPerHour:  cfg.MaxNotificationsPerHour,
		clock:       cfg.Clock,
		throttle:    make(map[string]*throttleState),
	}
	w.poller = poller.New("watcher", cfg.Interval, w.Tick)
	return w
}

// Start begins the polling loop.
func (w *Watcher) Start() { w.poller.Start() }

// Stop halts the loop, draining any in-flight tick.
func (w *Watcher) Stop() <-chan struct{} { return w.poller.Stop() }

// Tick processes every watcher-enabled user sequentially. Per-user failures
// are logged and skipped.
func (w *Watcher) Tick(ctx context.Context) {
	phones, err := w.users.GetEmailWatcherUsers(ctx)
	if err != nil {
		slog.Error("watcher: user listing failed", "error", err)
		return
	}

	for _, phone := range phones {
		if err := w.checkUser(ctx, phone); err != nil {
			slog.Error("watcher: user check failed", "phone", phone, "error", err)
		}
	}
}

func (w *Watcher) checkUser(ctx context.Context, phone string) error {
	cred, err := w.credentials.Get(ctx, phone, credentialProvider)
	if err != nil {
		return err
	}
	if cred == nil {
		slog.Debug("watcher: skipping user without credentials", "phone", phone)
		return nil
	}

	user, err := w.users.Get(ctx, phone)
	if err != nil {
		return err
	}
	checkpoint := ""
	if user != nil {
		checkpoint = user.WatcherCheckpoint
	}

	items, nextCheckpoint, err := w.syncer.Sync(ctx, phone, checkpoint)
	if err != nil {
		return err
	}

	for _, item := range items {
		w.processItem(ctx, phone, item)
	}

	if nextCheckpoint != "" && nextCheckpoint != checkpoint {
		if err := w.users.UpdateWatcherCheckpoint(ctx, phone, nextCheckpoint); err != nil {
			return err
		}
	}
	return nil
}

// processItem matches the item against email-routable skills, executes the
// winner, and sends one merged notification if the throttle allows.
func (w *Watcher) processItem(ctx context.Context, phone string, item Item) {
	match, ok := w.skills.MatchForMessage(item.MatchText(), bus.ChannelEmail)
	if !ok {
		return
	}

	ctx = tools.WithPhone(ctx, phone)
	ctx = tools.WithChannel(ctx, bus.ChannelEmail)

	var lines []string
	res, err := w.skills.ExecuteByName(ctx, match.Skill.Name, item.Subject+"\n\n"+item.Snippet)
	if err != nil {
		slog.Warn("watcher: skill execution failed", "skill", match.Skill.Name, "item", item.ID, "error", err)
	} else if res.Success && res.Output != "" {
		lines = append(lines, res.Output)
	}

	if len(lines) == 0 {
		return
	}
	if !w.allowSend(phone) {
		slog.Info("watcher: notification throttled", "phone", phone, "item", item.ID)
		return
	}

	if err := w.sender.Send(ctx, bus.OutboundMessage{
		Phone:   phone,
		Channel: bus.ChannelSMS,
		Body:    strings.Join(lines, "\n"),
	}); err != nil {
		slog.Error("watcher: send failed", "phone", phone, "error", err)
	}
}

// allowSend applies the fixed 1h throttle window. The window resets only
// when a send is attempted after it has elapsed.
func (w *Watcher) allowSend(phone string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock()
	st, ok := w.throttle[phone]
	if !ok || now.Sub(st.windowStart) >= throttleWindow {
		w.throttle[phone] = &throttleState{count: 1, windowStart: now}
		return true
	}
	if st.count >= w.maxPerHour {
		return false
	}
	st.count++
	return true
}
