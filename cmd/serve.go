package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hermes-assist/hermes/internal/agent"
	"github.com/hermes-assist/hermes/internal/bus"
	"github.com/hermes-assist/hermes/internal/config"
	"github.com/hermes-assist/hermes/internal/convo"
	"github.com/hermes-assist/hermes/internal/gateway"
	"github.com/hermes-assist/hermes/internal/orchestrator"
	"github.com/hermes-assist/hermes/internal/providers"
	"github.com/hermes-assist/hermes/internal/scheduler"
	"github.com/hermes-assist/hermes/internal/skills"
	"github.com/hermes-assist/hermes/internal/store"
	"github.com/hermes-assist/hermes/internal/store/pg"
	"github.com/hermes-assist/hermes/internal/store/sqlite"
	"github.com/hermes-assist/hermes/internal/telemetry"
	"github.com/hermes-assist/hermes/internal/tools"
	"github.com/hermes-assist/hermes/internal/watcher"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant: orchestrator, scheduler, and watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		Protocol:    cfg.Telemetry.Protocol,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer shutdownTracing(context.Background())

	stores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	app, err := buildApp(cfg, stores)
	if err != nil {
		return err
	}

	app.scheduler.Start()
	if cfg.Watcher.Enabled {
		app.watcher.Start()
	}
	if cfg.Skills.Watch {
		go func() {
			if err := app.skills.Watch(ctx); err != nil && ctx.Err() == nil {
				slog.Error("skill watch stopped", "error", err)
			}
		}()
	}

	slog.Info("hermes running",
		"mode", cfg.Database.Mode,
		"skills", len(app.skills.List()),
		"watcher", cfg.Watcher.Enabled,
	)

	go replLoop(ctx, app.assistant)

	<-ctx.Done()
	slog.Info("shutting down")
	<-app.scheduler.Stop()
	<-app.watcher.Stop()
	return nil
}

// app holds the wired runtime components.
type app struct {
	assistant *gateway.Assistant
	skills    *skills.Registry
	scheduler *scheduler.Runner
	watcher   *watcher.Watcher
}

func openStores(cfg *config.Config) (*store.Stores, error) {
	switch cfg.Database.Mode {
	case "postgres":
		return pg.NewStores(cfg.Database.PostgresDSN)
	default:
		return sqlite.NewStores(config.ExpandHome(cfg.Database.SQLitePath))
	}
}

func buildApp(cfg *config.Config, stores *store.Stores) (*app, error) {
	provider := providers.NewAnthropicProvider(cfg.Provider.APIKey,
		providers.WithAnthropicModel(cfg.Provider.Model),
		providers.WithAnthropicBaseURL(cfg.Provider.BaseURL),
	)

	toolReg := tools.NewRegistry()
	toolReg.Register(tools.NewCurrentTimeTool())
	toolReg.Register(tools.NewResolveDateTool())
	toolReg.Register(tools.NewSaveMemoryTool(stores.Memory))
	toolReg.Register(tools.NewSearchMemoryTool(stores.Memory))
	toolReg.Register(tools.NewDeleteMemoryTool(stores.Memory))
	toolReg.Register(tools.NewCreateReminderTool(stores.Jobs))
	toolReg.Register(tools.NewListRemindersTool(stores.Jobs))
	toolReg.Register(tools.NewCancelReminderTool(stores.Jobs))
	toolReg.Register(tools.NewConversationHistoryTool(stores.Conversations))

	surface := agent.NewSurface(agent.SurfaceConfig{
		Provider:          provider,
		Model:             cfg.Provider.Model,
		Tools:             toolReg,
		MaxToolIterations: cfg.Provider.MaxToolIterations,
		MaxTokens:         cfg.Provider.MaxTokens,
		Temperature:       cfg.Provider.Temperature,
	})

	agents := agent.NewRegistry()
	agent.RegisterBuiltinAgents(agents, surface)

	skillReg := skills.NewRegistry(skills.Config{
		BundledDir:          config.ExpandHome(cfg.Skills.BundledDir),
		ImportedDir:         config.ExpandHome(cfg.Skills.ImportedDir),
		ConfidenceThreshold: cfg.Skills.ConfidenceThreshold,
	})
	for _, le := range skillReg.LoadErrors() {
		slog.Warn("skill failed to load", "dir", le.Dir, "error", le.Err)
	}
	// Skills run on the shared surface; injected after both exist.
	skillReg.SetExecuteFunc(func(ctx context.Context, req skills.ExecuteRequest) *skills.ExecuteResult {
		result := surface.Execute(ctx, agent.ExecuteRequest{
			SystemPrompt: req.SystemPrompt,
			Task:         req.Task,
			AllowedTools: req.AllowedTools,
		}, &agent.ExecContext{
			Phone:   tools.PhoneFromCtx(ctx),
			Channel: tools.ChannelFromCtx(ctx),
		})
		out := &skills.ExecuteResult{Success: result.Success, Err: result.Error}
		if text, ok := result.Output.(string); ok {
			out.Output = text
		}
		return out
	})

	orch := orchestrator.New(provider, agents, skillReg)

	assistant := gateway.NewAssistant(gateway.Config{
		Orchestrator: orch,
		Stores:       stores,
		Window: convo.WindowConfig{
			MaxAgeHours: cfg.Orchestrator.WindowMaxAgeHours,
			MaxMessages: cfg.Orchestrator.WindowMaxMessages,
			MaxTokens:   cfg.Orchestrator.WindowMaxTokens,
		},
	})

	sender := bus.NewRateLimitedSender(bus.LogSender{}, cfg.Sender.RatePerMinute, cfg.Sender.Burst)

	sched := scheduler.NewRunner(scheduler.Config{
		Jobs:          stores.Jobs,
		Users:         stores.Users,
		Surface:       surface,
		Sender:        sender,
		ReadOnlyTools: cfg.Scheduler.ReadOnlyTools,
		Interval:      time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second,
	})

	watch := watcher.New(watcher.Config{
		Users:                   stores.Users,
		Credentials:             stores.Credentials,
		Skills:                  skillReg,
		Syncer:                  watcher.NoopSyncer{},
		Sender:                  sender,
		Interval:                time.Duration(cfg.Watcher.IntervalSeconds) * time.Second,
		MaxNotificationsPerHour: cfg.Watcher.MaxNotificationsPerHour,
	})

	return &app{
		assistant: assistant,
		skills:    skillReg,
		scheduler: sched,
		watcher:   watch,
	}, nil
}

// replLoop reads messages from stdin for local testing: "<phone> <text>".
func replLoop(ctx context.Context, assistant *gateway.Assistant) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		phone, text := "+10000000000", line
		if parts := strings.SplitN(line, " ", 2); len(parts) == 2 && strings.HasPrefix(parts[0], "+") {
			phone, text = parts[0], parts[1]
		}
		reply := assistant.HandleRequest(ctx, bus.InboundMessage{
			Phone:   phone,
			Channel: bus.ChannelSMS,
			Content: text,
		})
		fmt.Println(reply)
	}
}
