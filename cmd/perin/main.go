package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/perinhq/perin/internal/calendar"
	"github.com/perinhq/perin/internal/delegate"
	"github.com/perinhq/perin/internal/delegation"
	"github.com/perinhq/perin/internal/gateway"
	"github.com/perinhq/perin/internal/governance"
	"github.com/perinhq/perin/internal/intake"
	"github.com/perinhq/perin/internal/observability"
	"github.com/perinhq/perin/internal/resilience"
	"github.com/perinhq/perin/internal/steps"
	"github.com/perinhq/perin/internal/store"
	"github.com/perinhq/perin/internal/timeparse"
	"github.com/perinhq/perin/pkg/config"
)

func main() {
	observability.PrintBanner()
	observability.InitializeTerminal()

	// Route all log output through the terminal mutex so it never
	// interrupts the dashboard's cursor save/restore sequence.
	log.SetOutput(observability.NewTermWriter())

	cfg := config.LoadConfig("config.json")

	history, err := store.NewHistoryStore(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}

	gov := governance.NewDefaultPolicyEngine()
	// Delegation never deletes or rewrites the owner's calendar.
	_ = gov.DenyDescription(`(?i)delete`)
	_ = gov.DenyDescription(`(?i)cancel all`)

	logger := observability.NewLogger()

	// Initialize LLM (using default enabled provider)
	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Fatal("No enabled provider found in config")
	}

	var llm llms.Model
	switch pName {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		log.Fatalf("Provider %s not yet implemented in main", pName)
	}
	if err != nil {
		log.Fatal(err)
	}

	// Resilience layer shared by every calendar-facing executor.
	breakers := resilience.NewBreakerStore(
		cfg.Scheduling.CircuitFailureThreshold,
		cfg.Scheduling.CircuitCooldown())
	retry := resilience.RetryConfig{
		MaxRetries:     cfg.Scheduling.MaxRetries,
		BaseDelay:      cfg.Scheduling.BaseDelay(),
		MaxDelay:       cfg.Scheduling.MaxDelay(),
		RateLimitDelay: cfg.Scheduling.RateLimitDelay(),
		CircuitBreaker: true,
	}

	cal := calendar.NewBridgeClient(cfg.Calendar.BaseURL, cfg.Calendar.Token)

	registry := steps.NewRegistry()
	registry.Register(&steps.AvailabilityExecutor{Calendar: cal, Breakers: breakers, Retry: retry})
	registry.Register(steps.NewScheduleExecutor(cal, breakers, retry))

	orch := delegation.NewOrchestrator(registry, &steps.GenericExecutor{}, logger)

	parser := timeparse.NewParser(llm)
	analyzer := intake.NewAnalyzer(llm,
		cfg.Scheduling.IntentConfidenceCutoff,
		time.Duration(cfg.Scheduling.DefaultDurationMinutes)*time.Minute)

	brain := delegate.NewDelegate(llm, analyzer, parser, orch, history, gov, logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gateways []gateway.Messenger
	if tgCfg, ok := cfg.GetGateway("telegram"); ok {
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, brain)
		if err != nil {
			log.Fatal(err)
		}
		gateways = append(gateways, tg)
	}
	if dcCfg, ok := cfg.GetGateway("discord"); ok {
		dc, err := gateway.NewDiscordGateway(dcCfg.Token, brain)
		if err != nil {
			log.Fatal(err)
		}
		gateways = append(gateways, dc)
	}
	if len(gateways) == 0 {
		log.Fatal("No gateway is enabled in config")
	}

	// Reminders go out on the first configured gateway.
	reminder := delegate.NewReminder(history, gateways[0])
	go reminder.Start(ctx)

	// Live status dashboard (1-second updates)
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.PrintLiveStatus()
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()

	for _, g := range gateways {
		g := g
		go func() {
			if err := g.Start(); err != nil {
				log.Printf("\033[91m[ FAIL ] GATEWAY CRITICAL ERROR: %v\033[0m", err)
				stop()
			}
		}()
	}

	// Wait for shutdown signal
	<-ctx.Done()

	for _, g := range gateways {
		_ = g.Stop()
	}

	observability.CleanupTerminal()

	// Give a short time for final logs/syncs
	time.Sleep(500 * time.Millisecond)
	log.Println("\033[95m[ EXIT ] DELEGATION CORE DE-INITIALIZED. GOODBYE.\033[0m")
}
