package main

import (
	"log"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"vitals/adapters/memory"
	"vitals/adapters/notify"
	adapterpg "vitals/adapters/postgres"
	"vitals/adapters/webhook"
	"vitals/app"
	"vitals/internal/alerting"
	"vitals/internal/api"
	"vitals/internal/budget"
	"vitals/internal/collector"
	"vitals/internal/config"
	"vitals/internal/errors"
	"vitals/internal/regression"
	"vitals/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Main] no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] configuration error: %v", err)
	}

	clock := ports.SystemClock()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	telemetry := memory.NewRecordingSink()

	// Persistence: Postgres when configured, in-memory otherwise.
	var store ports.AssignmentStore = memory.NewKVStore()
	var history ports.AlertHistory
	if cfg.Database.URL != "" {
		db, err := connectDatabase(cfg.Database.URL)
		if err != nil {
			log.Fatalf("[Main] %v", err)
		}
		store = adapterpg.NewAssignmentStore(db)
		history = adapterpg.NewAlertHistory(db)
		log.Printf("[Main] using Postgres persistence")
	} else {
		log.Printf("[Main] DATABASE_URL not set, using in-memory persistence")
	}

	registry := app.NewRegistry(app.DefaultRegistryConfig(), clock)
	aggregator := app.NewAggregator(registry, telemetry, app.DefaultAggregatorConfig())
	assigner := app.NewAssigner(registry, store, telemetry, rng, clock, app.AssignerConfig{
		RotationPeriod: time.Duration(cfg.Assignment.RotationDays) * 24 * time.Hour,
	})

	channels := []ports.AlertChannel{
		notify.NewConsoleChannel(),
		notify.NewTelemetryChannel(telemetry),
		notify.NewEmailChannel(cfg.Alerting.EmailRecipient),
	}
	if cfg.Alerting.WebhookURL != "" {
		channels = append(channels, webhook.New(webhook.Config{
			URL:         cfg.Alerting.WebhookURL,
			Timeout:     cfg.Alerting.WebhookTimeout,
			MaxRetries:  cfg.Alerting.WebhookMaxRetries,
			MaxInFlight: 8,
		}))
	}
	alerts := alerting.NewManager(alerting.Config{
		RegressionDedupWindow: time.Duration(cfg.Alerting.DedupWindowMinutes) * time.Minute,
	}, clock, channels, history)

	monitor := app.NewMonitor(
		collector.New(rng, clock, telemetry),
		budget.NewEvaluator(nil),
		regression.New(regression.Config{
			WindowAge:          cfg.Monitor.WindowMinutes,
			MinSamples:         cfg.Monitor.MinSamples,
			SensitivityPercent: cfg.Monitor.SensitivityPercent,
		}, clock),
		alerts,
		telemetry,
	)

	server := api.NewServer(registry, assigner, aggregator, monitor, cfg.Monitor.SampleRate)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("[Main] server exited: %v", err)
	}
}

func connectDatabase(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}
	return db, nil
}
