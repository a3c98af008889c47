package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"venturi/adapters/csvsource"
	"venturi/adapters/excel"
	"venturi/adapters/memory"
	"venturi/adapters/postgres"
	appscorer "venturi/adapters/scorer"
	"venturi/app"
	"venturi/domain/decision"
	"venturi/internal"
	"venturi/internal/api"
	"venturi/internal/config"
	"venturi/internal/errors"
	"venturi/internal/testkit"
	"venturi/ports"
)

// initDatabase connects the deployment ledger store when configured
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Ledger.PostgresURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, errors.Wrap(err, "schema setup failed")
	}
	return db, nil
}

func main() {
	// Load .env file if it exists (development convenience)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := internal.NewDefaultLogger()

	var ledger ports.DeploymentLedger
	if cfg.Ledger.PostgresURL != "" {
		db, err := initDatabase(cfg)
		if err != nil {
			log.Fatalf("Database error: %v", err)
		}
		defer db.Close()
		ledger = postgres.NewDeploymentLedgerRepository(db)
		logger.Info("deployment ledger: postgres")
	} else {
		ledger = memory.NewDeploymentLedger()
		logger.Info("deployment ledger: in-memory")
	}

	// SAMPLE_CSV replays a recording; otherwise a deterministic
	// alpha-dominant demo stream runs. Real hosts supply their own
	// SampleSource.
	var source ports.SampleSource
	if path := os.Getenv("SAMPLE_CSV"); path != "" {
		csvSrc, err := csvsource.Open(path)
		if err != nil {
			log.Fatalf("Sample recording error: %v", err)
		}
		defer csvSrc.Close()
		source = csvSrc
		logger.Info("sample source: csv recording %s", path)
	} else {
		srcCfg := testkit.DefaultSyntheticConfig()
		srcCfg.Channels = cfg.Session.ChannelCount
		srcCfg.SampleRate = cfg.Session.SampleRate
		srcCfg.Duration = getDemoDuration()
		source = testkit.NewSyntheticSource(srcCfg)
		logger.Info("sample source: synthetic demo stream")
	}

	sink := memory.NewDecisionSink()
	scorer := appscorer.NewLinearScorer(cfg.Learning.TraitDim, decision.DefaultCutPoints())

	service, err := app.NewSessionService(cfg, source, sink, scorer, ledger, logger)
	if err != nil {
		log.Fatalf("Session setup error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Server.Enabled {
		server := api.NewServer(":"+cfg.Server.Port, service, logger)
		g.Go(func() error {
			return server.Run(gctx)
		})
	}

	g.Go(func() error {
		summary, err := service.Run(gctx)
		stop()

		if cfg.Report.XLSXPath != "" {
			records, lerr := ledger.ListBySession(context.Background(), summary.SessionID)
			if lerr != nil {
				logger.Error("ledger read for report failed: %v", lerr)
			}
			writer := excel.NewReportWriter(cfg.Report.XLSXPath)
			if werr := writer.Write(summary, records); werr != nil {
				logger.Error("report write failed: %v", werr)
			} else {
				logger.Info("session report written to %s", cfg.Report.XLSXPath)
			}
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Session error: %v", err)
	}
}

func getDemoDuration() time.Duration {
	if v := os.Getenv("DEMO_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return 60 * time.Second
}
