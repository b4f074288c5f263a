package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/deduction"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	payRunFile := flag.String("payrun", "", "run the pay events in the given JSON file through the engine")
	remitMonth := flag.String("remit", "", "recompute the monthly remittance period for YYYY-MM")
	overdue := flag.Bool("overdue", false, "list overdue remittance periods")
	flag.Parse()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "payrollrun").Logger()

	if err := godotenv.Load("configs/.env"); err != nil {
		log.Debug().Msg("no configs/.env file found")
	}
	cfg := config.Load()

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	// Repositories
	rateRepo := repository.NewRateTableRepository(db)
	resultRepo := repository.NewPayRunResultRepository(db)
	remittanceRepo := repository.NewRemittanceRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	// Deduction engine: cache -> remote authority -> local fallback
	rateService := service.NewRateService(rateRepo, service.RateServiceConfig{
		DefaultJurisdiction:       cfg.Engine.DefaultJurisdiction,
		AllowJurisdictionFallback: cfg.Engine.AllowJurisdictionFallback,
	})
	auditSink := service.NewProviderAuditSink(auditRepo)

	var remote deduction.DeductionProvider
	if cfg.Authority.Enabled {
		remote = deduction.NewRemoteAuthority(deduction.RemoteAuthorityConfig{
			BaseURL: cfg.Authority.BaseURL,
			Token:   cfg.Authority.Token,
			Timeout: cfg.Authority.Timeout,
		}, auditSink, log)
	}
	fallback := deduction.NewAuditedProvider(
		deduction.NewLocalFallback(deduction.NewCalculator(), rateService),
		auditSink,
		model.OperationFallbackCalculate,
	)
	chain := deduction.NewChain(remote, fallback, deduction.ChainConfig{
		FallbackEnabled:  cfg.Engine.FallbackEnabled,
		CacheSize:        cfg.Engine.CacheSize,
		CacheTTL:         cfg.Engine.CacheTTL,
		BatchConcurrency: cfg.Engine.BatchConcurrency,
	}, log)
	payRunService := service.NewPayRunService(chain, resultRepo, txManager, log)

	remittanceService := service.NewRemittanceService(remittanceRepo, resultRepo, txManager, service.RemittanceConfig{
		DueOffsetDays: cfg.Engine.RemittanceDueOffsetDays,
	})

	ctx := context.Background()

	switch {
	case *payRunFile != "":
		raw, err := os.ReadFile(*payRunFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to read pay run file")
		}
		var events []deduction.PayEvent
		if err := json.Unmarshal(raw, &events); err != nil {
			log.Fatal().Err(err).Msg("failed to parse pay run file")
		}
		results, err := payRunService.RunPayRun(ctx, events)
		if err != nil {
			log.Fatal().Err(err).Msg("pay run failed")
		}
		log.Info().Int("employees", len(results)).Msg("pay run persisted")

	case *remitMonth != "":
		start, err := time.Parse("2006-01", *remitMonth)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -remit value, expected YYYY-MM")
		}
		end := start.AddDate(0, 1, -1)
		period, err := remittanceService.Calculate(ctx, start, end, model.PeriodTypeMonthly)
		if err != nil {
			log.Fatal().Err(err).Msg("remittance calculation failed")
		}
		log.Info().
			Str("period_start", period.PeriodStart.Format("2006-01-02")).
			Str("due_date", period.DueDate.Format("2006-01-02")).
			Str("total", period.TotalRemittance().StringFixed(2)).
			Int("employees", period.EmployeeCount).
			Str("status", period.Status).
			Msg("remittance period calculated")

	case *overdue:
		periods, err := remittanceService.ListOverdue(ctx, time.Now())
		if err != nil {
			log.Fatal().Err(err).Msg("overdue listing failed")
		}
		for _, p := range periods {
			log.Warn().
				Str("period_start", p.PeriodStart.Format("2006-01-02")).
				Str("due_date", p.DueDate.Format("2006-01-02")).
				Str("total", p.TotalRemittance().StringFixed(2)).
				Msg("remittance period overdue")
		}
		log.Info().Int("count", len(periods)).Msg("overdue scan complete")

	default:
		flag.Usage()
	}
}
