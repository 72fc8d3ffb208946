package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/les-detritivores/clic-compost/internal/config"
	"github.com/les-detritivores/clic-compost/internal/crm/pipedrive"
	httpGateway "github.com/les-detritivores/clic-compost/internal/gateways/http"
	"github.com/les-detritivores/clic-compost/internal/notify"
	stripeClient "github.com/les-detritivores/clic-compost/internal/payment/stripe"
	subsRepository "github.com/les-detritivores/clic-compost/internal/repository/subscription/postgres"
	"github.com/les-detritivores/clic-compost/internal/usecase"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.LoadConfig()
	pgCfg := cfg.Pg
	log := setupLogger(cfg.Env)

	log.Info("starting clic-compost signup service", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	databaseUrl := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		pgCfg.User,
		pgCfg.Password,
		pgCfg.Host,
		pgCfg.Port,
		pgCfg.Db)

	pool, err := pgxpool.New(ctx, databaseUrl)
	if err != nil {
		log.Error("failed to init storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	log.Debug("init database")

	sr := subsRepository.NewSubRepository(pool)
	subs := usecase.NewSubscription(sr)

	payments := stripeClient.NewClient(cfg.Stripe.SecretKey)

	mailer, err := notify.NewMailer(notify.MailConfig{
		ServerToken:  cfg.Postmark.ServerToken,
		AccountToken: cfg.Postmark.AccountToken,
		Sender:       cfg.Postmark.Sender,
		Bcc:          cfg.Postmark.Bcc,
	})
	if err != nil {
		log.Error("failed to init mailer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dispatcher := &notify.Dispatcher{Mailer: mailer}
	if cfg.Signup.SMSEnabled {
		sms, err := notify.NewSMSSender(notify.SMSConfig{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			From:       cfg.Twilio.From,
		})
		if err != nil {
			log.Error("failed to init sms sender", slog.String("error", err.Error()))
			os.Exit(1)
		}
		dispatcher.SMS = sms
	}

	var crm usecase.CRMSync
	if cfg.Pipedrive.APIToken != "" {
		crm = pipedrive.NewClient(log, cfg.Pipedrive.BaseURL, cfg.Pipedrive.APIToken, cfg.Pipedrive.PipelineID, cfg.Pipedrive.StageID)
	} else {
		log.Warn("pipedrive token not set, crm sync disabled")
	}

	intake := usecase.NewIntake(subs, payments, dispatcher, crm, log, cfg.Signup.SMSEnabled)

	useCases := httpGateway.UseCases{
		Sub:      subs,
		Intake:   intake,
		Payments: payments,
		Notify:   dispatcher,
	}

	server := httpGateway.New(useCases,
		*cfg,
		log,
		httpGateway.WithHost(cfg.Server.Host),
		httpGateway.WithPort(uint16(cfg.Server.Port)),
		httpGateway.WithLogger(log),
		httpGateway.WithTimeout(cfg.Server.Timeout),
	)

	log.Info("starting server", slog.String("address", cfg.Server.Host+":"+strconv.Itoa(cfg.Server.Port)))
	if err := server.Run(ctx); err != nil {
		log.Error(err.Error())
		return
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch strings.ToLower(env) {
	case envLocal:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return log
}
