package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vision-api/internal/config"
	"vision-api/internal/jwtsigner"
	"vision-api/internal/mail"
	"vision-api/internal/observability/logging"
	"vision-api/internal/observability/metrics"
	"vision-api/internal/service"
	impl "vision-api/internal/service/impl"
	"vision-api/internal/store"
	httpx "vision-api/internal/transport/http"
	"vision-api/pkg/db"
)

const serviceName = "vision-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: serviceName,
		Environment: cfg.Env,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister(serviceName)

	// 1) DB
	gdb, err := db.Connect(ctx, db.Config{
		DSN:             cfg.DatabaseURL,
		LogSQL:          cfg.LogSQL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
		ConnectRetries:  cfg.DBConnectRetries,
	})
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}

	st := store.New(gdb)
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	// 2) Services
	var mailer service.Mailer = mail.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		slog.Warn("SMTP_HOST not set, outgoing mail is only logged")
	}

	pw := impl.NewPasswordServiceArgon2id(impl.DefaultArgon2Params())
	key, err := signingKey(cfg)
	if err != nil {
		return err
	}
	ts := impl.NewTokenService(impl.TokenConfig{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		TTL:      cfg.TokenTTL,
	}, key)

	// 3) HTTP router
	handler := httpx.NewRouter(httpx.Deps{
		Auth: impl.NewAuthServiceImpl(st, pw, ts, mailer, impl.AuthConfig{
			Rules:     cfg.Rules,
			ResetTTL:  cfg.ResetTokenTTL,
			ClientURL: cfg.ClientURL,
		}),
		Accounts:    impl.NewAccountServiceImpl(st, pw, cfg.Rules),
		Admin:       impl.NewAdminServiceImpl(st),
		Contact:     impl.NewContactServiceImpl(st, mailer, cfg.CommercialEmail),
		Newsletters: impl.NewNewsletterServiceImpl(st, mailer, cfg.MailConcurrency, cfg.MailSendTimeout),
		Health:      st.Ping,
		PublicKeys:  key.PublicJWKs(),
	}, httpx.Options{
		CORSOrigins:    cfg.CORSOrigins,
		AuthRateLimit:  cfg.AuthRateLimit,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("vision api listening", "addr", srv.Addr, "issuer", cfg.Issuer)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func signingKey(cfg config.Config) (*jwtsigner.Key, error) {
	if cfg.TokenAlg != "EdDSA" {
		return jwtsigner.HS256([]byte(cfg.SigningKey)), nil
	}
	if cfg.EdDSAKey == "" {
		slog.Warn("JWT_ED25519_PRIVATE_KEY not set, using an ephemeral key")
	}
	return jwtsigner.Ed25519FromBase64(cfg.EdDSAKey, cfg.KeyID)
}
