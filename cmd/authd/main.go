package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tutorbase/authkit/modules/verification"
	"github.com/tutorbase/authkit/pkg/auth"
	"github.com/tutorbase/authkit/pkg/config"
	"github.com/tutorbase/authkit/pkg/cookie"
	"github.com/tutorbase/authkit/pkg/email"
	"github.com/tutorbase/authkit/pkg/gate"
	"github.com/tutorbase/authkit/pkg/httpserver"
	"github.com/tutorbase/authkit/pkg/logger"
	"github.com/tutorbase/authkit/pkg/otp"
	"github.com/tutorbase/authkit/pkg/pg"
	"github.com/tutorbase/authkit/pkg/ratelimit"
	"github.com/tutorbase/authkit/pkg/redis"
	"github.com/tutorbase/authkit/pkg/session"
	"github.com/tutorbase/authkit/pkg/sms"
)

type appConfig struct {
	// CookieSecrets is a comma-separated list; first entry signs, the rest
	// still verify so secrets can rotate without dropping sessions.
	CookieSecrets []string `env:"COOKIE_SECRETS,required" envSeparator:","`

	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"15m"`

	// EmailDev switches outbound mail to the on-disk dev sender.
	EmailDev bool `env:"EMAIL_DEV_MODE" envDefault:"false"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "authd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	log := logger.New(config.MustLoad[logger.Config](), "authd")
	slog.SetDefault(log)

	appCfg, err := config.Load[appConfig]()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, config.MustLoad[pg.Config]())
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, config.MustLoad[pg.Config](), log); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	cache, err := redis.Connect(ctx, config.MustLoad[redis.Config]())
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}()

	cookies, err := cookie.New(appCfg.CookieSecrets)
	if err != nil {
		return fmt.Errorf("cookies: %w", err)
	}

	accounts := auth.NewService(auth.NewPGStorage(pool), config.MustLoad[auth.Config](), auth.WithLogger(log))

	codes, err := otp.NewService(otp.NewPGStore(pool), config.MustLoad[otp.Config](),
		otp.WithLogger(log),
		otp.WithAttemptRecorder(func(ctx context.Context, attempt otp.Attempt) {
			log.InfoContext(ctx, "verification attempt",
				slog.String("token_id", attempt.TokenID.String()),
				slog.String("kind", string(attempt.Kind)),
				slog.Bool("success", attempt.Success),
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("otp service: %w", err)
	}

	sessions := session.New(
		session.WithCookieManager(cookies),
		session.WithConfig(config.MustLoad[session.Config]()),
	)

	verifCfg := config.MustLoad[verification.Config]()

	limitStore := ratelimit.NewRedisStore(cache)
	requestLimiter, err := ratelimit.New(limitStore, verifCfg.RequestPolicy())
	if err != nil {
		return fmt.Errorf("request limiter: %w", err)
	}
	signinLimiter, err := ratelimit.New(limitStore, verifCfg.SigninPolicy())
	if err != nil {
		return fmt.Errorf("signin limiter: %w", err)
	}

	var mailer email.Sender
	emailCfg := config.MustLoad[email.Config]()
	if appCfg.EmailDev {
		mailer = email.NewDevSender(emailCfg.DevDir, log)
	} else {
		mailer, err = email.NewPostmarkSender(emailCfg)
		if err != nil {
			return fmt.Errorf("postmark: %w", err)
		}
	}

	svc := verification.NewService(
		verifCfg,
		accounts, codes, sessions, mailer, sms.NewDevSender(log),
		verification.WithRateLimiters(requestLimiter, signinLimiter),
		verification.WithLogger(log),
	)

	enforcement := gate.New(svc.GateResolver(), gate.DefaultConfig())

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(enforcement.Middleware)

	r.Mount("/auth", svc.Router())
	r.Get("/verification-required", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"contact verification required","verify_at":"/auth/otp/request"}`))
	})
	r.Get("/healthz", healthHandler(pg.Healthcheck(pool), redis.Healthcheck(cache)))

	go cleanupLoop(ctx, log, appCfg.CleanupInterval, codes)

	srv := httpserver.New(config.MustLoad[httpserver.Config](), httpserver.WithLogger(log))
	return srv.Run(ctx, r)
}

// cleanupLoop sweeps expired verification tokens on a ticker. Sessions clean
// themselves up through the store janitor; no cross-instance coordination is
// needed since deletes are idempotent.
func cleanupLoop(ctx context.Context, log *slog.Logger, interval time.Duration, codes *otp.Service) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := codes.Cleanup(ctx)
			if err != nil {
				log.Error("token cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				log.Info("token cleanup finished", slog.Int64("deleted", deleted))
			}
		}
	}
}

func healthHandler(checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var failures []string
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				failures = append(failures, err.Error())
			}
		}
		if len(failures) > 0 {
			http.Error(w, strings.Join(failures, "; "), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
