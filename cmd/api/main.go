package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-login-go/internal/config"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/identify"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/login"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/oidc"
	oidcrepo "github.com/ovaphlow/pitchfork/service-login-go/internal/oidc/repo"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/otp"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/setting"
	settingrepo "github.com/ovaphlow/pitchfork/service-login-go/internal/setting/repo"
	"github.com/ovaphlow/pitchfork/service-login-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-login-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-login-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-login-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// init logger
	lg, err := utilities.Init(cfg.Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting service-login-go", "addr", cfg.HTTPAddr, "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init db
	db, err := database.Connect(ctx, cfg.Database())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	codes := otp.NewService(otpStore(ctx, cfg, sugar), otpSender(cfg, sugar), sugar, otp.Config{TTL: cfg.OTPLifetime()})

	users := user.NewUserService(userrepo.NewUserRepo(db), user.BcryptHasher{})
	settings := setting.NewService(settingrepo.NewRepo(db))
	tokens, err := oidc.NewOIDCService(oidcrepo.NewRefreshRepo(db), cfg.OIDCIssuer)
	if err != nil {
		sugar.Fatalf("oidc init: %v", err)
	}

	realm := cfg.RealmDisplayName
	country := settings.DefaultCountry(ctx, cfg.DefaultCountry)
	sessions := session.NewStore(cfg.SessionIdleTTL(), func() *identify.Intent {
		return identify.New(identify.Options{Dispatcher: codes, Country: country})
	}, sugar)
	sessions.Secure = cfg.Env == "production"
	sessions.Start(time.Minute)
	defer sessions.Close()

	loginHandler := login.NewHandler(login.Options{
		Sessions: sessions,
		Users:    users,
		Codes:    codes,
		Tokens:   tokens,
		Theme:    themeWithFallback{settings: settings, realm: realm},
		Logger:   sugar,
		Config: login.Config{
			ActionURL:  cfg.LoginActionURL,
			SuccessURL: cfg.LoginSuccessURL,
			Secure:     sessions.Secure,
		},
	})

	limiter := router.NewRateLimiter(cfg.OTPRatePerMinute, 0, 5*time.Minute,
		"/login/intent/otp/send",
		"/login/intent/otp/resend",
		cfg.LoginActionURL,
		router.APIPrefix+"/users/login",
		router.APIPrefix+"/oidc/token",
	)
	if err := limiter.TrustProxies(cfg.TrustedProxyList()...); err != nil {
		sugar.Fatalf("trusted proxies: %v", err)
	}
	limiterStop := make(chan struct{})
	go limiter.Run(time.Hour, limiterStop)
	defer close(limiterStop)

	// mount http server
	handler := router.RegisterRoutes(sugar, router.Deps{
		Login:    loginHandler,
		Users:    user.NewHandler(users, sugar),
		OIDC:     oidc.NewHandler(tokens, users, sugar),
		Settings: setting.NewHandler(settings, sugar),
		Limiter:  limiter,
		Node:     cfg.SnowflakeNode,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

// otpStore prefers Redis so codes are shared between instances.
func otpStore(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) otp.Store {
	rc, ok := cfg.Redis()
	if !ok {
		sugar.Warn("REDIS_ADDR not set; otp codes are kept in memory")
		return otp.NewMemoryStore()
	}
	client, err := database.ConnectRedis(ctx, rc)
	if err != nil {
		sugar.Fatalf("redis connect: %v", err)
	}
	return otp.NewRedisStore(client)
}

func otpSender(cfg *config.Config, sugar *zap.SugaredLogger) otp.Sender {
	if cfg.OTPDevLog {
		sugar.Warn("OTP_DEV_LOG is on; codes are logged, not sent")
		return otp.LogSender{Logger: sugar}
	}
	return otp.NewSMSClient(cfg.SMSAPIKey, cfg.SMSBaseURL, cfg.SMSSender)
}

// themeWithFallback lets REALM_DISPLAY_NAME stand in when the settings table
// has no realm name.
type themeWithFallback struct {
	settings *setting.Service
	realm    string
}

func (t themeWithFallback) RealmDisplayName(ctx context.Context, fallback string) string {
	if t.realm != "" {
		fallback = t.realm
	}
	return t.settings.RealmDisplayName(ctx, fallback)
}
