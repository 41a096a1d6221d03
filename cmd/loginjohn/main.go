package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/loginjohn/internal/audit"
	"github.com/dropDatabas3/loginjohn/internal/cache"
	"github.com/dropDatabas3/loginjohn/internal/config"
	"github.com/dropDatabas3/loginjohn/internal/cookies"
	"github.com/dropDatabas3/loginjohn/internal/email"
	"github.com/dropDatabas3/loginjohn/internal/flow"
	httpserver "github.com/dropDatabas3/loginjohn/internal/http"
	"github.com/dropDatabas3/loginjohn/internal/idp"
	"github.com/dropDatabas3/loginjohn/internal/observability/logger"
	"github.com/dropDatabas3/loginjohn/internal/password"
	"github.com/dropDatabas3/loginjohn/internal/rate"
	"github.com/dropDatabas3/loginjohn/internal/security/secretbox"
)

var version = "dev"

func main() {
	// .env opcional para dev; en prod las vars vienen del entorno.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.example.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "loginjohn",
		Version:     version,
	})
	defer logger.Sync()
	zl := logger.L()

	ctx := context.Background()

	// Cache (jar de cookies + rate limiter)
	cacheClient, err := cache.New(cache.Config{
		Driver:     cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: config.ParseDurationOr(cfg.Cache.Memory.DefaultTTL, time.Hour),
	})
	if err != nil {
		zl.Fatal("cache init failed", logger.Err(err))
	}
	defer cacheClient.Close()
	jar := cookies.NewStore(cacheClient, cfg.SessionTTL())

	// Cliente del IdP. La service key puede venir cifrada con secretbox.
	serviceKey, err := secretbox.MaybeDecrypt(cfg.IdP.ServiceKey)
	if err != nil {
		zl.Fatal("service key decrypt failed", logger.Err(err))
	}
	idpClient, err := idp.NewClient(idp.ClientConfig{
		BaseURL:       cfg.IdP.BaseURL,
		Timeout:       cfg.IdPTimeout(),
		ServiceUserID: cfg.IdP.ServiceUserID,
		ServiceKeyID:  cfg.IdP.ServiceKeyID,
		ServiceKey:    []byte(serviceKey),
	})
	if err != nil {
		zl.Fatal("idp client init failed", logger.Err(err))
	}

	// Audit sink
	var sink audit.Sink
	switch cfg.Audit.Driver {
	case "postgres":
		pg, err := audit.NewPGSink(ctx, cfg.Audit.DSN)
		if err != nil {
			zl.Fatal("audit postgres init failed", logger.Err(err))
		}
		sink = pg
	default:
		sink = audit.NewLogSink()
	}
	defer sink.Close()

	// Email (opcional)
	var sender email.Sender
	if cfg.SMTP.Enabled {
		sender = &email.SMTPSender{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			From:               cfg.SMTP.From,
			User:               cfg.SMTP.Username,
			Pass:               cfg.SMTP.Password,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		}
	}

	// Rate limiter: redis cuando hay, memoria si no.
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		window := config.ParseDurationOr(cfg.Rate.Password.Window, time.Minute)
		if redisClient := cache.RedisFrom(cacheClient); redisClient != nil {
			limiter = rate.NewRedisLimiter(redisClient, "rl:pw:", cfg.Rate.Password.Limit, window)
		} else {
			limiter = rate.NewMemoryLimiter(cfg.Rate.Password.Limit, window)
		}
	}

	// Servicios
	passwordSvc := password.NewService(password.Deps{
		Sessions:      idpClient,
		Users:         idpClient,
		Settings:      idpClient,
		Jar:           jar,
		Audit:         sink,
		Email:         sender,
		DefaultWindow: cfg.PasswordCheckLifetime(),
	})
	flowSvc := flow.NewService(flow.Deps{
		Sessions: idpClient,
		OIDC:     idpClient,
		SAML:     idpClient,
		Jar:      jar,
		Audit:    sink,
	})

	handler, err := httpserver.NewRouter(httpserver.RouterDeps{
		Password:   passwordSvc,
		Flow:       flowSvc,
		Cache:      cacheClient,
		RateLimit:  limiter,
		CookieName: cfg.Session.CookieName,
		Version:    version,
	})
	if err != nil {
		zl.Fatal("router init failed", logger.Err(err))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  config.ParseDurationOr(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout: config.ParseDurationOr(cfg.Server.WriteTimeout, 30*time.Second),
	}

	go func() {
		zl.Info("loginjohn up",
			logger.String("addr", cfg.Server.Addr),
			logger.String("env", cfg.App.Env),
			logger.String("idp", redactURL(cfg.IdP.BaseURL)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server failed", logger.Err(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, config.ParseDurationOr(cfg.Server.ShutdownTimeout, 15*time.Second))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("shutdown failed", logger.Err(err))
	}
	zl.Info("loginjohn stopped")
}

// redactURL corta credenciales embebidas antes de loguear.
func redactURL(u string) string {
	if i := strings.Index(u, "@"); i >= 0 {
		if j := strings.Index(u, "://"); j >= 0 && j < i {
			return u[:j+3] + "***" + u[i:]
		}
	}
	return u
}
