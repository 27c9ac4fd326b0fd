package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/jimiolaniyan/agencyauth/auth"
	"github.com/jimiolaniyan/agencyauth/config"
	"github.com/jimiolaniyan/agencyauth/web"
)

func main() {
	log := logrus.New()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	setupLogger(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	if err := client.Ping(connectCtx, nil); err != nil {
		log.WithError(err).Errorf("cannot reach MongoDB at %s", cfg.MongoURI)
		return err
	}

	accounts := auth.NewMongoRepository(client.Database(cfg.Database).Collection(cfg.Collection), cfg.RepoTimeout)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return err
	}

	tokens, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.SessionTTL,
		Issuer: "agencyauth",
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := auth.NewService(accounts, auth.NewBcryptHasher(cfg.BcryptCost), tokens,
		auth.WithLogger(log), auth.WithEvents(web.NewAuthEvents(registry)))

	cookies := auth.DefaultCookieConfig()
	cookies.Secure = cfg.CookieSecure
	cookies.MaxAge = tokens.TTL()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: web.NewRouter(web.Deps{
			Service:        svc,
			Tokens:         tokens,
			Cookies:        cookies,
			Health:         web.NewHealthChecker(accounts, cfg.RepoTimeout),
			Registry:       registry,
			Log:            log,
			FrontendOrigin: cfg.FrontendOrigin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Server started. Listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func setupLogger(log *logrus.Logger, cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
