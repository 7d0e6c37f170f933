package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/synco-server/attendance"
	attendancerepomongo "github.com/jrsteele09/synco-server/attendance/repomongo"
	"github.com/jrsteele09/synco-server/auth"
	"github.com/jrsteele09/synco-server/auth/google"
	"github.com/jrsteele09/synco-server/internal/config"
	"github.com/jrsteele09/synco-server/internal/mongodb"
	"github.com/jrsteele09/synco-server/permissions"
	"github.com/jrsteele09/synco-server/server"
	"github.com/jrsteele09/synco-server/sessions"
	sessionrepomongo "github.com/jrsteele09/synco-server/sessions/repomongo"
	sessionreporedis "github.com/jrsteele09/synco-server/sessions/reporedis"
	"github.com/jrsteele09/synco-server/token"
	"github.com/jrsteele09/synco-server/token/refresh"
	refreshrepomongo "github.com/jrsteele09/synco-server/token/refresh/repomongo"
	"github.com/jrsteele09/synco-server/users"
	userrepomongo "github.com/jrsteele09/synco-server/users/repomongo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const redisKeyPrefix = "synco:"

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// app owns the long lived connections and the services built on them.
type app struct {
	handler       http.Handler
	sessions      *sessions.Manager
	refreshTokens *refresh.Manager
	closers       []func(context.Context) error
}

func newApp(ctx context.Context, c config.Config) (*app, error) {
	a := &app{}

	client, err := mongodb.Connect(ctx, c.GetMongo())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Disconnect)
	db := client.Database(c.GetMongo().Name)

	userRepo := userrepomongo.New(db)
	refreshRepo := refreshrepomongo.New(db)
	attendanceRepo := attendancerepomongo.New(db)
	indexers := []indexer{userRepo, refreshRepo, attendanceRepo}

	sessionRepo, err := a.sessionRepo(ctx, c, db)
	if err != nil {
		a.close()
		return nil, err
	}
	if idx, ok := sessionRepo.(indexer); ok {
		indexers = append(indexers, idx)
	}
	for _, idx := range indexers {
		if err := idx.EnsureIndexes(ctx); err != nil {
			a.close()
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	codec := token.NewCodec(token.NewHMACSigner(c.GetJWTSecret()),
		token.WithTokenExpiry(c.GetDefaultAccessTokenExpiry(), c.GetDefaultRefreshTokenExpiry()))
	userService := users.NewService(userRepo)
	a.sessions = sessions.NewManager(sessionRepo, userService, sessions.WithMaxAge(c.GetMaxSessionAge()))
	a.refreshTokens = refresh.NewManager(refreshRepo, codec.RefreshTokenTTL())

	authService, err := auth.NewService(auth.Deps{
		Provider: google.New(google.Config{
			ClientID:     c.GetGoogleClientID(),
			ClientSecret: c.GetGoogleClientSecret(),
			RedirectURL:  c.GetGoogleRedirectURI(),
		}),
		Users:         userService,
		Sessions:      a.sessions,
		RefreshTokens: a.refreshTokens,
		Codec:         codec,
	}, auth.WithMetrics(auth.NewMetrics(registry)))
	if err != nil {
		a.close()
		return nil, err
	}

	srv, err := server.New(server.Deps{
		Config:      c,
		Auth:        authService,
		Codec:       codec,
		Users:       userService,
		Permissions: permissions.NewChecker(userService),
		Attendance:  attendance.NewService(attendanceRepo),
		Cookie: sessions.CookieConfig{
			Domain:        c.GetCookieDomain(),
			Production:    c.IsProduction(),
			MaxAge:        a.sessions.MaxAge(),
			LegacyDomains: c.GetLegacyCookieDomains(),
		},
		Healthcheck: mongodb.Healthcheck(client),
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.handler = srv
	return a, nil
}

func (a *app) sessionRepo(ctx context.Context, c config.Config, db *mongo.Database) (sessions.Repo, error) {
	switch backend := c.GetSessionBackend(); backend {
	case config.SessionBackendMongo:
		return sessionrepomongo.New(db), nil
	case config.SessionBackendRedis:
		client, err := sessionreporedis.Connect(ctx, c.GetRedisURL())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		log.Info().Msg("sessions stored in redis")
		return sessionreporedis.New(client, redisKeyPrefix), nil
	default:
		return nil, fmt.Errorf("[app.sessionRepo] unknown session backend %q", backend)
	}
}

// cleanupLoop purges expired sessions and refresh tokens until ctx is done.
func (a *app) cleanupLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.cleanup(ctx)
		}
	}
}

func (a *app) cleanup(ctx context.Context) {
	sessionCount, err := a.sessions.CleanupExpired(ctx)
	if err != nil {
		log.Err(err).Msg("session cleanup failed")
	}
	tokenCount, err := a.refreshTokens.CleanupExpired(ctx)
	if err != nil {
		log.Err(err).Msg("refresh token cleanup failed")
	}
	log.Debug().Int64("sessions", sessionCount).Int64("refresh_tokens", tokenCount).Msg("expired records removed")
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Err(err).Msg("close failed")
		}
	}
}
