package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-intercom-bridge/auth"
	"github.com/jrsteele09/go-intercom-bridge/directory"
	"github.com/jrsteele09/go-intercom-bridge/doorlog"
	"github.com/jrsteele09/go-intercom-bridge/events"
	"github.com/jrsteele09/go-intercom-bridge/gateway"
	"github.com/jrsteele09/go-intercom-bridge/internal/config"
	"github.com/jrsteele09/go-intercom-bridge/internal/locations"
	"github.com/jrsteele09/go-intercom-bridge/server"
	"github.com/jrsteele09/go-intercom-bridge/sessions"
	"github.com/jrsteele09/go-intercom-bridge/store/sqlitestore"
	"github.com/jrsteele09/go-intercom-bridge/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running bridge")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Bridge stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	account, err := config.LoadAccount(c.GetAccountFile())
	if err != nil {
		return err
	}
	setupLogging(c, account)
	displayAppname(c.GetAppName())

	if err := os.MkdirAll(filepath.Dir(c.GetDatabasePath()), 0o755); err != nil {
		return fmt.Errorf("create data folder: %w", err)
	}
	db, err := sqlitestore.Open(c.GetDatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := loadSession(ctx, db, account)
	if err != nil {
		return err
	}

	client, err := gateway.New(session, gateway.WithTimeout(c.GetRequestTimeout()))
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.Repos{Store: db}, client, session, directory.New(),
		auth.WithTempKeyOptions(directory.TempKeyOptions{ExpiredPassthrough: account.TempKeyExpiredPassthrough}),
	)
	if err != nil {
		return err
	}

	bus := events.New()
	poller, err := doorlog.NewPoller(client, session, db, bus, doorlog.WithConfig(doorlog.Config{
		PollInterval:      c.GetPollInterval(),
		ImageWaitTimeout:  c.GetImageWaitTimeout(),
		ImageWaitInterval: c.GetImageWaitInterval(),
		BackfillDelay:     c.GetImageBackfillDelay(),
	}))
	if err != nil {
		return err
	}

	if err := authService.Startup(ctx); err != nil {
		// Degraded: the API stays up so the host can sign in again.
		log.Err(err).Msg("startup sign in failed")
	}

	revoked := token.NewInMemoryRevokedTokenCache()
	handler, err := server.New(c, server.Deps{
		Auth:    authService,
		Bus:     bus,
		Poller:  poller,
		Revoked: revoked,
	})
	if err != nil {
		return err
	}

	poller.Start(ctx)
	intervalDays := c.GetTokenRefreshIntervalDays()
	if account.TokenRefreshIntervalDays > 0 {
		intervalDays = account.TokenRefreshIntervalDays
	}
	go authService.RunRefreshLoop(ctx, c.GetRefreshCheckInterval(), intervalDays)
	go token.RunCleanup(ctx, revoked, time.Hour)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		returnError = err
	case <-waitForStopSignal():
	}

	poller.Stop()
	cancel()
	if err := shutdown(httpServer); err != nil && returnError == nil {
		returnError = err
	}
	return returnError
}

// loadSession seeds a session from the account file and overlays what the
// store already holds, which is newer for tokens and routing.
func loadSession(ctx context.Context, db *sqlitestore.Store, account config.Account) (*sessions.Session, error) {
	subdomain := account.Subdomain
	if subdomain == "" && account.CountryCode != "" {
		subdomain = locations.SubdomainFor(account.CountryCode)
	}

	session := sessions.New(sessions.Data{
		Subdomain:       subdomain,
		AuthToken:       account.AuthToken,
		Token:           account.Token,
		RefreshToken:    account.RefreshToken,
		PhoneNumber:     config.CleanPhoneNumber(account.PhoneNumber),
		CountryCode:     account.CountryCode,
		WaitForImageURL: account.WaitForImageURL(),
	})
	if err := session.Load(ctx, db); err != nil {
		return nil, err
	}

	// An explicit policy in the file beats the stored one.
	if account.EventScreenshotOptions != "" {
		session.SetWaitForImageURL(account.WaitForImageURL())
		if err := session.PersistPolicy(ctx, db); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func setupLogging(c config.Config, account config.Account) {
	zerolog.TimeFieldFormat = time.RFC3339
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	levelName := c.GetLogLevel()
	if account.LogLevel != "" {
		levelName = account.LogLevel
	}
	level, err := zerolog.ParseLevel(levelName)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", levelName).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
