package cmd

import (
	"errors"
	"fmt"

	"github.com/eduverse/eduverse/internal/api"
	"github.com/eduverse/eduverse/internal/cache"
	"github.com/eduverse/eduverse/internal/config"
	"github.com/eduverse/eduverse/internal/logging"
	"go.uber.org/zap"
)

// session bundles what every command needs: config, logger, local cache
// and API client.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *cache.Cache
	client *api.Client
}

func openSession() (*session, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger, err := logging.New(config.LogPath(), level)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	db, err := cache.Open(config.CachePath())
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	client, err := api.New(api.Options{
		BaseURL:   cfg.APIURL,
		APIKey:    cfg.APIKey,
		Timeout:   cfg.RequestTimeoutDuration(),
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		Logger:    logger,
	})
	if err != nil {
		db.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("creating api client: %w", err)
	}

	logger.Debug("session opened", zap.String("api_url", cfg.APIURL))
	return &session{cfg: cfg, logger: logger, db: db, client: client}, nil
}

func (s *session) Close() error {
	err := s.db.Close()
	// Sync fails on some terminals' stderr; only the cache error matters.
	_ = s.logger.Sync()
	return err
}

// describe turns an API error into a one-line message for the terminal.
func describe(err error) error {
	var (
		se *api.ServerError
		ne *api.NetworkError
	)
	switch {
	case api.IsValidation(err), errors.As(err, &se), errors.As(err, &ne):
		return errors.New(api.UserMessage(err))
	}
	return err
}
