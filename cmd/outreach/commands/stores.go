package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/outreach-bot/internal/config"
	"github.com/maltedev/outreach-bot/internal/progress"
)

const (
	modePaged  = "paged"
	modeCities = "cities"
	modeAll    = "all"
)

// openStores builds one cursor store per mode on the configured backend. The
// returned close func releases the backend connection.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (map[string]progress.Store, func(), error) {
	start := cfg.Resume.StartPage

	switch cfg.Resume.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		stores := map[string]progress.Store{
			modePaged:  progress.NewRedisStore(client, cfg.Redis.KeyPrefix, modePaged, start, log),
			modeCities: progress.NewRedisStore(client, cfg.Redis.KeyPrefix, modeCities, start, log),
		}
		return stores, func() { client.Close() }, nil
	default:
		stores := map[string]progress.Store{
			modePaged:  progress.NewFileStore(cfg.Resume.ProgressFile, start, log),
			modeCities: progress.NewFileStore(cfg.Resume.CityProgressFile, start, log),
		}
		return stores, func() {}, nil
	}
}

func storeModes(stores map[string]progress.Store) []string {
	modes := make([]string, 0, len(stores))
	for mode := range stores {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}
