package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence/file"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence/postgresql"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence/redis"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence/sqlite"
)

// RedisKeyPrefix namespaces every slot written to a shared redis.
const RedisKeyPrefix = "workflow-builder:"

var supportedPersistenceProviders = []string{"file", "redis", "rediss", "postgres", "postgresql", "sqlite"}

// NewPersistence opens the cache backend named by the scheme of databaseURL.
// A URL without a known scheme is treated as a directory for the file backend.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)

	logger.InfoContext(ctx, "Opening persistence", "provider", provider)

	var (
		p   persistence.Persistence
		err error
	)

	switch provider {
	case "redis", "rediss":
		p, err = redis.NewPersistence(ctx, databaseURL, RedisKeyPrefix)
	case "postgres", "postgresql":
		p, err = postgresql.NewPersistence(ctx, logger, databaseURL)
	case "sqlite":
		p, err = sqlite.NewPersistence(ctx, logger, databaseURL)
	default:
		p = file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s persistence: %w", provider, err)
	}

	return p, nil
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
