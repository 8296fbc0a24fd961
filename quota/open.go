package quota

import (
	"context"
	"fmt"
	"strings"

	"modelhub-sdk/utils"
)

// Config selects and locates a backend.
// Driver is one of memory, file, sqlite, postgres, mysql or redis.
type Config struct {
	Driver string
	DSN    string
}

// Open creates the store described by cfg. An empty driver means file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))

	switch driver {
	case "", "file":
		path := cfg.DSN
		if path == "" {
			path = DefaultFilePath()
		}
		return NewFileStore(path)
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return OpenRedisStore(ctx, cfg.DSN)
	}

	dbType, err := utils.ParseDBType(driver)
	if err != nil {
		return nil, fmt.Errorf("unknown quota driver %q", cfg.Driver)
	}
	return OpenSQLStore(ctx, dbType, cfg.DSN)
}
