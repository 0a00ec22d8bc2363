package repository

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/echoatlas/tracemap/internal/pkg/database"
	"github.com/echoatlas/tracemap/internal/pkg/models"
)

// TracesRepo implements the trace repository interface against PostgreSQL,
// with an optional short-TTL Redis cache in front of the per-cell range
// queries
type TracesRepo struct {
	cfg      *models.Config
	db       *sqlx.DB
	cache    *database.RedisClient
	cacheTTL time.Duration

	decodeFailures uint64
}

// NewTracesRepo creates a new trace repository instance. cache may be nil to
// disable cell query caching.
func NewTracesRepo(cfg *models.Config, db *sqlx.DB, cache *database.RedisClient) *TracesRepo {
	ttl := time.Duration(cfg.Engine.CellCacheTTLSec) * time.Second
	if ttl <= 0 {
		cache = nil
	}
	return &TracesRepo{
		cfg:      cfg,
		db:       db,
		cache:    cache,
		cacheTTL: ttl,
	}
}
