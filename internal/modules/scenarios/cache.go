package scenarios

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantrisk/fairsim/internal/modules/fair"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS result_cache (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_result_cache_expires ON result_cache(expires_at);
`

// ResultCache stores simulation results keyed by a digest of their exact
// inputs. Simulations are pure functions of (inputs, n, seed), so a hit
// is always byte-equivalent to re-running the simulation; unseeded runs
// are never cached.
type ResultCache struct {
	db  *sql.DB
	ttl time.Duration
}

// NewResultCache creates a result cache with the given entry lifetime.
func NewResultCache(db *sql.DB, ttl time.Duration) *ResultCache {
	return &ResultCache{db: db, ttl: ttl}
}

// Migrate creates the cache table if it does not exist.
func (c *ResultCache) Migrate() error {
	if _, err := c.db.Exec(cacheSchema); err != nil {
		return fmt.Errorf("failed to create result cache schema: %w", err)
	}
	return nil
}

// Key derives the cache key for one simulation request. Returns "" when
// the request is unseeded and therefore uncacheable.
func Key(inputs fair.ScenarioInputs, nSimulations int, seed *int64) string {
	if seed == nil {
		return ""
	}

	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return ""
	}

	h := sha256.New()
	h.Write(inputsJSON)
	fmt.Fprintf(h, "|n=%d|seed=%d", nSimulations, *seed)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for a key, or (nil, false) on a miss.
// Expired entries count as misses; the cleanup job removes them later.
func (c *ResultCache) Get(key string) (*fair.ScenarioResult, bool, error) {
	if key == "" {
		return nil, false, nil
	}

	var payload []byte
	err := c.db.QueryRow(
		"SELECT payload FROM result_cache WHERE key = ? AND expires_at > ?",
		key, time.Now().Unix(),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read result cache: %w", err)
	}

	var result fair.ScenarioResult
	if err := msgpack.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, true, nil
}

// Put stores a result under a key. A "" key (unseeded request) is a no-op.
// The sample arrays are excluded from the payload; cached results serve
// summaries, not re-aggregation.
func (c *ResultCache) Put(key string, result *fair.ScenarioResult) error {
	if key == "" {
		return nil
	}

	payload, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result for cache: %w", err)
	}

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO result_cache (key, payload, expires_at) VALUES (?, ?, ?)",
		key, payload, time.Now().Add(c.ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write result cache: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired entries and returns how many.
func (c *ResultCache) DeleteExpired() (int64, error) {
	result, err := c.db.Exec("DELETE FROM result_cache WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
