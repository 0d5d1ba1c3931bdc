package engineconfig

import "time"

// SyncConfig tunes the sync driver and the per-database archive-index
// layout (spec.md §4.7/§4.8); MaxDocsPerArc belongs to database.Config
// rather than syncdriver.Config, but is loaded together with the driver
// knobs since operators reason about them as one "sync behavior" knob set.
// RefreshIntervalOverride is loaded but not read by any other package.
type SyncConfig struct {
	ChunkSize               int
	WorkerCount             int
	BufferMultiplier        int
	MaxDocsPerArc           int
	RefreshIntervalOverride time.Duration
}

// LoadSyncConfig loads SyncConfig from <prefix>_SYNC_* environment
// variables, defaulting to spec.md §4.7's named values.
func LoadSyncConfig(prefix string) SyncConfig {
	env := NewEnv(prefix + "_SYNC")
	return SyncConfig{
		ChunkSize:               env.GetInt("CHUNK_SIZE", 500),
		WorkerCount:             env.GetInt("WORKER_COUNT", 4),
		BufferMultiplier:        env.GetInt("BUFFER_MULTIPLIER", 2),
		MaxDocsPerArc:           env.GetInt("MAX_DOCS_PER_ARC", 10000),
		RefreshIntervalOverride: env.GetDuration("REFRESH_INTERVAL_OVERRIDE", 0),
	}
}

// Validate reports misconfigured SyncConfig fields.
func (c SyncConfig) Validate() error {
	v := NewValidator()
	v.RequirePositiveInt("Sync.ChunkSize", c.ChunkSize)
	v.RequirePositiveInt("Sync.WorkerCount", c.WorkerCount)
	v.RequirePositiveInt("Sync.BufferMultiplier", c.BufferMultiplier)
	v.RequirePositiveInt("Sync.MaxDocsPerArc", c.MaxDocsPerArc)
	return v.Validate()
}

// RecordStoreConfig connects to the record store (CouchDB), mirroring the
// teacher's DatabaseConfig.
type RecordStoreConfig struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// LoadRecordStoreConfig loads RecordStoreConfig from <prefix>_RECORDSTORE_*
// environment variables.
func LoadRecordStoreConfig(prefix string) RecordStoreConfig {
	env := NewEnv(prefix + "_RECORDSTORE")
	return RecordStoreConfig{
		URL:      env.GetString("URL", "http://localhost:5984"),
		Username: env.GetString("USERNAME", ""),
		Password: env.GetString("PASSWORD", ""),
		Timeout:  env.GetDuration("TIMEOUT", 30*time.Second),
	}
}

// Validate reports misconfigured RecordStoreConfig fields.
func (c RecordStoreConfig) Validate() error {
	v := NewValidator()
	v.RequireURL("RecordStore.URL", c.URL)
	return v.Validate()
}

// LogFields returns config as a field set safe to pass to a structured
// logger at startup, masking Password (adapted from common/utils.go's
// MaskSecret) instead of omitting it outright.
func (c RecordStoreConfig) LogFields() map[string]any {
	return map[string]any{
		"url":      c.URL,
		"username": c.Username,
		"password": maskSecret(c.Password),
		"timeout":  c.Timeout.String(),
	}
}

// SearchStoreConfig connects to the bulk-HTTP search store.
type SearchStoreConfig struct {
	URLs       []string
	Timeout    time.Duration
	RetryCount int
}

// LoadSearchStoreConfig loads SearchStoreConfig from <prefix>_SEARCHSTORE_*
// environment variables.
func LoadSearchStoreConfig(prefix string) SearchStoreConfig {
	env := NewEnv(prefix + "_SEARCHSTORE")
	return SearchStoreConfig{
		URLs:       env.GetStringSlice("URLS", []string{"http://localhost:9200"}),
		Timeout:    env.GetDuration("TIMEOUT", 30*time.Second),
		RetryCount: env.GetInt("RETRY_COUNT", 3),
	}
}

// Validate reports misconfigured SearchStoreConfig fields.
func (c SearchStoreConfig) Validate() error {
	v := NewValidator()
	if len(c.URLs) == 0 {
		v.RequireURL("SearchStore.URLs", "")
	} else {
		for _, url := range c.URLs {
			v.RequireURL("SearchStore.URLs", url)
		}
	}
	return v.Validate()
}

// RedisConfig connects to an optional Redis backing for locks and caches.
type RedisConfig struct {
	URL string
}

// LoadRedisConfig loads RedisConfig from <prefix>_REDIS_* environment
// variables. An empty URL means no Redis backing is configured; locking
// then uses the record-store-backed locking.RecordStoreLocker.
func LoadRedisConfig(prefix string) RedisConfig {
	env := NewEnv(prefix + "_REDIS")
	return RedisConfig{URL: env.GetString("URL", "")}
}
