package engineconfig

// EngineConfig bundles every operational config section the engine needs
// to start, loaded under one shared environment-variable prefix.
type EngineConfig struct {
	Sync        SyncConfig
	RecordStore RecordStoreConfig
	SearchStore SearchStoreConfig
	Redis       RedisConfig
}

// Load reads every section from <prefix>_* environment variables and
// validates the required ones, mirroring the teacher's
// ConfigLoader.LoadAll.
func Load(prefix string) (*EngineConfig, error) {
	config := &EngineConfig{
		Sync:        LoadSyncConfig(prefix),
		RecordStore: LoadRecordStoreConfig(prefix),
		SearchStore: LoadSearchStoreConfig(prefix),
		Redis:       LoadRedisConfig(prefix),
	}

	if err := config.Sync.Validate(); err != nil {
		return nil, err
	}
	if err := config.RecordStore.Validate(); err != nil {
		return nil, err
	}
	if err := config.SearchStore.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
