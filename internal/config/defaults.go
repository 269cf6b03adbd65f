package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.RatingsDBPath == "" {
		cfg.Storage.RatingsDBPath = "/usr/local/var/osusume/data/db/ratings.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/osusume/data/indices/tags"
	}
	if cfg.Recommend.NeighborhoodSize == 0 {
		cfg.Recommend.NeighborhoodSize = 20
	}
	if cfg.Recommend.DefaultTopN == 0 {
		cfg.Recommend.DefaultTopN = 10
	}
	if cfg.Recommend.MaxTopN == 0 {
		cfg.Recommend.MaxTopN = 100
	}
}
