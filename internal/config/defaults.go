package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/wikisearch/data/db/documents.db"
	}
	if cfg.Storage.IndexBackend == "" {
		cfg.Storage.IndexBackend = "bleve"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/wikisearch/data/indices/" + cfg.Storage.IndexBackend
	}
	if cfg.Fetch.RatePerSecond == 0 {
		cfg.Fetch.RatePerSecond = 1
	}
	if cfg.Fetch.Burst == 0 {
		cfg.Fetch.Burst = 1
	}
	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = 30
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "wikisearch/1.0"
	}
	if cfg.Fetch.MaxBodyBytes == 0 {
		cfg.Fetch.MaxBodyBytes = 10 << 20
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{
			".txt", ".md", ".rst", ".html", ".htm", ".pdf",
			".docx", ".xlsx", ".pptx", ".odt", ".ods", ".odp", ".rtf",
		}
	}
	if cfg.Spell.MaxDistance == 0 {
		cfg.Spell.MaxDistance = 2
	}
	if cfg.Spell.MaxSuggestions == 0 {
		cfg.Spell.MaxSuggestions = 5
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
