package config

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`   // "debug", "info", "warn", "error"
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// OutputConfig selects which report sections the CLI prints.
type OutputConfig struct {
	ShowTimeline bool `json:"show_timeline" yaml:"show_timeline"` // Staff changes over time
	ShowSlack    bool `json:"show_slack" yaml:"show_slack"`       // Per-task slack table
	Color        bool `json:"color" yaml:"color"`                 // Styled terminal output
}

// CatalogConfig locates the SQLite project catalog.
type CatalogConfig struct {
	Path string `json:"path" yaml:"path"` // Empty disables the catalog
}

// Config is the top-level configuration.
type Config struct {
	StaffCeiling int           `json:"staff_ceiling" yaml:"staff_ceiling"` // Manpower limit when none is given on the command line
	Concurrency  int           `json:"concurrency" yaml:"concurrency"`     // Projects analysed at once in batch mode
	Log          LogConfig     `json:"log" yaml:"log"`
	Output       OutputConfig  `json:"output" yaml:"output"`
	Catalog      CatalogConfig `json:"catalog" yaml:"catalog"`
}
