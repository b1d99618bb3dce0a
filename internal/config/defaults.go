package config

// DefaultStaffCeiling is the manpower limit used when nothing else is configured.
const DefaultStaffCeiling = 999

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		StaffCeiling: DefaultStaffCeiling,
		Concurrency:  4,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			ShowTimeline: true,
			ShowSlack:    true,
			Color:        true,
		},
	}
}
