package config

const (
	defaultDataDir                = "~/.local/share/teatrack/data"
	defaultLogDir                 = "~/.local/share/teatrack/logs"
	defaultStoreFileName          = "tea.db"
	defaultBusyTimeoutMillis      = 5000
	defaultConflictRetries        = 3
	defaultBrewExpectedSeconds    = 180
	defaultReclaimGraceSeconds    = 3600
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	maxConflictRetries            = 10
	minStoreBusyTimeoutMillis     = 100
	maxBrewDefaultExpectedSeconds = 24 * 60 * 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Store: Store{
			FileName:          defaultStoreFileName,
			BusyTimeoutMillis: defaultBusyTimeoutMillis,
			ConflictRetries:   defaultConflictRetries,
		},
		Brew: Brew{
			DefaultExpectedSeconds: defaultBrewExpectedSeconds,
			ReclaimGraceSeconds:    defaultReclaimGraceSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
