package config

const (
	defaultMusicDir           = "~/music"
	defaultWorkDir            = "~/rips"
	defaultJobDB              = "~/rips/db/rip.db"
	defaultLogDir             = "~/.local/share/stylus/logs"
	defaultAcoustIDBaseURL    = "https://api.acoustid.org/v2/lookup"
	defaultFpcalcBinary       = "fpcalc"
	defaultMinTrackScore      = 0.80
	defaultMinCoverage        = 0.70
	defaultMinAgreement       = 0.70
	defaultLookupTimeout      = 30
	defaultMaxParallelLookups = 4
	defaultTempDirPrefix      = "abcde."
	defaultStaleAgeHours      = 2
	defaultRescanTimeout      = 10
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

func defaultRipProcessNames() []string {
	return []string{"abcde", "cdparanoia", "flac"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MusicDir: defaultMusicDir,
			WorkDir:  defaultWorkDir,
			JobDB:    defaultJobDB,
			LogDir:   defaultLogDir,
		},
		Identification: Identification{
			AcoustIDBaseURL: defaultAcoustIDBaseURL,
			FpcalcBinary:    defaultFpcalcBinary,
			MinTrackScore:   defaultMinTrackScore,
			MinCoverage:     defaultMinCoverage,
			MinAgreement:    defaultMinAgreement,
			LookupTimeout:   defaultLookupTimeout,
			MaxParallel:     defaultMaxParallelLookups,
		},
		Reconcile: Reconcile{
			TempDirPrefix:   defaultTempDirPrefix,
			StaleAgeHours:   defaultStaleAgeHours,
			RipProcessNames: defaultRipProcessNames(),
		},
		Library: Library{
			RescanTimeout: defaultRescanTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
