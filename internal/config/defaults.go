package config

const (
	defaultBuildDir       = "build"
	defaultLogDir         = "logs"
	defaultImageDir       = "~/imglib"
	defaultMatchThreshold = 0.8
	defaultThumbnailSmall = 50
	defaultThumbnailLarge = 500
	defaultLibraryName    = "Lib:Monsters"
	defaultDeliveryName   = "delivery"
	defaultLogFormat      = "console"
	defaultLogLevel       = "warn"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BuildDir:  defaultBuildDir,
			LogDir:    defaultLogDir,
			ImageDirs: []string{defaultImageDir},
		},
		Build: Build{
			MatchThreshold: defaultMatchThreshold,
			ThumbnailSmall: defaultThumbnailSmall,
			ThumbnailLarge: defaultThumbnailLarge,
			LibraryName:    defaultLibraryName,
			DeliveryName:   defaultDeliveryName,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
