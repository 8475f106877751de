package config

const (
	defaultLogDir               = "~/.local/share/classicphotos/logs"
	defaultCatalogPath          = "~/.config/classicphotos/catalog.json"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultFetchConcurrency     = 1
	defaultTransformConcurrency = 1
	defaultFetchTimeout         = 30
	defaultMaxPayloadBytes      = 32 << 20
	defaultSepiaIntensity       = 0.8
	defaultUserAgent            = "classicphotos/dev"
	defaultViewportRows         = 6
	defaultViewportScrollStep   = 3
	defaultSettleTimeout        = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Catalog: Catalog{
			Path: defaultCatalogPath,
		},
		Pipeline: Pipeline{
			FetchConcurrency:     defaultFetchConcurrency,
			TransformConcurrency: defaultTransformConcurrency,
			FetchTimeout:         defaultFetchTimeout,
			MaxPayloadBytes:      defaultMaxPayloadBytes,
			SepiaIntensity:       defaultSepiaIntensity,
			UserAgent:            defaultUserAgent,
		},
		Viewport: Viewport{
			Rows:          defaultViewportRows,
			ScrollStep:    defaultViewportScrollStep,
			SettleTimeout: defaultSettleTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
