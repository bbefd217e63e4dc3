package config

const (
	defaultStateDir             = "~/.local/share/docshelf/state"
	defaultFallbackDir          = "~/Documents/Unsorted"
	defaultLogDir               = "~/.local/share/docshelf/logs"
	defaultAutoApproveThreshold = 90
	defaultAskThreshold         = 50
	defaultReviewBind           = "127.0.0.1:8765"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:    defaultStateDir,
			FallbackDir: defaultFallbackDir,
			LogDir:      defaultLogDir,
		},
		Routing: Routing{
			AutoApproveThreshold: defaultAutoApproveThreshold,
			AskThreshold:         defaultAskThreshold,
		},
		Review: Review{
			Bind: defaultReviewBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
