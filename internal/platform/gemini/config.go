package gemini

import (
	"github.com/yungbote/datavault-backend/internal/platform/envutil"
)

type Config struct {
	APIKey         string
	Model          string
	PlannerEnabled bool
	MoveFiles      bool
}

// ResolveConfigFromEnv reads the Gemini settings. A missing API key is
// not an error, it just disables the planner and embedder.
func ResolveConfigFromEnv() Config {
	return Config{
		APIKey:         envutil.String("GEMINI_API_KEY", ""),
		Model:          envutil.String("GEMINI_MODEL", "gemini-2.5-flash"),
		PlannerEnabled: envutil.Bool("ENABLE_LOCAL_PATH_GENERATOR", true),
		MoveFiles:      envutil.Bool("LOCAL_PATH_GENERATOR_MOVE_FILES", true),
	}
}

func (c Config) Enabled() bool { return c.APIKey != "" }
