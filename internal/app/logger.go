package app

import (
	"strings"

	"github.com/labhubhq/labhub/pkg/logger"
)

// levelAliases maps spellings accepted in config to the levels zap knows.
var levelAliases = map[string]string{
	"warning": "warn",
	"err":     "error",
	"trace":   "debug",
}

// ConfigureLogging initialises the global logger from the configured level.
func ConfigureLogging(level string) error {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "info"
	}
	if alias, ok := levelAliases[level]; ok {
		level = alias
	}
	return logger.Init(level)
}
