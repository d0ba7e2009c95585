package configs

import (
	"flag"
	"os"

	"github.com/taposhsarker38/adaptix-erp-sub002/internal/infrastructure/env"
)

// DetermineConfigPath returns the YAML file to load, or "" when none exists.
// It parses the command line, so call it once from main.
func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("GATEWAY_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"../../config.yaml", // keep for local dev
			"/etc/realtime-gateway/config.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	return configPath
}
