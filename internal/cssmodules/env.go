package icm

import (
	"fmt"
	"os"
	"strconv"
)

const (
	modeKey      = "CSSMODULES_ENV_MODE"
	devModeVal   = "development"
	rootKey      = "CSSMODULES_ROOT"
	strategyKey  = "CSSMODULES_STRATEGY"
	portKey      = "CSSMODULES_PORT"
	logLevelKey  = "CSSMODULES_LOG_LEVEL"
	logFormatKey = "CSSMODULES_LOG_FORMAT"
)

func GetIsDev() bool {
	return os.Getenv(modeKey) == devModeVal
}

func setModeToDev() {
	os.Setenv(modeKey, devModeVal)
}

func getPort() int {
	port, err := strconv.Atoi(os.Getenv(portKey))
	if err != nil {
		return 0
	}
	return port
}

func setPort(port int) {
	os.Setenv(portKey, fmt.Sprintf("%d", port))
}

// applyEnv overrides file configuration with environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv(rootKey); v != "" {
		c.RootDir = v
	}
	if v := os.Getenv(strategyKey); v != "" {
		c.Strategy = v
	}
	if port := getPort(); port != 0 {
		c.Dev.Port = port
	}
	if v := os.Getenv(logLevelKey); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(logFormatKey); v != "" {
		c.LogFormat = v
	}
}
