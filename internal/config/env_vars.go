package config

import (
	"os"
	"strconv"
	"time"
)

const (
	apiBaseURLVar     = "MICROFIT_API_BASE_URL"
	timeoutSecondsVar = "MICROFIT_TIMEOUT_SECONDS"
	appNameVar        = "MICROFIT_APP_NAME"
	folderEnvVar      = "MICROFIT_DATA_FOLDER"

	// The backend tolerates long uploads, so the global timeout is generous.
	defaultTimeoutSeconds = 3600
)

type EnvVars struct{}

var _ Config = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "MicroFit")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetAPIBaseURL returns the base URL all API paths are resolved against
// (e.g., "https://api.example.com/")
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8080/")
}

func (EnvVars) GetRequestTimeout() time.Duration {
	seconds, err := strconv.Atoi(GetEnv(timeoutSecondsVar, ""))
	if err != nil || seconds <= 0 {
		seconds = defaultTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
