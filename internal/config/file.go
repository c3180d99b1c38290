package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileValues is the on-disk configuration shape. Any zero-valued field falls
// back to the environment (and then to the built-in default).
type FileValues struct {
	APIBaseURL            string `yaml:"api_base_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	AppName               string `yaml:"app_name"`
	DataFolder            string `yaml:"data_folder"`
}

type fileConfig struct {
	EnvVars
	file FileValues
}

var _ Config = fileConfig{}

// NewFromFile layers a YAML configuration file under the environment
// variables: env vars win, then the file, then defaults. A missing file is
// not an error; the environment-only config is returned.
func NewFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[config.NewFromFile] read")
	}

	var values FileValues
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrap(err, "[config.NewFromFile] parse")
	}
	return fileConfig{file: values}, nil
}

func (c fileConfig) GetAPIBaseURL() string {
	if v := os.Getenv(apiBaseURLVar); v != "" {
		return v
	}
	if c.file.APIBaseURL != "" {
		return c.file.APIBaseURL
	}
	return c.EnvVars.GetAPIBaseURL()
}

func (c fileConfig) GetRequestTimeout() time.Duration {
	if v := os.Getenv(timeoutSecondsVar); v != "" {
		return c.EnvVars.GetRequestTimeout()
	}
	if c.file.RequestTimeoutSeconds > 0 {
		return time.Duration(c.file.RequestTimeoutSeconds) * time.Second
	}
	return c.EnvVars.GetRequestTimeout()
}

func (c fileConfig) GetAppName() string {
	if v := os.Getenv(appNameVar); v != "" {
		return v
	}
	if c.file.AppName != "" {
		return c.file.AppName
	}
	return c.EnvVars.GetAppName()
}

func (c fileConfig) GetDataFolder() string {
	if v := os.Getenv(folderEnvVar); v != "" {
		return v
	}
	if c.file.DataFolder != "" {
		return c.file.DataFolder
	}
	return c.EnvVars.GetDataFolder()
}
