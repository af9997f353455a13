package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/rootflat/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. ROOTFLAT_OUTPUT_FORMAT
const EnvPrefix = "ROOTFLAT"

// Load loads a configuration from a YAML file on top of Default, expanding
// ${VAR_NAME} references from the environment
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file")
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file")
	}
	return nil
}

// NewViper returns a viper instance seeded with defaults and bound to
// ROOTFLAT_ environment variables. Callers may bind flags before LoadViper.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.encoding", d.Log.Encoding)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.output_paths", d.Log.OutputPaths)
	v.SetDefault("flatten.enabled", d.Flatten.Enabled)
	v.SetDefault("flatten.entry_start", d.Flatten.EntryStart)
	v.SetDefault("flatten.entry_stop", d.Flatten.EntryStop)
	v.SetDefault("flatten.workers", d.Flatten.Workers)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.compression", d.Output.Compression)
	v.SetDefault("output.level", d.Output.Level)
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("trace.enabled", d.Trace.Enabled)
	v.SetDefault("trace.service_name", d.Trace.ServiceName)
	v.SetDefault("trace.service_version", d.Trace.ServiceVersion)
	v.SetDefault("trace.sampling_rate", d.Trace.SamplingRate)
	return v
}

// LoadViper reads path (if non-empty) into v and unmarshals the merged
// defaults, file, environment and bound flags
func LoadViper(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}
