package ionmacro

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// DefaultConfigFile is the configuration file looked up by the CLI.
const DefaultConfigFile = "ionmacro.yaml"

// ExpansionLimitEnv overrides expansion_limit when set.
const ExpansionLimitEnv = "IONMACRO_EXPANSION_LIMIT"

const defaultExpansionLimit = 1_000_000

// Config represents the ionmacro configuration
type Config struct {
	// ExpansionLimit bounds the steps of one expansion session.
	ExpansionLimit int `yaml:"expansion_limit"`
	// MacroFiles are macro definition files loaded in order before expanding.
	MacroFiles []string     `yaml:"macro_files"`
	Output     OutputConfig `yaml:"output"`
}

// OutputConfig controls how expanded values are printed
type OutputConfig struct {
	Format string `yaml:"format"`
	Pretty bool   `yaml:"pretty"`
}

// Output formats
const (
	FormatIon  = "ion"
	FormatJSON = "json"
)

// LoadConfig loads configuration from the specified file. A missing file
// yields the defaults.
func LoadConfig(configPath string) (*Config, error) {
	// Load .env files first
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	config := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		config = getDefaultConfig()
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Parse YAML with strict mode to detect unknown fields
		if err := yaml.UnmarshalWithOptions(data, config, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config file: %w", ErrInvalidConfig, err)
		}
	}

	applyDefaults(config)
	expandConfigEnvVars(config)
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	if config.ExpansionLimit <= 0 {
		return fmt.Errorf("%w: expansion_limit must be positive, got %d", ErrInvalidConfig, config.ExpansionLimit)
	}

	switch config.Output.Format {
	case FormatIon, FormatJSON:
	default:
		return fmt.Errorf("%w: output.format '%s' is invalid: must be one of ion, json", ErrInvalidConfig, config.Output.Format)
	}

	for i, file := range config.MacroFiles {
		if file == "" {
			return fmt.Errorf("%w: macro_files[%d] is empty", ErrInvalidConfig, i)
		}
	}
	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	return &Config{
		ExpansionLimit: defaultExpansionLimit,
		MacroFiles:     []string{},
		Output: OutputConfig{
			Format: FormatIon,
		},
	}
}

func applyDefaults(config *Config) {
	if config.ExpansionLimit == 0 {
		config.ExpansionLimit = defaultExpansionLimit
	}
	if config.MacroFiles == nil {
		config.MacroFiles = []string{}
	}
	if config.Output.Format == "" {
		config.Output.Format = FormatIon
	}
}

func applyEnvOverrides(config *Config) error {
	value, ok := os.LookupEnv(ExpansionLimitEnv)
	if !ok || value == "" {
		return nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer, got '%s'", ErrInvalidConfig, ExpansionLimitEnv, value)
	}
	config.ExpansionLimit = limit
	return nil
}

// loadEnvFiles loads .env.local and .env if they exist. Variables already
// set win over both files, and .env.local wins over .env.
func loadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if !fileExists(file) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load %s file: %w", file, err)
		}
	}
	return nil
}

var (
	bracedEnvVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	plainEnvVar  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands environment variables in the format ${VAR} or $VAR
func expandEnvVars(s string) string {
	s = bracedEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
	return plainEnvVar.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
}

func expandConfigEnvVars(config *Config) {
	for i, file := range config.MacroFiles {
		config.MacroFiles[i] = expandEnvVars(file)
	}
	config.Output.Format = expandEnvVars(config.Output.Format)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
