// Package config loads digest defaults from configuration files and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/temirov/digest/internal/utils"
)

// Configuration keys shared by files and environment variables.
const (
	KeyInclude       = "include"
	KeyExclude       = "exclude"
	KeyFind          = "find"
	KeyRequire       = "require"
	KeyMaxSize       = "max_size"
	KeySkipArtifacts = "skip_artifacts"
	KeyUseGitignore  = "use_gitignore"
	KeySort          = "sort"
	KeyTokens        = "tokens"
	KeyModel         = "model"
	KeyClipboard     = "clipboard"
	KeyOutput        = "output"

	environmentKeySeparator = "_"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds digest defaults. Nil pointers and empty values mean "not configured".
// MaxSize is expressed in kilobytes.
type ApplicationConfiguration struct {
	Include       []string `mapstructure:"include"`
	Exclude       []string `mapstructure:"exclude"`
	Find          []string `mapstructure:"find"`
	Require       []string `mapstructure:"require"`
	MaxSize       *int64   `mapstructure:"max_size"`
	SkipArtifacts *bool    `mapstructure:"skip_artifacts"`
	UseGitignore  *bool    `mapstructure:"use_gitignore"`
	Sort          *bool    `mapstructure:"sort"`
	Tokens        *bool    `mapstructure:"tokens"`
	Model         string   `mapstructure:"model"`
	Clipboard     *bool    `mapstructure:"clipboard"`
	Output        string   `mapstructure:"output"`
}

// LoadApplicationConfiguration merges, from lowest to highest precedence, the global
// configuration file, the local (or explicit) configuration file, the working directory's
// .env file and DIGEST_ prefixed environment variables.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	environmentConfig, environmentErr := loadEnvironmentConfiguration(workingDirectory)
	if environmentErr != nil {
		return ApplicationConfiguration{}, environmentErr
	}
	merged = merged.Merge(environmentConfig)

	merged.Include = utils.DeduplicatePatterns(merged.Include)
	merged.Exclude = utils.DeduplicatePatterns(merged.Exclude)
	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// loadEnvironmentConfiguration reads DIGEST_ variables. Values from the working directory's
// .env file act as defaults that the process environment overrides; the process
// environment itself is never modified.
func loadEnvironmentConfiguration(workingDirectory string) (ApplicationConfiguration, error) {
	reader := viper.New()
	reader.SetEnvPrefix(utils.EnvironmentPrefix)
	reader.AutomaticEnv()

	dotenvPath := filepath.Join(workingDirectory, utils.DotenvFileName)
	dotenvValues, dotenvErr := godotenv.Read(dotenvPath)
	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		return ApplicationConfiguration{}, fmt.Errorf("read environment file %s: %w", dotenvPath, dotenvErr)
	}
	environmentPrefix := utils.EnvironmentPrefix + environmentKeySeparator
	for name, value := range dotenvValues {
		if key, found := strings.CutPrefix(name, environmentPrefix); found {
			reader.SetDefault(strings.ToLower(key), value)
		}
	}

	var config ApplicationConfiguration
	config.Include = readList(reader, KeyInclude)
	config.Exclude = readList(reader, KeyExclude)
	config.Find = readList(reader, KeyFind)
	config.Require = readList(reader, KeyRequire)
	if reader.IsSet(KeyMaxSize) {
		maxSize := reader.GetInt64(KeyMaxSize)
		config.MaxSize = &maxSize
	}
	config.SkipArtifacts = readBool(reader, KeySkipArtifacts)
	config.UseGitignore = readBool(reader, KeyUseGitignore)
	config.Sort = readBool(reader, KeySort)
	config.Tokens = readBool(reader, KeyTokens)
	config.Model = strings.TrimSpace(reader.GetString(KeyModel))
	config.Clipboard = readBool(reader, KeyClipboard)
	config.Output = strings.TrimSpace(reader.GetString(KeyOutput))
	return config, nil
}

func readList(reader *viper.Viper, key string) []string {
	if !reader.IsSet(key) {
		return nil
	}
	return utils.SplitCommaSeparated([]string{reader.GetString(key)})
}

func readBool(reader *viper.Viper, key string) *bool {
	if !reader.IsSet(key) {
		return nil
	}
	value := reader.GetBool(key)
	return &value
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if len(override.Include) > 0 {
		result.Include = append([]string{}, override.Include...)
	}
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, override.Exclude...)
	}
	if len(override.Find) > 0 {
		result.Find = append([]string{}, override.Find...)
	}
	if len(override.Require) > 0 {
		result.Require = append([]string{}, override.Require...)
	}
	if override.MaxSize != nil {
		result.MaxSize = cloneInt64(override.MaxSize)
	}
	if override.SkipArtifacts != nil {
		result.SkipArtifacts = cloneBool(override.SkipArtifacts)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.Sort != nil {
		result.Sort = cloneBool(override.Sort)
	}
	if override.Tokens != nil {
		result.Tokens = cloneBool(override.Tokens)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	if override.Output != "" {
		result.Output = override.Output
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
