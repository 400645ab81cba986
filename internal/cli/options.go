package cli

import (
	"github.com/spf13/pflag"

	"github.com/temirov/digest/internal/config"
	"github.com/temirov/digest/internal/ingest"
	"github.com/temirov/digest/internal/tokenizer"
	"github.com/temirov/digest/internal/utils"
)

// flagValues holds the raw command line values of the root command.
type flagValues struct {
	include       []string
	exclude       []string
	find          []string
	require       []string
	maxSize       int64
	skipArtifacts bool
	useGitignore  bool
	sort          bool
	tokens        bool
	model         string
	clipboard     bool
	output        string
	branch        string
	commit        string
	format        string
	graphEntry    string
	configPath    string
	verbose       bool
	debug         bool
	showVersion   bool
}

// settings are the effective values after configuration files, the environment and flags
// have been merged.
type settings struct {
	ingestOptions ingest.Options
	tokens        bool
	model         string
	clipboard     bool
	output        string
	format        string
	graphEntry    string
	verbose       bool
}

// explicitConfiguration returns the flags given on the command line as a configuration
// layer; flags left at their defaults stay unset so lower layers show through.
func (values flagValues) explicitConfiguration(flagSet *pflag.FlagSet) config.ApplicationConfiguration {
	var explicit config.ApplicationConfiguration
	if flagSet.Changed(includeFlagName) {
		explicit.Include = utils.SplitCommaSeparated(values.include)
	}
	if flagSet.Changed(excludeFlagName) {
		explicit.Exclude = utils.SplitCommaSeparated(values.exclude)
	}
	if flagSet.Changed(findFlagName) {
		explicit.Find = utils.SplitCommaSeparated(values.find)
	}
	if flagSet.Changed(requireFlagName) {
		explicit.Require = utils.SplitCommaSeparated(values.require)
	}
	if flagSet.Changed(maxSizeFlagName) {
		maxSize := values.maxSize
		explicit.MaxSize = &maxSize
	}
	explicit.SkipArtifacts = changedBoolean(flagSet, skipArtifactsFlagName, values.skipArtifacts)
	explicit.UseGitignore = changedBoolean(flagSet, ignoreFlagName, values.useGitignore)
	explicit.Sort = changedBoolean(flagSet, sortFlagName, values.sort)
	explicit.Tokens = changedBoolean(flagSet, tokensFlagName, values.tokens)
	explicit.Clipboard = changedBoolean(flagSet, clipboardFlagName, values.clipboard)
	if flagSet.Changed(modelFlagName) {
		explicit.Model = values.model
	}
	if flagSet.Changed(outputFlagName) {
		explicit.Output = values.output
	}
	return explicit
}

// resolveSettings overlays values onto the loaded configuration.
func resolveSettings(loaded config.ApplicationConfiguration, values flagValues, flagSet *pflag.FlagSet) settings {
	merged := loaded.Merge(values.explicitConfiguration(flagSet))

	options := ingest.DefaultOptions()
	options.Include = utils.DeduplicatePatterns(merged.Include)
	options.Exclude = utils.DeduplicatePatterns(merged.Exclude)
	options.Find = merged.Find
	options.Require = merged.Require
	if merged.MaxSize != nil && *merged.MaxSize > 0 {
		options.MaxFileSize = *merged.MaxSize * utils.Kilobyte
	}
	options.SkipArtifacts = valueOrDefault(merged.SkipArtifacts, options.SkipArtifacts)
	options.UseGitignore = valueOrDefault(merged.UseGitignore, options.UseGitignore)
	options.Sort = valueOrDefault(merged.Sort, options.Sort)
	options.Branch = values.branch
	options.Commit = values.commit

	model := merged.Model
	if model == "" {
		model = tokenizer.DefaultModel
	}
	return settings{
		ingestOptions: options,
		tokens:        valueOrDefault(merged.Tokens, false),
		model:         model,
		clipboard:     valueOrDefault(merged.Clipboard, false),
		output:        merged.Output,
		format:        values.format,
		graphEntry:    values.graphEntry,
		verbose:       values.verbose,
	}
}

func valueOrDefault(value *bool, defaultValue bool) bool {
	if value == nil {
		return defaultValue
	}
	return *value
}
