// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/digest/internal/config"
	"github.com/temirov/digest/internal/gitrepo"
	"github.com/temirov/digest/internal/graph"
	"github.com/temirov/digest/internal/ingest"
	"github.com/temirov/digest/internal/output"
	"github.com/temirov/digest/internal/services/clipboard"
	"github.com/temirov/digest/internal/tokenizer"
	"github.com/temirov/digest/internal/types"
	"github.com/temirov/digest/internal/utils"
)

const (
	rootUse              = "digest [path]"
	rootShortDescription = "turn a directory into a prompt-ready text digest"
	rootLongDescription  = `digest walks a directory and produces a summary, an ASCII tree of the
selected files and their contents wrapped in file banners.
Patterns select files (--include, --exclude), .gitignore rules are honored unless
--ignore false is given, and --find/--require keep only files mentioning terms.`
	rootUsageExample = `  # Digest the current directory
  digest

  # Only TypeScript sources below src, skipping build artifacts
  digest ./repo -i "src/**/*.ts" --skip-artifacts

  # Files mentioning both terms, written to a report and copied
  digest -r auth,token -o digest.md -c

  # Files reachable from an entry point
  digest ./repo --graph cmd/app/main.go`

	includeFlagName       = "include"
	includeShorthand      = "i"
	excludeFlagName       = "exclude"
	excludeShorthand      = "e"
	findFlagName          = "find"
	findShorthand         = "f"
	requireFlagName       = "require"
	requireShorthand      = "r"
	maxSizeFlagName       = "max-size"
	skipArtifactsFlagName = "skip-artifacts"
	ignoreFlagName        = "ignore"
	branchFlagName        = "branch"
	commitFlagName        = "commit"
	sortFlagName          = "sort"
	tokensFlagName        = "tokens"
	modelFlagName         = "model"
	clipboardFlagName     = "clipboard"
	clipboardShorthand    = "c"
	outputFlagName        = "output"
	outputShorthand       = "o"
	formatFlagName        = "format"
	graphFlagName         = "graph"
	configFlagName        = "config"
	verboseFlagName       = "verbose"
	verboseShorthand      = "v"
	debugFlagName         = "debug"
	versionFlagName       = "version"

	includeFlagDescription       = "glob patterns of files to include (repeatable or comma separated)"
	excludeFlagDescription       = "glob patterns to exclude (repeatable or comma separated)"
	findFlagDescription          = "keep files whose name or content contains any of these terms"
	requireFlagDescription       = "keep files whose content contains all of these terms"
	maxSizeFlagDescription       = "maximum size in KB of a file whose content is shown"
	skipArtifactsFlagDescription = "skip build artifacts and generated files"
	ignoreFlagDescription        = "honor .gitignore rules (use --ignore false to disable)"
	branchFlagDescription        = "git branch to check out before scanning"
	commitFlagDescription        = "git commit to check out before scanning"
	sortFlagDescription          = "sort the tree alphabetically instead of discovery order"
	tokensFlagDescription        = "estimate the token count of the digest"
	modelFlagDescription         = "tokenizer model used for the token estimate"
	clipboardFlagDescription     = "copy the report to the clipboard"
	outputFlagDescription        = "write the full report to this file"
	formatFlagDescription        = "report format: markdown, json or xml"
	graphFlagDescription         = "digest only the files reachable through imports from this entry file"
	configFlagDescription        = "configuration file (defaults to .digest.yaml in the working directory)"
	verboseFlagDescription       = "print file contents to the console"
	debugFlagDescription         = "enable debug logging"
	versionFlagDescription       = "display application version"

	defaultPath     = "."
	versionTemplate = "digest version: %s\n"

	logMessageReportWritten   = "report written"
	logMessageCopied          = "report copied to clipboard"
	logMessageClipboardFailed = "clipboard copy failed"
	logMessageTokenizer       = "token estimate enabled"
	logFieldPath              = "path"
	logFieldSize              = "size"
	logFieldModel             = "model"

	errorWorkingDirectoryFormat = "unable to determine working directory: %w"
	errorAbsolutePathFormat     = "abs failed for '%s': %w"
	errorInvalidFormatMessage   = "invalid format value '%s'"
	errorLoadConfigFormat       = "loading configuration: %w"
	errorWriteReportFormat      = "writing report to %s: %w"
	errorCollectGraphFormat     = "collecting imports of %s: %w"
)

// environment carries the process collaborators of a command tree.
type environment struct {
	stdout     io.Writer
	fileSystem afero.Fs
	copier     clipboard.Copier
	now        func() time.Time
}

func defaultEnvironment() environment {
	return environment{
		stdout:     os.Stdout,
		fileSystem: afero.NewOsFs(),
		copier:     clipboard.NewService(),
		now:        time.Now,
	}
}

// Execute runs the digest application. SIGINT and SIGTERM cancel the running scan.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCommand := createRootCommand(defaultEnvironment())
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(env environment) *cobra.Command {
	var values flagValues

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if values.showVersion {
				_, printError := fmt.Fprintf(env.stdout, versionTemplate, utils.GetApplicationVersion())
				return printError
			}
			if !output.IsSupportedFormat(values.format) {
				return fmt.Errorf(errorInvalidFormatMessage, values.format)
			}
			logger, loggerError := utils.NewApplicationLogger(values.debug)
			if loggerError != nil {
				return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
			}
			defer func() { _ = logger.Sync() }()

			targetPath := defaultPath
			if len(arguments) > 0 {
				targetPath = arguments[0]
			}
			return runDigest(command.Context(), env, logger, targetPath, values, command)
		},
	}

	flagSet := rootCommand.Flags()
	flagSet.StringArrayVarP(&values.include, includeFlagName, includeShorthand, nil, includeFlagDescription)
	flagSet.StringArrayVarP(&values.exclude, excludeFlagName, excludeShorthand, nil, excludeFlagDescription)
	flagSet.StringArrayVarP(&values.find, findFlagName, findShorthand, nil, findFlagDescription)
	flagSet.StringArrayVarP(&values.require, requireFlagName, requireShorthand, nil, requireFlagDescription)
	flagSet.Int64Var(&values.maxSize, maxSizeFlagName, ingest.DefaultMaxFileSize/utils.Kilobyte, maxSizeFlagDescription)
	registerBooleanFlag(flagSet, &values.skipArtifacts, skipArtifactsFlagName, "", false, skipArtifactsFlagDescription)
	registerBooleanFlag(flagSet, &values.useGitignore, ignoreFlagName, "", true, ignoreFlagDescription)
	flagSet.StringVar(&values.branch, branchFlagName, "", branchFlagDescription)
	flagSet.StringVar(&values.commit, commitFlagName, "", commitFlagDescription)
	registerBooleanFlag(flagSet, &values.sort, sortFlagName, "", false, sortFlagDescription)
	registerBooleanFlag(flagSet, &values.tokens, tokensFlagName, "", false, tokensFlagDescription)
	flagSet.StringVar(&values.model, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	registerBooleanFlag(flagSet, &values.clipboard, clipboardFlagName, clipboardShorthand, false, clipboardFlagDescription)
	flagSet.StringVarP(&values.output, outputFlagName, outputShorthand, "", outputFlagDescription)
	flagSet.StringVar(&values.format, formatFlagName, output.FormatMarkdown, formatFlagDescription)
	flagSet.StringVar(&values.graphEntry, graphFlagName, "", graphFlagDescription)
	flagSet.StringVar(&values.configPath, configFlagName, "", configFlagDescription)
	registerBooleanFlag(flagSet, &values.verbose, verboseFlagName, verboseShorthand, false, verboseFlagDescription)
	registerBooleanFlag(flagSet, &values.debug, debugFlagName, "", false, debugFlagDescription)
	registerBooleanFlag(flagSet, &values.showVersion, versionFlagName, "", false, versionFlagDescription)

	rootCommand.AddCommand(createInitCommand(env))
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func runDigest(ctx context.Context, env environment, logger *zap.Logger, targetPath string, values flagValues, command *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(errorWorkingDirectoryFormat, workingDirectoryError)
	}
	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: values.configPath,
	})
	if loadError != nil {
		return fmt.Errorf(errorLoadConfigFormat, loadError)
	}
	effective := resolveSettings(loaded, values, command.Flags())

	basePath, absoluteError := filepath.Abs(targetPath)
	if absoluteError != nil {
		return fmt.Errorf(errorAbsolutePathFormat, targetPath, absoluteError)
	}

	dependencies := ingest.Dependencies{
		FileSystem: env.fileSystem,
		Checkouter: gitrepo.NewService(logger),
		Logger:     logger,
	}
	if effective.tokens {
		counter, encodingName, counterError := tokenizer.NewCounter(tokenizer.Config{Model: effective.model})
		if counterError != nil {
			return counterError
		}
		logger.Debug(logMessageTokenizer, zap.String(logFieldModel, encodingName))
		dependencies.TokenCounter = counter
	}
	ingester := ingest.NewIngester(dependencies)

	digest, ingestError := ingestTarget(ctx, env, logger, ingester, basePath, effective)
	if ingestError != nil {
		return ingestError
	}

	report := output.Report{Source: basePath, Timestamp: env.now(), Digest: digest}
	consoleReport, renderError := output.Render(report, effective.format, effective.verbose)
	if renderError != nil {
		return renderError
	}
	if _, printError := fmt.Fprintln(env.stdout, consoleReport); printError != nil {
		return printError
	}

	if effective.output == "" && !effective.clipboard {
		return nil
	}
	fullReport, fullRenderError := output.Render(report, effective.format, true)
	if fullRenderError != nil {
		return fullRenderError
	}
	if effective.output != "" {
		outputPath := effective.output
		if !filepath.IsAbs(outputPath) {
			outputPath = filepath.Join(workingDirectory, outputPath)
		}
		if writeError := afero.WriteFile(env.fileSystem, outputPath, []byte(fullReport), 0o644); writeError != nil {
			return fmt.Errorf(errorWriteReportFormat, outputPath, writeError)
		}
		logger.Info(logMessageReportWritten, zap.String(logFieldPath, outputPath), zap.String(logFieldSize, utils.FormatFileSize(int64(len(fullReport)))))
	}
	if effective.clipboard && env.copier != nil {
		if copyError := env.copier.Copy(fullReport); copyError != nil {
			logger.Warn(logMessageClipboardFailed, zap.Error(copyError))
		} else {
			logger.Info(logMessageCopied)
		}
	}
	return nil
}

// ingestTarget digests basePath, or only the files reachable from the graph entry when one is set.
func ingestTarget(ctx context.Context, env environment, logger *zap.Logger, ingester *ingest.Ingester, basePath string, effective settings) (*types.Digest, error) {
	if effective.graphEntry == "" {
		return ingester.IngestDirectory(ctx, basePath, effective.ingestOptions)
	}

	if prepareError := ingester.Prepare(ctx, basePath, effective.ingestOptions); prepareError != nil {
		return nil, prepareError
	}
	entryPath := effective.graphEntry
	if !filepath.IsAbs(entryPath) {
		entryPath = filepath.Join(basePath, entryPath)
	}
	files, collectError := graph.NewDefaultCollector(env.fileSystem, logger).Collect(ctx, entryPath, 0)
	if collectError != nil {
		if errors.Is(collectError, context.Canceled) {
			return nil, collectError
		}
		return nil, fmt.Errorf(errorCollectGraphFormat, entryPath, collectError)
	}
	return ingester.IngestFiles(basePath, files, effective.ingestOptions)
}
