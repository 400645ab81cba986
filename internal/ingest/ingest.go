// Package ingest turns a directory into a digest: a rendered tree plus the
// banner-wrapped contents of every selected file.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/digest/internal/types"
	"github.com/temirov/digest/internal/utils"
)

// Default bounds of a scan.
const (
	DefaultMaxDepth     = 20
	DefaultMaxFiles     = 10000
	DefaultMaxTotalSize = 500 * utils.Megabyte
	DefaultMaxFileSize  = 10 * utils.Megabyte
)

const (
	summaryAnalyzingFormat     = "Analyzing: %s"
	summaryIncludingFormat     = "Including patterns: %s"
	summaryMaxFileSizeFormat   = "Max file size: %dKB"
	summarySkippingArtifacts   = "Skipping build artifacts and generated files"
	summaryBranchFormat        = "Branch: %s"
	summaryCommitFormat        = "Commit: %s"
	summaryFilesAnalyzedFormat = "Files analyzed: %d"
	summaryTokensFormat        = "Estimated tokens: %d"
	summaryPatternSeparator    = ", "
	summaryLineSeparator       = "\n"

	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	errorStatRootFormat     = "%s: %w"
	errorCheckoutFormat     = "checking out %s: %w"
	errorCountTokensFormat  = "counting tokens: %w"

	logMessageResolvedPatterns = "resolved patterns"
	logFieldInclude            = "include"
	logFieldIgnore             = "ignore"
)

var (
	// ErrNoFilesFound reports a scan that matched no files.
	ErrNoFilesFound = errors.New("no files found or directory is empty after scanning")
	// ErrNotDirectory reports a root path that is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrCheckoutUnavailable reports a branch or commit request without a checkout collaborator.
	ErrCheckoutUnavailable = errors.New("branch or commit requested but no checkout is configured")
)

// Options controls one ingestion.
type Options struct {
	Include       []string
	Exclude       []string
	Find          []string
	Require       []string
	MaxFileSize   int64
	SkipArtifacts bool
	UseGitignore  bool
	Sort          bool
	Branch        string
	Commit        string
	Limits        types.Limits
}

// DefaultOptions returns options with gitignore honoring on and the default bounds.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:  DefaultMaxFileSize,
		UseGitignore: true,
		Limits:       DefaultLimits(),
	}
}

// DefaultLimits returns the default scan bounds.
func DefaultLimits() types.Limits {
	return types.Limits{
		MaxDepth:     DefaultMaxDepth,
		MaxFiles:     DefaultMaxFiles,
		MaxTotalSize: DefaultMaxTotalSize,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

func (options Options) withDefaults() Options {
	defaults := DefaultLimits()
	if options.MaxFileSize <= 0 {
		options.MaxFileSize = DefaultMaxFileSize
	}
	if options.Limits.MaxDepth <= 0 {
		options.Limits.MaxDepth = defaults.MaxDepth
	}
	if options.Limits.MaxFiles <= 0 {
		options.Limits.MaxFiles = defaults.MaxFiles
	}
	if options.Limits.MaxTotalSize <= 0 {
		options.Limits.MaxTotalSize = defaults.MaxTotalSize
	}
	options.Limits.MaxFileSize = options.MaxFileSize
	return options
}

// Checkouter prepares a repository working tree before it is scanned.
type Checkouter interface {
	Checkout(ctx context.Context, repositoryPath string, branch string, commit string) error
}

// TokenCounter estimates the token count of the assembled content.
type TokenCounter interface {
	CountString(input string) (int, error)
}

// Dependencies are the collaborators of an Ingester. Only FileSystem is defaulted.
type Dependencies struct {
	FileSystem   afero.Fs
	Checkouter   Checkouter
	TokenCounter TokenCounter
	Logger       *zap.Logger
}

// Ingester runs the scan, filter, build and assemble pipeline.
type Ingester struct {
	fileSystem   afero.Fs
	checkouter   Checkouter
	tokenCounter TokenCounter
	logger       *zap.Logger
}

// NewIngester returns an Ingester over dependencies.
func NewIngester(dependencies Dependencies) *Ingester {
	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Ingester{
		fileSystem:   fileSystem,
		checkouter:   dependencies.Checkouter,
		tokenCounter: dependencies.TokenCounter,
		logger:       utils.LoggerOrNop(dependencies.Logger),
	}
}

// IngestDirectory digests basePath. A requested branch or commit is checked out first.
// It fails with ErrNotDirectory when basePath is not a directory and with ErrNoFilesFound
// when nothing survives scanning.
func (ingester *Ingester) IngestDirectory(ctx context.Context, basePath string, options Options) (*types.Digest, error) {
	options = options.withDefaults()
	absoluteBasePath, rootError := ingester.validateRoot(basePath)
	if rootError != nil {
		return nil, rootError
	}

	if checkoutError := ingester.Prepare(ctx, absoluteBasePath, options); checkoutError != nil {
		return nil, checkoutError
	}

	patterns := ResolvePatterns(ingester.fileSystem, absoluteBasePath, PatternOptions{
		Include:       options.Include,
		Exclude:       options.Exclude,
		UseGitignore:  options.UseGitignore,
		SkipArtifacts: options.SkipArtifacts,
	})
	ingester.logger.Debug(logMessageResolvedPatterns, zap.Strings(logFieldInclude, patterns.Include), zap.Strings(logFieldIgnore, patterns.Ignore))

	walker := NewWalker(WalkerConfig{
		FileSystem:   ingester.fileSystem,
		Patterns:     patterns,
		Limits:       options.Limits,
		FindTerms:    options.Find,
		RequireTerms: options.Require,
		Filter:       NewContentFilter(ingester.fileSystem, 0, ingester.logger),
		Logger:       ingester.logger,
	})
	stats := &types.ScanStats{}
	root := walker.ScanDirectory(ctx, absoluteBasePath, 0, stats)
	if root == nil {
		return nil, ErrNoFilesFound
	}

	return ingester.assemble(absoluteBasePath, root, *stats, options)
}

// Prepare checks out the branch or commit requested by options in basePath. It is a
// no-op when neither is set.
func (ingester *Ingester) Prepare(ctx context.Context, basePath string, options Options) error {
	if options.Branch == "" && options.Commit == "" {
		return nil
	}
	if ingester.checkouter == nil {
		return ErrCheckoutUnavailable
	}
	if checkoutError := ingester.checkouter.Checkout(ctx, basePath, options.Branch, options.Commit); checkoutError != nil {
		return fmt.Errorf(errorCheckoutFormat, basePath, checkoutError)
	}
	return nil
}

// IngestFiles digests an explicit list of files below root, bypassing pattern resolution
// and the walker. Files outside root, directories and unreadable paths are skipped.
// Callers needing a checkout run Prepare first.
func (ingester *Ingester) IngestFiles(root string, files []string, options Options) (*types.Digest, error) {
	options = options.withDefaults()
	absoluteRoot, rootError := ingester.validateRoot(root)
	if rootError != nil {
		return nil, rootError
	}

	rootNode := types.NewDirectoryNode(filepath.Base(absoluteRoot), absoluteRoot, nil)
	builder := NewTreeBuilder(rootNode)
	stats := types.ScanStats{}
	for _, filePath := range utils.DeduplicatePatterns(files) {
		relativePath, relativeError := filepath.Rel(absoluteRoot, filePath)
		if relativeError != nil || strings.HasPrefix(relativePath, "..") {
			continue
		}
		fileInfo, statError := lstatIfPossible(ingester.fileSystem, filePath)
		if statError != nil || fileInfo.IsDir() {
			continue
		}
		stats.TotalFiles++
		stats.TotalSize += fileInfo.Size()
		builder.AddFile(relativePath, filePath, fileInfo.Size())
	}
	rootNode.FileCount = stats.TotalFiles
	if len(rootNode.Children) == 0 {
		return nil, ErrNoFilesFound
	}

	return ingester.assemble(absoluteRoot, rootNode, stats, options)
}

func (ingester *Ingester) validateRoot(basePath string) (string, error) {
	absoluteBasePath, absoluteError := filepath.Abs(basePath)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, basePath, absoluteError)
	}
	rootInfo, statError := lstatIfPossible(ingester.fileSystem, absoluteBasePath)
	if statError != nil {
		return "", fmt.Errorf(errorStatRootFormat, absoluteBasePath, errors.Join(ErrNotDirectory, statError))
	}
	if !rootInfo.IsDir() {
		return "", fmt.Errorf(errorStatRootFormat, absoluteBasePath, ErrNotDirectory)
	}
	return absoluteBasePath, nil
}

func (ingester *Ingester) assemble(basePath string, root *types.TreeNode, stats types.ScanStats, options Options) (*types.Digest, error) {
	if options.Sort {
		SortTree(root)
	}

	assembler := NewAssembler(ingester.fileSystem, options.MaxFileSize, basePath, ingester.logger)
	files := assembler.GatherFiles(root)
	digest := &types.Digest{
		Root:    root,
		Files:   files,
		Tree:    RenderTree(root),
		Content: BuildContentString(files),
		Stats:   stats,
	}

	if ingester.tokenCounter != nil {
		tokenCount, countError := ingester.tokenCounter.CountString(digest.Tree + digest.Content)
		if countError != nil {
			return nil, fmt.Errorf(errorCountTokensFormat, countError)
		}
		digest.Tokens = tokenCount
	}

	digest.Summary = BuildSummary(basePath, options, len(files), digest.Tokens, ingester.tokenCounter != nil)
	return digest, nil
}

// BuildSummary renders the summary lines of a digest of fileCount files.
func BuildSummary(basePath string, options Options, fileCount int, tokenCount int, includeTokens bool) string {
	summaryLines := []string{fmt.Sprintf(summaryAnalyzingFormat, basePath)}
	if len(options.Include) > 0 {
		summaryLines = append(summaryLines, fmt.Sprintf(summaryIncludingFormat, strings.Join(options.Include, summaryPatternSeparator)))
	}
	if options.MaxFileSize > 0 && options.MaxFileSize != DefaultMaxFileSize {
		summaryLines = append(summaryLines, fmt.Sprintf(summaryMaxFileSizeFormat, options.MaxFileSize/utils.Kilobyte))
	}
	if options.SkipArtifacts {
		summaryLines = append(summaryLines, summarySkippingArtifacts)
	}
	if options.Branch != "" {
		summaryLines = append(summaryLines, fmt.Sprintf(summaryBranchFormat, options.Branch))
	}
	if options.Commit != "" {
		summaryLines = append(summaryLines, fmt.Sprintf(summaryCommitFormat, options.Commit))
	}
	summaryLines = append(summaryLines, fmt.Sprintf(summaryFilesAnalyzedFormat, fileCount))
	if includeTokens {
		summaryLines = append(summaryLines, fmt.Sprintf(summaryTokensFormat, tokenCount))
	}
	return strings.Join(summaryLines, summaryLineSeparator)
}
