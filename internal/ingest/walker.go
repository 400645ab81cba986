package ingest

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/digest/internal/types"
	"github.com/temirov/digest/internal/utils"
)

const (
	logMessageMaxDepthReached     = "max depth reached"
	logMessageBudgetExhausted     = "max files/size reached"
	logMessageEnumerationFailed   = "skipping unreadable path"
	logMessageEnumeratedFiles     = "enumerated files"
	logMessageFileProcessingError = "error processing file"
	logFieldDirectory             = "directory"
	logFieldPath                  = "path"
	logFieldFiles                 = "files"
	logFieldTotalFiles            = "total_files"
	logFieldTotalSize             = "total_size"
)

// WalkerConfig configures a Walker.
type WalkerConfig struct {
	FileSystem   afero.Fs
	Patterns     ResolvedPatterns
	Limits       types.Limits
	FindTerms    []string
	RequireTerms []string
	Filter       *ContentFilter
	Logger       *zap.Logger
}

// Walker enumerates a directory under resolved patterns and builds a bounded tree of its files.
type Walker struct {
	fileSystem   afero.Fs
	patterns     ResolvedPatterns
	limits       types.Limits
	findTerms    []string
	requireTerms []string
	filter       *ContentFilter
	logger       *zap.Logger
}

// NewWalker returns a Walker. A missing filesystem defaults to the OS filesystem
// and a missing filter is created over the same filesystem.
func NewWalker(config WalkerConfig) *Walker {
	fileSystem := config.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	logger := utils.LoggerOrNop(config.Logger)
	filter := config.Filter
	if filter == nil {
		filter = NewContentFilter(fileSystem, 0, logger)
	}
	return &Walker{
		fileSystem:   fileSystem,
		patterns:     config.Patterns,
		limits:       config.Limits,
		findTerms:    config.FindTerms,
		requireTerms: config.RequireTerms,
		filter:       filter,
		logger:       logger,
	}
}

// ScanDirectory builds the tree of files under directoryPath. It returns nil when the
// depth cap is exceeded, when directoryPath is not a directory, when stats already
// exhausts the budget, or when no file survives enumeration and filtering.
// Counters in stats are advanced for every processed file.
func (walker *Walker) ScanDirectory(ctx context.Context, directoryPath string, depth int, stats *types.ScanStats) *types.TreeNode {
	if depth > walker.limits.MaxDepth {
		walker.logger.Debug(logMessageMaxDepthReached, zap.String(logFieldDirectory, directoryPath))
		return nil
	}
	directoryInfo, statError := lstatIfPossible(walker.fileSystem, directoryPath)
	if statError != nil || !directoryInfo.IsDir() {
		return nil
	}
	if walker.budgetExhausted(stats, true) {
		walker.logger.Debug(logMessageBudgetExhausted,
			zap.Int(logFieldTotalFiles, stats.TotalFiles),
			zap.Int64(logFieldTotalSize, stats.TotalSize))
		return nil
	}

	files := walker.enumerateFiles(directoryPath, depth)
	if len(walker.findTerms) > 0 || len(walker.requireTerms) > 0 {
		files = walker.filter.Filter(ctx, files, walker.findTerms, walker.requireTerms)
	}
	walker.logger.Debug(logMessageEnumeratedFiles, zap.Strings(logFieldFiles, files))
	if len(files) == 0 {
		return nil
	}

	rootNode := types.NewDirectoryNode(filepath.Base(directoryPath), directoryPath, nil)
	builder := NewTreeBuilder(rootNode)
	for _, filePath := range files {
		fileInfo, fileStatError := lstatIfPossible(walker.fileSystem, filePath)
		if fileStatError != nil {
			walker.logger.Debug(logMessageFileProcessingError, zap.String(logFieldPath, filePath), zap.Error(fileStatError))
			continue
		}
		stats.TotalFiles++
		stats.TotalSize += fileInfo.Size()
		if walker.budgetExhausted(stats, false) {
			walker.logger.Debug(logMessageBudgetExhausted,
				zap.Int(logFieldTotalFiles, stats.TotalFiles),
				zap.Int64(logFieldTotalSize, stats.TotalSize))
			break
		}
		relativePath, relativeError := filepath.Rel(directoryPath, filePath)
		if relativeError != nil {
			walker.logger.Debug(logMessageFileProcessingError, zap.String(logFieldPath, filePath), zap.Error(relativeError))
			continue
		}
		builder.AddFile(relativePath, filePath, fileInfo.Size())
	}
	rootNode.FileCount = stats.TotalFiles

	if len(rootNode.Children) == 0 {
		return nil
	}
	return rootNode
}

// enumerateFiles lists, in lexical order, the absolute paths of regular files under
// directoryPath that are included and not ignored. Symbolic links are never followed,
// ignored directories and directories beyond the depth cap are not descended into.
func (walker *Walker) enumerateFiles(directoryPath string, depth int) []string {
	var files []string
	_ = afero.Walk(walker.fileSystem, directoryPath, func(currentPath string, info os.FileInfo, walkError error) error {
		if walkError != nil || info == nil {
			walker.logger.Debug(logMessageEnumerationFailed, zap.String(logFieldPath, currentPath), zap.Error(walkError))
			return nil
		}
		relativePath, relativeError := filepath.Rel(directoryPath, currentPath)
		if relativeError != nil || relativePath == "." {
			return nil
		}
		relativePath = filepath.ToSlash(relativePath)
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if info.IsDir() {
			if walker.patterns.Ignores(relativePath, true) {
				return filepath.SkipDir
			}
			if depth+len(utils.SplitPathSegments(relativePath)) > walker.limits.MaxDepth {
				walker.logger.Debug(logMessageMaxDepthReached, zap.String(logFieldDirectory, currentPath))
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if walker.patterns.Ignores(relativePath, false) || !walker.patterns.Includes(relativePath) {
			return nil
		}
		files = append(files, currentPath)
		return nil
	})
	return files
}

// budgetExhausted reports whether stats reached (inclusive) or passed (exclusive) the limits.
func (walker *Walker) budgetExhausted(stats *types.ScanStats, inclusive bool) bool {
	if inclusive {
		return stats.TotalFiles >= walker.limits.MaxFiles || stats.TotalSize >= walker.limits.MaxTotalSize
	}
	return stats.TotalFiles > walker.limits.MaxFiles || stats.TotalSize > walker.limits.MaxTotalSize
}

// lstatIfPossible describes a path without following a trailing symbolic link when the
// filesystem supports it.
func lstatIfPossible(fileSystem afero.Fs, path string) (os.FileInfo, error) {
	if lstater, ok := fileSystem.(afero.Lstater); ok {
		info, _, lstatError := lstater.LstatIfPossible(path)
		return info, lstatError
	}
	return fileSystem.Stat(path)
}
