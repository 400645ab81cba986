package ingest

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/digest/internal/utils"
)

const (
	logMessageFilteringFiles   = "filtering files with terms"
	logMessageMatchedByName    = "file matched by name"
	logMessageMatchedByContent = "file matched by content"
	logMessageFilterReadFailed = "error reading file"
	logMessageMatchingFiles    = "found matching files"
	logFieldFindTerms          = "find_terms"
	logFieldRequireTerms       = "require_terms"
	logFieldCount              = "count"
)

// ContentFilter narrows a file list by find (any term) and require (every term)
// substring matches against file names and contents.
type ContentFilter struct {
	fileSystem  afero.Fs
	concurrency int
	logger      *zap.Logger
}

// NewContentFilter returns a ContentFilter evaluating at most concurrency files at once.
// A non-positive concurrency uses GOMAXPROCS.
func NewContentFilter(fileSystem afero.Fs, concurrency int, logger *zap.Logger) *ContentFilter {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &ContentFilter{
		fileSystem:  fileSystem,
		concurrency: concurrency,
		logger:      utils.LoggerOrNop(logger),
	}
}

// NormalizeTerms splits comma separated terms, trims and lowercases them, and drops empties.
func NormalizeTerms(terms []string) []string {
	var normalized []string
	for _, term := range utils.SplitCommaSeparated(terms) {
		normalized = append(normalized, strings.ToLower(term))
	}
	return normalized
}

// Filter returns the files matching findTerms or requireTerms. A file whose lowercase
// base name contains a find term is accepted without being read. Otherwise its content
// must contain any find term, or every require term when require terms are present.
// Unreadable files are excluded. The input is returned unchanged when both term lists
// normalize to empty. Survivors keep their input order without duplicates; files not yet
// evaluated when ctx is cancelled are excluded.
func (filter *ContentFilter) Filter(ctx context.Context, files []string, findTerms []string, requireTerms []string) []string {
	orTerms := NormalizeTerms(findTerms)
	andTerms := NormalizeTerms(requireTerms)
	if len(orTerms) == 0 && len(andTerms) == 0 {
		return files
	}
	filter.logger.Debug(logMessageFilteringFiles, zap.Strings(logFieldFindTerms, orTerms), zap.Strings(logFieldRequireTerms, andTerms))

	matched := make([]bool, len(files))
	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(filter.concurrency)
	for fileIndex, filePath := range files {
		group.Go(func() error {
			if groupContext.Err() != nil {
				return nil
			}
			matched[fileIndex] = filter.matches(filePath, orTerms, andTerms)
			return nil
		})
	}
	_ = group.Wait()

	seenPaths := make(map[string]struct{}, len(files))
	var survivors []string
	for fileIndex, filePath := range files {
		if !matched[fileIndex] {
			continue
		}
		if _, seen := seenPaths[filePath]; seen {
			continue
		}
		seenPaths[filePath] = struct{}{}
		survivors = append(survivors, filePath)
	}
	filter.logger.Debug(logMessageMatchingFiles, zap.Int(logFieldCount, len(survivors)))
	return survivors
}

func (filter *ContentFilter) matches(filePath string, orTerms []string, andTerms []string) bool {
	fileName := strings.ToLower(filepath.Base(filePath))
	if containsAny(fileName, orTerms) {
		filter.logger.Debug(logMessageMatchedByName, zap.String(logFieldPath, filePath))
		return true
	}

	contentBytes, readError := afero.ReadFile(filter.fileSystem, filePath)
	if readError != nil {
		filter.logger.Debug(logMessageFilterReadFailed, zap.String(logFieldPath, filePath), zap.Error(readError))
		return false
	}
	content := strings.ToLower(string(contentBytes))
	if containsAny(content, orTerms) || (len(andTerms) > 0 && containsAll(content, andTerms)) {
		filter.logger.Debug(logMessageMatchedByContent, zap.String(logFieldPath, filePath))
		return true
	}
	return false
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func containsAll(text string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}
