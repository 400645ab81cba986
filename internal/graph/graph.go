// Package graph follows local source imports from an entry file and reports every
// reachable file of the project.
package graph

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/digest/internal/utils"
)

// ErrUnsupportedEntry indicates that no registered resolver understands the entry file.
var ErrUnsupportedEntry = errors.New("graph: unsupported entry file")

const (
	logFieldPath  = "path"
	logFieldCount = "count"

	unresolvedImportsMessage = "skipping unreadable import source"
	reachableFilesMessage    = "import graph collected"
)

// Resolver lists the project-local files a source file imports.
type Resolver interface {
	Supports(path string) bool
	Imports(path string) ([]string, error)
}

// Collector walks the import graph through the first resolver that supports each file.
type Collector struct {
	fileSystem afero.Fs
	resolvers  []Resolver
	logger     *zap.Logger
}

// NewCollector creates a Collector for the provided resolvers. Nil resolvers are skipped.
func NewCollector(fileSystem afero.Fs, logger *zap.Logger, resolvers ...Resolver) *Collector {
	filteredResolvers := make([]Resolver, 0, len(resolvers))
	for _, resolver := range resolvers {
		if resolver != nil {
			filteredResolvers = append(filteredResolvers, resolver)
		}
	}
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Collector{
		fileSystem: fileSystem,
		resolvers:  filteredResolvers,
		logger:     utils.LoggerOrNop(logger),
	}
}

// NewDefaultCollector registers the Go resolver and, when available, the JavaScript resolver.
func NewDefaultCollector(fileSystem afero.Fs, logger *zap.Logger) *Collector {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return NewCollector(fileSystem, logger, NewGoResolver(fileSystem), NewJavaScriptResolver(fileSystem))
}

// Collect returns the absolute paths reachable from entry in breadth-first discovery
// order, entry first. A maximumDepth of zero or less means unbounded.
func (collector *Collector) Collect(ctx context.Context, entry string, maximumDepth int) ([]string, error) {
	absoluteEntry, absoluteError := filepath.Abs(entry)
	if absoluteError != nil {
		return nil, fmt.Errorf("resolve entry %s: %w", entry, absoluteError)
	}
	entryInfo, statError := collector.fileSystem.Stat(absoluteEntry)
	if statError != nil {
		return nil, fmt.Errorf("stat entry %s: %w", absoluteEntry, statError)
	}
	if entryInfo.IsDir() || collector.resolverFor(absoluteEntry) == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEntry, absoluteEntry)
	}

	visited := map[string]struct{}{absoluteEntry: {}}
	collected := []string{absoluteEntry}
	frontier := []string{absoluteEntry}
	for depth := 0; len(frontier) > 0 && (maximumDepth <= 0 || depth < maximumDepth); depth++ {
		var next []string
		for _, current := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			resolver := collector.resolverFor(current)
			if resolver == nil {
				continue
			}
			imports, importsError := resolver.Imports(current)
			if importsError != nil {
				collector.logger.Debug(unresolvedImportsMessage, zap.String(logFieldPath, current), zap.Error(importsError))
				continue
			}
			for _, imported := range imports {
				if _, seen := visited[imported]; seen {
					continue
				}
				visited[imported] = struct{}{}
				collected = append(collected, imported)
				next = append(next, imported)
			}
		}
		frontier = next
	}
	collector.logger.Debug(reachableFilesMessage, zap.String(logFieldPath, absoluteEntry), zap.Int(logFieldCount, len(collected)))
	return collected, nil
}

func (collector *Collector) resolverFor(path string) Resolver {
	for _, resolver := range collector.resolvers {
		if resolver.Supports(path) {
			return resolver
		}
	}
	return nil
}

func fileExists(fileSystem afero.Fs, path string) bool {
	info, statError := fileSystem.Stat(path)
	return statError == nil && !info.IsDir()
}
