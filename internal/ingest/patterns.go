package ingest

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"

	"github.com/temirov/digest/internal/utils"
)

// DefaultIgnorePatterns lists version control, dependency, build output and cache entries
// that are skipped unless gitignore honoring is disabled.
var DefaultIgnorePatterns = []string{
	"*.pyc",
	"*.pyo",
	"*.pyd",
	"__pycache__",
	".pytest_cache",
	".coverage",
	".tox",
	"node_modules",
	"bower_components",
	"dist",
	"build",
	"venv",
	".venv",
	".git",
}

// ArtifactPatterns lists lockfiles, bundles, media, archives, documents and databases
// skipped when build artifacts are excluded.
var ArtifactPatterns = []string{
	"package-lock.json",
	"pnpm-lock.yaml",
	"yarn.lock",
	"*.min.js",
	"*.bundle.js",
	"*.chunk.js",
	"*.map",
	"*.mp4",
	"*.mov",
	"*.avi",
	"*.mkv",
	"*.iso",
	"*.tar",
	"*.tar.gz",
	"*.zip",
	"*.rar",
	"*.7z",
	"*.sqlite",
	"*.db",
	"*.pdf",
	"*.docx",
	"*.xlsx",
	"*.pptx",
}

// defaultIncludePatterns selects every file, dotfiles included.
var defaultIncludePatterns = []string{"**/*", "**/.*"}

const (
	globMetaCharacter      = "*"
	patternPathSeparator   = "/"
	recursiveIncludeSuffix = "/**/*"
	gitignoreCommentPrefix = "#"
)

// PatternOptions are the caller supplied inputs of pattern resolution.
type PatternOptions struct {
	Include       []string
	Exclude       []string
	UseGitignore  bool
	SkipArtifacts bool
}

// ResolvedPatterns is the effective include and ignore set of one scan.
type ResolvedPatterns struct {
	Include []string
	Ignore  []string

	ignoreMatcher *ignore.GitIgnore
}

// ResolvePatterns merges defaults, the artifact list, the directory's .gitignore and
// caller overrides into one pattern set. A missing or unreadable .gitignore is treated as empty.
func ResolvePatterns(fileSystem afero.Fs, directoryPath string, options PatternOptions) ResolvedPatterns {
	includePatterns := make([]string, 0, len(options.Include))
	for _, pattern := range options.Include {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		includePatterns = append(includePatterns, ExpandIncludePattern(trimmedPattern))
	}
	if len(includePatterns) == 0 {
		includePatterns = append(includePatterns, defaultIncludePatterns...)
	}

	var ignorePatterns []string
	if options.UseGitignore {
		ignorePatterns = append(ignorePatterns, DefaultIgnorePatterns...)
		if options.SkipArtifacts {
			ignorePatterns = append(ignorePatterns, ArtifactPatterns...)
		}
		ignorePatterns = append(ignorePatterns, LoadGitignore(fileSystem, filepath.Join(directoryPath, utils.GitIgnoreFileName))...)
	}
	for _, pattern := range options.Exclude {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedPattern)
	}
	ignorePatterns = utils.DeduplicatePatterns(ignorePatterns)

	return ResolvedPatterns{
		Include:       utils.DeduplicatePatterns(includePatterns),
		Ignore:        ignorePatterns,
		ignoreMatcher: ignore.CompileIgnoreLines(ignorePatterns...),
	}
}

// ExpandIncludePattern turns a bare name into a recursive directory pattern.
// Patterns containing a glob metacharacter or a path separator are returned unchanged.
func ExpandIncludePattern(pattern string) string {
	if strings.Contains(pattern, globMetaCharacter) || strings.Contains(pattern, patternPathSeparator) {
		return pattern
	}
	return pattern + recursiveIncludeSuffix
}

// LoadGitignore reads a .gitignore file and returns its patterns.
// Read failures yield no patterns.
func LoadGitignore(fileSystem afero.Fs, gitignorePath string) []string {
	contentBytes, readError := afero.ReadFile(fileSystem, gitignorePath)
	if readError != nil {
		return nil
	}
	return ParseGitignore(string(contentBytes))
}

// ParseGitignore extracts patterns from gitignore content, dropping blank and comment lines.
func ParseGitignore(content string) []string {
	var patterns []string
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, gitignoreCommentPrefix) {
			continue
		}
		patterns = append(patterns, trimmedLine)
	}
	return patterns
}

// Includes reports whether a slash separated path relative to the scan root
// matches at least one include pattern.
func (patterns ResolvedPatterns) Includes(relativePath string) bool {
	for _, pattern := range patterns.Include {
		matched, matchError := doublestar.Match(pattern, relativePath)
		if matchError == nil && matched {
			return true
		}
	}
	return false
}

// Ignores reports whether a path relative to the scan root is excluded by the ignore set.
func (patterns ResolvedPatterns) Ignores(relativePath string, isDirectory bool) bool {
	if patterns.ignoreMatcher == nil {
		return false
	}
	if patterns.ignoreMatcher.MatchesPath(relativePath) {
		return true
	}
	return isDirectory && patterns.ignoreMatcher.MatchesPath(relativePath+patternPathSeparator)
}
