// Package utils contains general helper functions used across the digest tool.
package utils

import (
	"strings"
)

// File and directory name constants used across the project.
const (
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// ConfigFileName is the name of the configuration file looked up in the working directory.
	ConfigFileName = ".digest.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home that holds the global configuration.
	GlobalConfigDirectoryName = ".digest"
	// GlobalConfigFileName is the configuration file inside GlobalConfigDirectoryName.
	GlobalConfigFileName = "config.yaml"
	// DotenvFileName is the environment file read from the working directory.
	DotenvFileName = ".env"
	// EnvironmentPrefix prefixes environment variables that override configuration.
	EnvironmentPrefix = "DIGEST"
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// SplitPathSegments splits a slash separated relative path into its non-empty segments.
func SplitPathSegments(relativePath string) []string {
	normalizedPath := strings.ReplaceAll(relativePath, "\\", "/")
	rawSegments := strings.Split(normalizedPath, "/")
	segments := make([]string, 0, len(rawSegments))
	for _, segment := range rawSegments {
		if segment == "" || segment == "." {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

// SplitCommaSeparated expands every value on commas, trimming whitespace and dropping empties.
func SplitCommaSeparated(values []string) []string {
	var result []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			trimmedPart := strings.TrimSpace(part)
			if trimmedPart == "" {
				continue
			}
			result = append(result, trimmedPart)
		}
	}
	return result
}
