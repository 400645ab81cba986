package graph_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

const testRootDirectory = "/project"

func newMemoryProject(testingInstance *testing.T, contents map[string]string) afero.Fs {
	testingInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	for relativePath, content := range contents {
		absolutePath := filepath.Join(testRootDirectory, filepath.FromSlash(relativePath))
		if mkdirError := fileSystem.MkdirAll(filepath.Dir(absolutePath), 0o755); mkdirError != nil {
			testingInstance.Fatalf("mkdir %s: %v", filepath.Dir(absolutePath), mkdirError)
		}
		if writeError := afero.WriteFile(fileSystem, absolutePath, []byte(content), 0o644); writeError != nil {
			testingInstance.Fatalf("write %s: %v", absolutePath, writeError)
		}
	}
	return fileSystem
}

func projectPaths(relativePaths ...string) []string {
	absolutePaths := make([]string, 0, len(relativePaths))
	for _, relativePath := range relativePaths {
		absolutePaths = append(absolutePaths, filepath.Join(testRootDirectory, filepath.FromSlash(relativePath)))
	}
	return absolutePaths
}
