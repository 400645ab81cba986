package ingest_test

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/temirov/digest/internal/types"
)

const testRootDirectory = "/project"

// writeMemoryFiles creates every file of contents below rootDirectory in an in-memory filesystem.
func writeMemoryFiles(testingInstance *testing.T, fileSystem afero.Fs, rootDirectory string, contents map[string]string) {
	testingInstance.Helper()
	if mkdirError := fileSystem.MkdirAll(rootDirectory, 0o755); mkdirError != nil {
		testingInstance.Fatalf("mkdir %s: %v", rootDirectory, mkdirError)
	}
	for relativePath, content := range contents {
		absolutePath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
		if mkdirError := fileSystem.MkdirAll(filepath.Dir(absolutePath), 0o755); mkdirError != nil {
			testingInstance.Fatalf("mkdir %s: %v", filepath.Dir(absolutePath), mkdirError)
		}
		if writeError := afero.WriteFile(fileSystem, absolutePath, []byte(content), 0o644); writeError != nil {
			testingInstance.Fatalf("write %s: %v", absolutePath, writeError)
		}
	}
}

// newMemoryProject returns an in-memory filesystem holding contents below testRootDirectory.
func newMemoryProject(testingInstance *testing.T, contents map[string]string) afero.Fs {
	testingInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	writeMemoryFiles(testingInstance, fileSystem, testRootDirectory, contents)
	return fileSystem
}

// collectFileNodes returns every file leaf below node in pre-order.
func collectFileNodes(node *types.TreeNode) []*types.TreeNode {
	if node == nil {
		return nil
	}
	if !node.IsDirectory() {
		return []*types.TreeNode{node}
	}
	var fileNodes []*types.TreeNode
	for _, childNode := range node.Children {
		fileNodes = append(fileNodes, collectFileNodes(childNode)...)
	}
	return fileNodes
}

// relativeFilePaths returns the sorted slash separated paths of every file leaf relative to rootDirectory.
func relativeFilePaths(testingInstance *testing.T, node *types.TreeNode, rootDirectory string) []string {
	testingInstance.Helper()
	var relativePaths []string
	for _, fileNode := range collectFileNodes(node) {
		relativePath, relativeError := filepath.Rel(rootDirectory, fileNode.Path)
		if relativeError != nil {
			testingInstance.Fatalf("relative path for %s: %v", fileNode.Path, relativeError)
		}
		relativePaths = append(relativePaths, filepath.ToSlash(relativePath))
	}
	sort.Strings(relativePaths)
	return relativePaths
}

// openRecordingFs records every path opened through it.
type openRecordingFs struct {
	afero.Fs

	mutex       sync.Mutex
	openedPaths []string
}

func (fileSystem *openRecordingFs) Open(name string) (afero.File, error) {
	fileSystem.recordOpen(name)
	return fileSystem.Fs.Open(name)
}

func (fileSystem *openRecordingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	fileSystem.recordOpen(name)
	return fileSystem.Fs.OpenFile(name, flag, perm)
}

func (fileSystem *openRecordingFs) recordOpen(name string) {
	fileSystem.mutex.Lock()
	defer fileSystem.mutex.Unlock()
	fileSystem.openedPaths = append(fileSystem.openedPaths, name)
}

func (fileSystem *openRecordingFs) wasOpened(name string) bool {
	fileSystem.mutex.Lock()
	defer fileSystem.mutex.Unlock()
	for _, openedPath := range fileSystem.openedPaths {
		if openedPath == name {
			return true
		}
	}
	return false
}
