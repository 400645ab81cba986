package graph

import (
	"fmt"
	"go/parser"
	"go/token"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/mod/modfile"
)

const (
	goFileExtension     = ".go"
	goTestFileSuffix    = "_test.go"
	goModuleFileName    = "go.mod"
	goModulePathMissing = "go.mod at %s declares no module path"
)

// GoResolver follows imports of packages that belong to the entry's own module.
// A Go package is a directory, so every non-test file of an imported package and
// of the importing package itself is reachable.
type GoResolver struct {
	fileSystem afero.Fs
	modules    map[string]goModule
}

type goModule struct {
	rootDirectory string
	modulePath    string
}

// NewGoResolver creates a GoResolver reading sources from fileSystem.
func NewGoResolver(fileSystem afero.Fs) *GoResolver {
	return &GoResolver{fileSystem: fileSystem, modules: map[string]goModule{}}
}

// Supports reports whether path is a Go source file.
func (resolver *GoResolver) Supports(path string) bool {
	return filepath.Ext(path) == goFileExtension
}

// Imports returns the sibling files of path and the files of every module-local package it imports.
func (resolver *GoResolver) Imports(sourcePath string) ([]string, error) {
	content, readError := afero.ReadFile(resolver.fileSystem, sourcePath)
	if readError != nil {
		return nil, fmt.Errorf("read go source %s: %w", sourcePath, readError)
	}
	parsedFile, parseError := parser.ParseFile(token.NewFileSet(), sourcePath, content, parser.ImportsOnly)
	if parseError != nil {
		return nil, fmt.Errorf("parse go imports %s: %w", sourcePath, parseError)
	}

	imported, packageError := resolver.packageFiles(filepath.Dir(sourcePath))
	if packageError != nil {
		return nil, packageError
	}
	module, moduleFound, moduleError := resolver.moduleFor(filepath.Dir(sourcePath))
	if moduleError != nil {
		return nil, moduleError
	}
	if !moduleFound {
		return imported, nil
	}

	for _, importSpec := range parsedFile.Imports {
		importPath, unquoteError := strconv.Unquote(importSpec.Path.Value)
		if unquoteError != nil {
			continue
		}
		relativeImport, local := moduleRelativePath(module.modulePath, importPath)
		if !local {
			continue
		}
		packageDirectory := filepath.Join(module.rootDirectory, filepath.FromSlash(relativeImport))
		files, filesError := resolver.packageFiles(packageDirectory)
		if filesError != nil {
			continue
		}
		imported = append(imported, files...)
	}
	return imported, nil
}

func moduleRelativePath(modulePath string, importPath string) (string, bool) {
	if importPath == modulePath {
		return "", true
	}
	relative, found := strings.CutPrefix(importPath, modulePath+"/")
	if !found {
		return "", false
	}
	return path.Clean(relative), true
}

func (resolver *GoResolver) packageFiles(directory string) ([]string, error) {
	entries, readError := afero.ReadDir(resolver.fileSystem, directory)
	if readError != nil {
		return nil, fmt.Errorf("list go package %s: %w", directory, readError)
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != goFileExtension || strings.HasSuffix(name, goTestFileSuffix) {
			continue
		}
		files = append(files, filepath.Join(directory, name))
	}
	return files, nil
}

// moduleFor finds the nearest go.mod at or above directory.
func (resolver *GoResolver) moduleFor(directory string) (goModule, bool, error) {
	current := directory
	var visited []string
	for {
		if module, cached := resolver.modules[current]; cached {
			return module, module.modulePath != "", nil
		}
		visited = append(visited, current)
		goModPath := filepath.Join(current, goModuleFileName)
		if fileExists(resolver.fileSystem, goModPath) {
			module, parseError := resolver.parseModule(goModPath)
			if parseError != nil {
				return goModule{}, false, parseError
			}
			for _, visitedDirectory := range visited {
				resolver.modules[visitedDirectory] = module
			}
			return module, true, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			for _, visitedDirectory := range visited {
				resolver.modules[visitedDirectory] = goModule{}
			}
			return goModule{}, false, nil
		}
		current = parent
	}
}

func (resolver *GoResolver) parseModule(goModPath string) (goModule, error) {
	content, readError := afero.ReadFile(resolver.fileSystem, goModPath)
	if readError != nil {
		return goModule{}, fmt.Errorf("read %s: %w", goModPath, readError)
	}
	modFile, parseError := modfile.ParseLax(goModPath, content, nil)
	if parseError != nil {
		return goModule{}, fmt.Errorf("parse %s: %w", goModPath, parseError)
	}
	if modFile.Module == nil || modFile.Module.Mod.Path == "" {
		return goModule{}, fmt.Errorf(goModulePathMissing, goModPath)
	}
	return goModule{rootDirectory: filepath.Dir(goModPath), modulePath: modFile.Module.Mod.Path}, nil
}
