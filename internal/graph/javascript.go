//go:build cgo

package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/spf13/afero"
)

const (
	javaScriptImportStatementType = "import_statement"
	javaScriptExportStatementType = "export_statement"
	javaScriptCallExpressionType  = "call_expression"
	javaScriptStringType          = "string"
	javaScriptSourceField         = "source"
	javaScriptFunctionField       = "function"
	javaScriptArgumentsField      = "arguments"
	javaScriptRequireIdentifier   = "require"
	javaScriptDynamicImportType   = "import"
	javaScriptIndexBaseName       = "index"
	javaScriptQuoteCharacters     = "'\"`"
)

var javaScriptResolutionExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// JavaScriptResolver follows relative import, export-from, require and dynamic import
// specifiers of JavaScript and TypeScript sources.
type JavaScriptResolver struct {
	fileSystem afero.Fs
}

// NewJavaScriptResolver creates a JavaScriptResolver reading sources from fileSystem.
func NewJavaScriptResolver(fileSystem afero.Fs) Resolver {
	return &JavaScriptResolver{fileSystem: fileSystem}
}

func languageForExtension(extension string) *sitter.Language {
	switch extension {
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascript.GetLanguage()
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	}
	return nil
}

// Supports reports whether path is a JavaScript or TypeScript source file.
func (resolver *JavaScriptResolver) Supports(path string) bool {
	return languageForExtension(strings.ToLower(filepath.Ext(path))) != nil
}

// Imports returns the project files that the relative specifiers of path resolve to.
func (resolver *JavaScriptResolver) Imports(sourcePath string) ([]string, error) {
	content, readError := afero.ReadFile(resolver.fileSystem, sourcePath)
	if readError != nil {
		return nil, fmt.Errorf("read javascript source %s: %w", sourcePath, readError)
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(languageForExtension(strings.ToLower(filepath.Ext(sourcePath))))
	tree, parseError := parser.ParseCtx(context.Background(), nil, content)
	if parseError != nil {
		return nil, fmt.Errorf("parse javascript source %s: %w", sourcePath, parseError)
	}
	defer tree.Close()

	var resolved []string
	for _, specifier := range collectJavaScriptSpecifiers(tree.RootNode(), content) {
		if !strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../") {
			continue
		}
		target := filepath.Join(filepath.Dir(sourcePath), filepath.FromSlash(specifier))
		if candidate, found := resolver.resolveSpecifier(target); found {
			resolved = append(resolved, candidate)
		}
	}
	return resolved, nil
}

func collectJavaScriptSpecifiers(root *sitter.Node, content []byte) []string {
	var specifiers []string
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		switch node.Type() {
		case javaScriptImportStatementType, javaScriptExportStatementType:
			if sourceNode := node.ChildByFieldName(javaScriptSourceField); sourceNode != nil {
				specifiers = append(specifiers, stringLiteralValue(sourceNode, content))
			}
		case javaScriptCallExpressionType:
			functionNode := node.ChildByFieldName(javaScriptFunctionField)
			argumentsNode := node.ChildByFieldName(javaScriptArgumentsField)
			if functionNode != nil && argumentsNode != nil && argumentsNode.NamedChildCount() > 0 {
				callee := functionNode.Type()
				if callee == javaScriptDynamicImportType || functionNode.Content(content) == javaScriptRequireIdentifier {
					if firstArgument := argumentsNode.NamedChild(0); firstArgument.Type() == javaScriptStringType {
						specifiers = append(specifiers, stringLiteralValue(firstArgument, content))
					}
				}
			}
		}
		for index := 0; index < int(node.ChildCount()); index++ {
			walk(node.Child(index))
		}
	}
	walk(root)
	return specifiers
}

func stringLiteralValue(node *sitter.Node, content []byte) string {
	return strings.Trim(strings.TrimSpace(node.Content(content)), javaScriptQuoteCharacters)
}

// resolveSpecifier applies the usual bundler lookup: the exact file, the file with a
// known extension, then an index file inside the directory.
func (resolver *JavaScriptResolver) resolveSpecifier(target string) (string, bool) {
	if fileExists(resolver.fileSystem, target) {
		return target, true
	}
	for _, extension := range javaScriptResolutionExtensions {
		if candidate := target + extension; fileExists(resolver.fileSystem, candidate) {
			return candidate, true
		}
	}
	for _, extension := range javaScriptResolutionExtensions {
		if candidate := filepath.Join(target, javaScriptIndexBaseName+extension); fileExists(resolver.fileSystem, candidate) {
			return candidate, true
		}
	}
	return "", false
}
