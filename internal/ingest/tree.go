package ingest

import (
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/temirov/digest/internal/types"
	"github.com/temirov/digest/internal/utils"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
	treeDirectorySuffix = "/"
	treeLineTerminator  = "\n"
)

// TreeBuilder attaches files to a root directory node, creating intermediate
// directories on demand and keeping directory sizes aggregated.
type TreeBuilder struct {
	root *types.TreeNode
}

// NewTreeBuilder returns a TreeBuilder that grows root.
func NewTreeBuilder(root *types.TreeNode) *TreeBuilder {
	return &TreeBuilder{root: root}
}

// Root returns the node the builder grows.
func (builder *TreeBuilder) Root() *types.TreeNode {
	return builder.root
}

// AddFile adds a file leaf at relativePath below the root. Intermediate directories are
// matched by name among existing children and created when missing. The file's size is
// added to its directory and to every ancestor up to the root.
func (builder *TreeBuilder) AddFile(relativePath string, absolutePath string, size int64) *types.TreeNode {
	segments := utils.SplitPathSegments(relativePath)
	if len(segments) == 0 {
		return nil
	}

	currentNode := builder.root
	for _, segment := range segments[:len(segments)-1] {
		childNode := currentNode.FindDirectory(segment)
		if childNode == nil {
			childNode = types.NewDirectoryNode(segment, filepath.Join(currentNode.Path, segment), currentNode)
			currentNode.Children = append(currentNode.Children, childNode)
			currentNode.DirCount++
		}
		currentNode = childNode
	}

	fileNode := types.NewFileNode(segments[len(segments)-1], absolutePath, size, currentNode)
	currentNode.Children = append(currentNode.Children, fileNode)
	currentNode.FileCount++
	for ancestor := currentNode; ancestor != nil; ancestor = ancestor.Parent() {
		ancestor.Size += size
	}
	return fileNode
}

// SortTree orders the children of every directory by name using locale-aware collation.
// Files and directories are interleaved in a single ordering.
func SortTree(node *types.TreeNode) {
	if node == nil {
		return
	}
	sortTreeWithCollator(node, collate.New(language.Und))
}

func sortTreeWithCollator(node *types.TreeNode, collator *collate.Collator) {
	if len(node.Children) == 0 {
		return
	}
	sort.SliceStable(node.Children, func(left, right int) bool {
		return collator.CompareString(node.Children[left].Name, node.Children[right].Name) < 0
	})
	for _, childNode := range node.Children {
		if childNode.IsDirectory() {
			sortTreeWithCollator(childNode, collator)
		}
	}
}

// CreateTree renders node and its descendants as an indented listing. Directories carry
// a trailing slash; children are rendered in their current order.
func CreateTree(node *types.TreeNode, prefix string, isLast bool) string {
	var builder strings.Builder
	writeTree(&builder, node, prefix, isLast)
	return builder.String()
}

// RenderTree renders a whole tree starting at its root.
func RenderTree(root *types.TreeNode) string {
	if root == nil {
		return ""
	}
	return CreateTree(root, "", true)
}

func writeTree(builder *strings.Builder, node *types.TreeNode, prefix string, isLast bool) {
	connector := treeBranchConnector
	childPrefix := prefix + treeBranchPadding
	if isLast {
		connector = treeLastConnector
		childPrefix = prefix + treeLastPadding
	}
	builder.WriteString(prefix)
	builder.WriteString(connector)
	builder.WriteString(node.Name)
	if node.IsDirectory() {
		builder.WriteString(treeDirectorySuffix)
	}
	builder.WriteString(treeLineTerminator)

	if !node.IsDirectory() {
		return
	}
	for childIndex, childNode := range node.Children {
		writeTree(builder, childNode, childPrefix, childIndex == len(node.Children)-1)
	}
}
