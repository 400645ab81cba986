// Package types defines every cross‑package data structure used by the digest CLI.
package types

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
)

// TreeNode represents a file or a directory of a scanned tree.
type TreeNode struct {
	Name      string      `json:"name"`
	Path      string      `json:"path"`
	Type      string      `json:"type"`
	Size      int64       `json:"size"`
	Children  []*TreeNode `json:"children,omitempty"`
	FileCount int         `json:"fileCount"`
	DirCount  int         `json:"dirCount"`

	// parent is a non-owning back-reference used only to propagate sizes upward.
	parent *TreeNode
}

// NewDirectoryNode returns an empty directory node attached to parent.
func NewDirectoryNode(name string, path string, parent *TreeNode) *TreeNode {
	return &TreeNode{
		Name:     name,
		Path:     path,
		Type:     NodeTypeDirectory,
		Children: []*TreeNode{},
		parent:   parent,
	}
}

// NewFileNode returns a file leaf attached to parent.
func NewFileNode(name string, path string, size int64, parent *TreeNode) *TreeNode {
	return &TreeNode{
		Name:   name,
		Path:   path,
		Type:   NodeTypeFile,
		Size:   size,
		parent: parent,
	}
}

// Parent returns the directory that contains the node, or nil for a root.
func (node *TreeNode) Parent() *TreeNode {
	return node.parent
}

// IsDirectory reports whether the node is a directory.
func (node *TreeNode) IsDirectory() bool {
	return node.Type == NodeTypeDirectory
}

// FindDirectory returns the first child directory named name.
func (node *TreeNode) FindDirectory(name string) *TreeNode {
	for _, child := range node.Children {
		if child.Type == NodeTypeDirectory && child.Name == name {
			return child
		}
	}
	return nil
}

// ScanStats accumulates counters across a single scan. It is owned by the
// caller and mutated only by the sequential file-processing stage.
type ScanStats struct {
	TotalFiles int
	TotalSize  int64
}

// Limits bounds a scan.
type Limits struct {
	MaxDepth     int
	MaxFiles     int
	MaxTotalSize int64
	MaxFileSize  int64
}

// FileContent is one banner-wrapped entry of the digest.
type FileContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// Digest is the result of ingesting a directory.
type Digest struct {
	Root    *TreeNode     `json:"root"`
	Files   []FileContent `json:"files"`
	Tree    string        `json:"tree"`
	Content string        `json:"content"`
	Summary string        `json:"summary"`
	Stats   ScanStats     `json:"stats"`
	Tokens  int           `json:"tokens,omitempty"`
}

// ValidatedPath is an absolute input path that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
	IsDir        bool
}
