//go:build !cgo

package graph

import "github.com/spf13/afero"

// NewJavaScriptResolver returns nil when cgo is unavailable; the collector then
// skips JavaScript and TypeScript entries.
func NewJavaScriptResolver(fileSystem afero.Fs) Resolver {
	return nil
}
