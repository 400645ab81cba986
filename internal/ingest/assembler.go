package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	textunicode "golang.org/x/text/encoding/unicode"

	"github.com/temirov/digest/internal/types"
	"github.com/temirov/digest/internal/utils"
)

const (
	// BannerDivider frames the name line of every digest entry.
	BannerDivider = "================================"
	// EntryFormat wraps an entry body with its banner.
	EntryFormat = BannerDivider + "\nFile: %s\n" + BannerDivider + "\n%s"
	// EntrySeparator follows every entry in the content string.
	EntrySeparator = "\n\n"
	// FileTooLargeFormat replaces the body of files above the size guard.
	FileTooLargeFormat = "[File too large to display: %d bytes (%.2f MB - too large)]"
	// ReadErrorFormat replaces the body of files that cannot be read.
	ReadErrorFormat = "[Error reading file: %s]"

	invalidUTF8Replacement = "\uFFFD"

	logMessageSkippingDuplicate = "skipping duplicate file"
	logMessageFileTooLarge      = "file too large"
	logMessageAssemblyReadError = "error reading file"
	logMessageGatheredFiles     = "total files gathered"
	logFieldSize                = "size"
	logFieldMaxSize             = "max_size"
)

// Assembler reads the files of a tree into banner-wrapped digest entries.
type Assembler struct {
	fileSystem  afero.Fs
	maxFileSize int64
	basePath    string
	logger      *zap.Logger
}

// NewAssembler returns an Assembler. Entry names are made relative to basePath when it
// is not empty; files larger than maxFileSize are replaced by a placeholder.
func NewAssembler(fileSystem afero.Fs, maxFileSize int64, basePath string, logger *zap.Logger) *Assembler {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Assembler{
		fileSystem:  fileSystem,
		maxFileSize: maxFileSize,
		basePath:    basePath,
		logger:      utils.LoggerOrNop(logger),
	}
}

// GatherFiles visits root depth first in pre-order and returns one entry per unique file path.
func (assembler *Assembler) GatherFiles(root *types.TreeNode) []types.FileContent {
	var files []types.FileContent
	seenPaths := make(map[string]struct{})

	var visit func(node *types.TreeNode)
	visit = func(node *types.TreeNode) {
		if node == nil {
			return
		}
		if !node.IsDirectory() {
			if _, seen := seenPaths[node.Path]; seen {
				assembler.logger.Debug(logMessageSkippingDuplicate, zap.String(logFieldPath, node.Path))
				return
			}
			seenPaths[node.Path] = struct{}{}
			files = append(files, types.FileContent{
				Path:    node.Path,
				Content: FormatEntry(assembler.DisplayName(node.Path), assembler.readBody(node.Path)),
				Size:    node.Size,
			})
			return
		}
		for _, childNode := range node.Children {
			visit(childNode)
		}
	}
	visit(root)

	assembler.logger.Debug(logMessageGatheredFiles, zap.Int(logFieldCount, len(files)))
	return files
}

// DisplayName returns the name printed in an entry banner for filePath.
func (assembler *Assembler) DisplayName(filePath string) string {
	if assembler.basePath == "" {
		return filePath
	}
	relativePath, relativeError := filepath.Rel(assembler.basePath, filePath)
	if relativeError != nil || strings.HasPrefix(relativePath, "..") {
		return filePath
	}
	return filepath.ToSlash(relativePath)
}

// readBody returns the UTF-8 text of filePath, or a placeholder when the file is too large
// or unreadable. Every invalid byte is replaced by its own U+FFFD.
func (assembler *Assembler) readBody(filePath string) string {
	fileInfo, statError := assembler.fileSystem.Stat(filePath)
	if statError != nil {
		assembler.logger.Debug(logMessageAssemblyReadError, zap.String(logFieldPath, filePath), zap.Error(statError))
		return fmt.Sprintf(ReadErrorFormat, statError.Error())
	}
	if fileInfo.Size() > assembler.maxFileSize {
		assembler.logger.Debug(logMessageFileTooLarge,
			zap.String(logFieldPath, filePath),
			zap.Int64(logFieldSize, fileInfo.Size()),
			zap.Int64(logFieldMaxSize, assembler.maxFileSize))
		return FileTooLargePlaceholder(fileInfo.Size())
	}
	contentBytes, readError := afero.ReadFile(assembler.fileSystem, filePath)
	if readError != nil {
		assembler.logger.Debug(logMessageAssemblyReadError, zap.String(logFieldPath, filePath), zap.Error(readError))
		return fmt.Sprintf(ReadErrorFormat, readError.Error())
	}
	decoded, decodeError := textunicode.UTF8.NewDecoder().String(string(contentBytes))
	if decodeError != nil {
		return strings.ToValidUTF8(string(contentBytes), invalidUTF8Replacement)
	}
	return decoded
}

// FileTooLargePlaceholder returns the body substituted for a file of sizeBytes above the guard.
func FileTooLargePlaceholder(sizeBytes int64) string {
	return fmt.Sprintf(FileTooLargeFormat, sizeBytes, float64(sizeBytes)/float64(utils.Megabyte))
}

// FormatEntry wraps body with the banner naming name.
func FormatEntry(name string, body string) string {
	return fmt.Sprintf(EntryFormat, name, body)
}

// BuildContentString concatenates entries in order, each followed by a blank line.
func BuildContentString(files []types.FileContent) string {
	var builder strings.Builder
	for _, file := range files {
		builder.WriteString(file.Content)
		builder.WriteString(EntrySeparator)
	}
	return builder.String()
}
