// Package output renders an ingested digest as a markdown, JSON or XML report.
package output

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/digest/internal/types"
)

// Supported report formats.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatXML      = "xml"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	// TimestampLayout formats the report timestamp.
	TimestampLayout = "2006-01-02 15:04:05 MST"

	markdownHeader           = "# Digest"
	markdownSourceFormat     = "**Source**: `%s`"
	markdownTimestampFormat  = "**Timestamp**: %s"
	markdownSummaryHeader    = "## Summary"
	markdownStructureHeader  = "## Directory Structure"
	markdownContentHeader    = "## Files Content"
	markdownFence            = "```"
	markdownSectionSeparator = "\n\n"

	xmlRootElement = "digest"
)

// Report is a digest together with where and when it was produced.
type Report struct {
	Source    string
	Timestamp time.Time
	Digest    *types.Digest
}

// Render returns report in format. File contents are included only when includeContent is set.
func Render(report Report, format string, includeContent bool) (string, error) {
	if report.Digest == nil {
		return "", fmt.Errorf("render %s report: nil digest", format)
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatMarkdown:
		return RenderMarkdown(report, includeContent), nil
	case FormatJSON:
		return RenderJSON(report, includeContent)
	case FormatXML:
		return RenderXML(report, includeContent)
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

// IsSupportedFormat reports whether format names a known report format.
func IsSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMarkdown, FormatJSON, FormatXML:
		return true
	}
	return false
}

// RenderMarkdown renders the report sections separated by blank lines. The tree and the
// content are fenced.
func RenderMarkdown(report Report, includeContent bool) string {
	sections := []string{
		markdownHeader,
		fmt.Sprintf(markdownSourceFormat, report.Source),
		fmt.Sprintf(markdownTimestampFormat, report.Timestamp.Format(TimestampLayout)),
		markdownSummaryHeader,
		report.Digest.Summary,
		markdownStructureHeader,
		fenced(report.Digest.Tree),
	}
	if includeContent {
		sections = append(sections,
			markdownContentHeader,
			fenced(report.Digest.Content),
		)
	}
	return strings.Join(sections, markdownSectionSeparator)
}

func fenced(block string) string {
	return markdownFence + "\n" + strings.TrimRight(block, "\n") + "\n" + markdownFence
}

type jsonReport struct {
	Source    string              `json:"source"`
	Timestamp string              `json:"timestamp"`
	Summary   string              `json:"summary"`
	Tree      string              `json:"tree"`
	Root      *types.TreeNode     `json:"root"`
	Stats     types.ScanStats     `json:"stats"`
	Tokens    int                 `json:"tokens,omitempty"`
	Files     []types.FileContent `json:"files,omitempty"`
}

// RenderJSON marshals the report as an indented JSON object.
func RenderJSON(report Report, includeContent bool) (string, error) {
	document := jsonReport{
		Source:    report.Source,
		Timestamp: report.Timestamp.Format(time.RFC3339),
		Summary:   report.Digest.Summary,
		Tree:      report.Digest.Tree,
		Root:      report.Digest.Root,
		Stats:     report.Digest.Stats,
		Tokens:    report.Digest.Tokens,
	}
	if includeContent {
		document.Files = report.Digest.Files
	}
	encoded, jsonEncodeError := json.MarshalIndent(document, indentPrefix, indentSpacer)
	if jsonEncodeError != nil {
		return "", jsonEncodeError
	}
	return string(encoded), nil
}

type xmlFile struct {
	Path    string `xml:"path,attr"`
	Size    int64  `xml:"size,attr"`
	Content string `xml:",cdata"`
}

type xmlReport struct {
	XMLName   xml.Name  `xml:""`
	Source    string    `xml:"source,attr"`
	Timestamp string    `xml:"timestamp,attr"`
	Summary   string    `xml:"summary"`
	Tree      string    `xml:"tree"`
	Files     []xmlFile `xml:"files>file,omitempty"`
}

// RenderXML marshals the report as an XML document. Entry contents are CDATA sections.
func RenderXML(report Report, includeContent bool) (string, error) {
	document := xmlReport{
		XMLName:   xml.Name{Local: xmlRootElement},
		Source:    report.Source,
		Timestamp: report.Timestamp.Format(time.RFC3339),
		Summary:   report.Digest.Summary,
		Tree:      report.Digest.Tree,
	}
	if includeContent {
		for _, file := range report.Digest.Files {
			document.Files = append(document.Files, xmlFile{Path: file.Path, Size: file.Size, Content: file.Content})
		}
	}
	encoded, xmlMarshalError := xml.MarshalIndent(document, indentPrefix, indentSpacer)
	if xmlMarshalError != nil {
		return "", xmlMarshalError
	}
	return xml.Header + string(encoded), nil
}
