package output_test

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/temirov/digest/internal/output"
	"github.com/temirov/digest/internal/types"
)

func sampleReport() output.Report {
	root := types.NewDirectoryNode("project", "/project", nil)
	root.Children = append(root.Children, types.NewFileNode("a.txt", "/project/a.txt", 5, root))
	root.Size = 5
	root.FileCount = 1
	return output.Report{
		Source:    "/project",
		Timestamp: time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC),
		Digest: &types.Digest{
			Root:    root,
			Files:   []types.FileContent{{Path: "/project/a.txt", Content: "banner\nalpha", Size: 5}},
			Tree:    "└── project/\n    └── a.txt\n",
			Content: "banner\nalpha\n\n",
			Summary: "Analyzing: /project\nFiles analyzed: 1",
			Stats:   types.ScanStats{TotalFiles: 1, TotalSize: 5},
		},
	}
}

func TestRenderMarkdown(testingInstance *testing.T) {
	report := sampleReport()
	testCases := []struct {
		testName        string
		includeContent  bool
		expectedContent bool
	}{
		{testName: "with content", includeContent: true, expectedContent: true},
		{testName: "without content", includeContent: false, expectedContent: false},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.testName, func(subTest *testing.T) {
			rendered := output.RenderMarkdown(report, testCase.includeContent)
			for _, expected := range []string{
				"# Digest",
				"**Source**: `/project`",
				"**Timestamp**: 2024-03-01 12:30:00 UTC",
				"## Summary\n\nAnalyzing: /project\nFiles analyzed: 1",
				"## Directory Structure\n\n```\n└── project/\n    └── a.txt\n```",
			} {
				if !strings.Contains(rendered, expected) {
					subTest.Fatalf("expected %q in\n%s", expected, rendered)
				}
			}
			if strings.Contains(rendered, "## Files Content") != testCase.expectedContent {
				subTest.Fatalf("unexpected content section presence in\n%s", rendered)
			}
		})
	}
}

func TestRenderJSON(testingInstance *testing.T) {
	rendered, renderErr := output.Render(sampleReport(), output.FormatJSON, true)
	if renderErr != nil {
		testingInstance.Fatalf("render json: %v", renderErr)
	}
	var decoded struct {
		Source    string `json:"source"`
		Timestamp string `json:"timestamp"`
		Root      struct {
			Name     string `json:"name"`
			Children []struct {
				Name string `json:"name"`
			} `json:"children"`
		} `json:"root"`
		Files []types.FileContent `json:"files"`
	}
	if err := json.Unmarshal([]byte(rendered), &decoded); err != nil {
		testingInstance.Fatalf("decode rendered json: %v", err)
	}
	if decoded.Source != "/project" || decoded.Timestamp != "2024-03-01T12:30:00Z" {
		testingInstance.Fatalf("unexpected header %+v", decoded)
	}
	if decoded.Root.Name != "project" || len(decoded.Root.Children) != 1 || decoded.Root.Children[0].Name != "a.txt" {
		testingInstance.Fatalf("unexpected root %+v", decoded.Root)
	}
	if len(decoded.Files) != 1 || decoded.Files[0].Size != 5 {
		testingInstance.Fatalf("unexpected files %+v", decoded.Files)
	}

	withoutContent, _ := output.RenderJSON(sampleReport(), false)
	if strings.Contains(withoutContent, "\"files\"") {
		testingInstance.Fatalf("expected files to be omitted:\n%s", withoutContent)
	}
}

func TestRenderXML(testingInstance *testing.T) {
	rendered, renderErr := output.Render(sampleReport(), "XML", true)
	if renderErr != nil {
		testingInstance.Fatalf("render xml: %v", renderErr)
	}
	if !strings.HasPrefix(rendered, xml.Header) {
		testingInstance.Fatalf("expected xml header, got %q", rendered)
	}
	if !strings.Contains(rendered, `<file path="/project/a.txt" size="5"><![CDATA[banner`) {
		testingInstance.Fatalf("expected file element in\n%s", rendered)
	}
	var decoded struct {
		XMLName xml.Name `xml:"digest"`
		Source  string   `xml:"source,attr"`
		Files   []struct {
			Path    string `xml:"path,attr"`
			Content string `xml:",chardata"`
		} `xml:"files>file"`
	}
	if err := xml.Unmarshal([]byte(rendered), &decoded); err != nil {
		testingInstance.Fatalf("decode rendered xml: %v", err)
	}
	if decoded.Source != "/project" || len(decoded.Files) != 1 || decoded.Files[0].Content != "banner\nalpha" {
		testingInstance.Fatalf("unexpected document %+v", decoded)
	}
}

func TestRenderRejectsUnknownInput(testingInstance *testing.T) {
	if _, err := output.Render(sampleReport(), "yaml", false); err == nil {
		testingInstance.Fatalf("expected unsupported format error")
	}
	if _, err := output.Render(output.Report{}, output.FormatMarkdown, false); err == nil {
		testingInstance.Fatalf("expected nil digest error")
	}
	if output.IsSupportedFormat("yaml") || !output.IsSupportedFormat(" Markdown ") {
		testingInstance.Fatalf("unexpected format support result")
	}
}
