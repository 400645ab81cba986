package ingest_test

import (
	"strings"
	"testing"

	"github.com/temirov/digest/internal/ingest"
	"github.com/temirov/digest/internal/types"
)

func TestFormatEntry(testingInstance *testing.T) {
	expected := "================================\nFile: src/a.ts\n================================\nbody"
	if actual := ingest.FormatEntry("src/a.ts", "body"); actual != expected {
		testingInstance.Fatalf("expected %q, got %q", expected, actual)
	}
}

func TestFileTooLargePlaceholder(testingInstance *testing.T) {
	expected := "[File too large to display: 20971520 bytes (20.00 MB - too large)]"
	if actual := ingest.FileTooLargePlaceholder(20 * 1024 * 1024); actual != expected {
		testingInstance.Fatalf("expected %q, got %q", expected, actual)
	}
}

func TestGatherFiles(testingInstance *testing.T) {
	fileSystem := newMemoryProject(testingInstance, map[string]string{
		"a.txt":       "alpha",
		"dir/big.bin": strings.Repeat("x", 32),
		"dir/bad.txt": "ok\xffok",
	})
	root := types.NewDirectoryNode("project", testRootDirectory, nil)
	builder := ingest.NewTreeBuilder(root)
	builder.AddFile("a.txt", "/project/a.txt", 5)
	builder.AddFile("dir/big.bin", "/project/dir/big.bin", 32)
	builder.AddFile("dir/bad.txt", "/project/dir/bad.txt", 6)
	builder.AddFile("dir/gone.txt", "/project/dir/gone.txt", 3)
	builder.AddFile("again/a.txt", "/project/a.txt", 5)

	assembler := ingest.NewAssembler(fileSystem, 16, testRootDirectory, nil)
	files := assembler.GatherFiles(root)
	if len(files) != 4 {
		testingInstance.Fatalf("expected 4 unique entries, got %d", len(files))
	}

	testCases := []struct {
		testName       string
		index          int
		expectedPath   string
		expectedPrefix string
		expectedBody   string
	}{
		{testName: "readable file", index: 0, expectedPath: "/project/a.txt", expectedPrefix: ingest.FormatEntry("a.txt", ""), expectedBody: "alpha"},
		{testName: "oversized file", index: 1, expectedPath: "/project/dir/big.bin", expectedPrefix: ingest.FormatEntry("dir/big.bin", ""), expectedBody: "[File too large to display: 32 bytes (0.00 MB - too large)]"},
		{testName: "invalid utf8", index: 2, expectedPath: "/project/dir/bad.txt", expectedPrefix: ingest.FormatEntry("dir/bad.txt", ""), expectedBody: "ok\uFFFDok"},
		{testName: "unreadable file", index: 3, expectedPath: "/project/dir/gone.txt", expectedPrefix: ingest.FormatEntry("dir/gone.txt", ""), expectedBody: "[Error reading file: "},
	}
	for _, testCase := range testCases {
		testingInstance.Run(testCase.testName, func(subTest *testing.T) {
			entry := files[testCase.index]
			if entry.Path != testCase.expectedPath {
				subTest.Fatalf("expected path %s, got %s", testCase.expectedPath, entry.Path)
			}
			if !strings.HasPrefix(entry.Content, testCase.expectedPrefix) {
				subTest.Fatalf("expected banner %q in %q", testCase.expectedPrefix, entry.Content)
			}
			if body := strings.TrimPrefix(entry.Content, testCase.expectedPrefix); !strings.HasPrefix(body, testCase.expectedBody) {
				subTest.Fatalf("expected body starting with %q, got %q", testCase.expectedBody, body)
			}
		})
	}
	if files[1].Size != 32 {
		testingInstance.Fatalf("expected recorded size 32, got %d", files[1].Size)
	}
}

func TestDisplayName(testingInstance *testing.T) {
	relativeAssembler := ingest.NewAssembler(nil, ingest.DefaultMaxFileSize, testRootDirectory, nil)
	if actual := relativeAssembler.DisplayName("/project/src/a.ts"); actual != "src/a.ts" {
		testingInstance.Fatalf("expected src/a.ts, got %s", actual)
	}
	if actual := relativeAssembler.DisplayName("/elsewhere/b.ts"); actual != "/elsewhere/b.ts" {
		testingInstance.Fatalf("expected absolute path outside the base, got %s", actual)
	}
	absoluteAssembler := ingest.NewAssembler(nil, ingest.DefaultMaxFileSize, "", nil)
	if actual := absoluteAssembler.DisplayName("/project/src/a.ts"); actual != "/project/src/a.ts" {
		testingInstance.Fatalf("expected absolute path, got %s", actual)
	}
}

func TestBuildContentString(testingInstance *testing.T) {
	files := []types.FileContent{
		{Path: "/project/a", Content: ingest.FormatEntry("a", "1")},
		{Path: "/project/b", Content: ingest.FormatEntry("b", "2")},
	}
	expected := ingest.FormatEntry("a", "1") + "\n\n" + ingest.FormatEntry("b", "2") + "\n\n"
	if actual := ingest.BuildContentString(files); actual != expected {
		testingInstance.Fatalf("expected %q, got %q", expected, actual)
	}
	if actual := ingest.BuildContentString(nil); actual != "" {
		testingInstance.Fatalf("expected empty content, got %q", actual)
	}
}

func TestGatherFilesReplacesEachInvalidByte(testingInstance *testing.T) {
	fileSystem := newMemoryProject(testingInstance, map[string]string{"run.txt": "a\xff\xfeb\xc3"})
	root := types.NewDirectoryNode("project", testRootDirectory, nil)
	ingest.NewTreeBuilder(root).AddFile("run.txt", "/project/run.txt", 5)

	files := ingest.NewAssembler(fileSystem, ingest.DefaultMaxFileSize, testRootDirectory, nil).GatherFiles(root)
	if len(files) != 1 {
		testingInstance.Fatalf("expected 1 entry, got %d", len(files))
	}
	expected := ingest.FormatEntry("run.txt", "a\uFFFD\uFFFDb\uFFFD")
	if files[0].Content != expected {
		testingInstance.Fatalf("expected %q, got %q", expected, files[0].Content)
	}
}

func TestGatherFilesDeduplicatesAbsolutePaths(testingInstance *testing.T) {
	fileSystem := newMemoryProject(testingInstance, map[string]string{"a.txt": "alpha"})
	root := types.NewDirectoryNode("project", testRootDirectory, nil)
	builder := ingest.NewTreeBuilder(root)
	builder.AddFile("first/a.txt", "/project/a.txt", 5)
	builder.AddFile("second/a.txt", "/project/a.txt", 5)
	if len(root.Children) != 2 {
		testingInstance.Fatalf("expected both tree nodes, got %d children", len(root.Children))
	}

	files := ingest.NewAssembler(fileSystem, ingest.DefaultMaxFileSize, "", nil).GatherFiles(root)
	if len(files) != 1 {
		testingInstance.Fatalf("expected one entry for a repeated absolute path, got %d", len(files))
	}
	if files[0].Path != "/project/a.txt" || files[0].Content != ingest.FormatEntry("/project/a.txt", "alpha") {
		testingInstance.Fatalf("unexpected entry %+v", files[0])
	}
	if ingest.BuildContentString(files) != ingest.FormatEntry("/project/a.txt", "alpha")+"\n\n" {
		testingInstance.Fatalf("expected the repeated file once in the content string")
	}
}
