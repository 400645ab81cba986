package utils

import (
	"runtime/debug"
	"testing"
)

func TestVersionFromBuildInfo(t *testing.T) {
	testCases := []struct {
		name      string
		buildInfo debug.BuildInfo
		expected  string
	}{
		{
			name:      "module version",
			buildInfo: debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}},
			expected:  "v1.2.3",
		},
		{
			name: "clean revision",
			buildInfo: debug.BuildInfo{
				Main:     debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef0123"}},
			},
			expected: "0123456789ab",
		},
		{
			name: "modified revision",
			buildInfo: debug.BuildInfo{
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}, {Key: "vcs.modified", Value: "true"}},
			},
			expected: "abc123-dirty",
		},
		{
			name:      "no information",
			buildInfo: debug.BuildInfo{Main: debug.Module{Version: "(devel)"}},
			expected:  "unknown",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if actual := versionFromBuildInfo(&testCase.buildInfo); actual != testCase.expected {
				t.Fatalf("expected %s, got %s", testCase.expected, actual)
			}
		})
	}
}
