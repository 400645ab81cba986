package clipboard

import (
	"errors"
	"testing"
)

func TestServiceCopy(t *testing.T) {
	writeFailure := errors.New("xclip missing")
	testCases := []struct {
		name          string
		service       *Service
		expectedError error
	}{
		{
			name:    "writes_text",
			service: &Service{writeAll: func(string) error { return nil }},
		},
		{
			name:          "unsupported_platform",
			service:       &Service{unsupported: true, writeAll: func(string) error { return nil }},
			expectedError: ErrUnsupported,
		},
		{
			name:          "wraps_write_failure",
			service:       &Service{writeAll: func(string) error { return writeFailure }},
			expectedError: writeFailure,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := testCase.service.Copy("report")
			if testCase.expectedError == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, testCase.expectedError) {
				t.Fatalf("expected %v, got %v", testCase.expectedError, err)
			}
		})
	}
}
