// Package clipboard copies rendered reports to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnsupported reports a platform without a usable clipboard utility.
var ErrUnsupported = errors.New("clipboard is not available on this system")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	unsupported bool
	writeAll    func(string) error
}

// NewService returns a Service bound to the system clipboard.
func NewService() *Service {
	return &Service{unsupported: clipboard.Unsupported, writeAll: clipboard.WriteAll}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if service.unsupported {
		return ErrUnsupported
	}
	if err := service.writeAll(text); err != nil {
		return fmt.Errorf("copy %d bytes to clipboard: %w", len(text), err)
	}
	return nil
}

var _ Copier = (*Service)(nil)
