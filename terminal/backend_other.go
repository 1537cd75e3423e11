//go:build !unix

package terminal

import "errors"

// errUnsupported is returned by Init on platforms without a raw-mode backend
var errUnsupported = errors.New("terminal: platform not supported")

type unsupportedBackend struct{}

func newBackend() Backend { return unsupportedBackend{} }

func (unsupportedBackend) Init() error                              { return errUnsupported }
func (unsupportedBackend) Fini()                                    {}
func (unsupportedBackend) Size() (int, int)                         { return 80, 24 }
func (unsupportedBackend) Write([]byte) error                       { return errUnsupported }
func (unsupportedBackend) Read(<-chan struct{}) ([]byte, error)     { return nil, errUnsupported }
func (unsupportedBackend) SetResizeHandler(func(width, height int)) {}
