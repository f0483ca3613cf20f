// Package browser owns the headless browser process and the single page the
// crawler and exporters drive.
package browser

import (
	"log/slog"
	"time"

	"github.com/ysmood/gson"
)

const (
	DefaultNavigationTimeout = 60 * time.Second
	DefaultEvalTimeout       = 60 * time.Second
)

// Page is the document surface used by the crawler and the exporters.
// Implementations are not safe for concurrent use.
type Page interface {
	Navigate(url string, timeout time.Duration) error
	URL() string
	Eval(js string, args ...any) (gson.JSON, error)
	HTML() (string, error)
	Has(selector string) (Element, bool, error)
	HasText(selector, pattern string) (Element, bool, error)
	Elements(selector string) ([]Element, error)
	WaitElement(selector string, timeout time.Duration) error
	WaitElementText(selector, pattern string, timeout time.Duration) error
	PDF() ([]byte, error)
}

// Element is a handle to a node in the current document.
type Element interface {
	Text() (string, error)
	// Attribute reports ok=false when the attribute is absent.
	Attribute(name string) (value string, ok bool, err error)
	InnerHTML() (string, error)
	Click() error
	Has(selector string) (Element, bool, error)
}

// Session is a Page that owns its browser process.
type Session interface {
	Page
	Close() error
}

// Opener starts a new Session.
type Opener func() (Session, error)

// NewOpener returns an Opener launching a Browser with cfg.
func NewOpener(cfg Config, logger *slog.Logger) Opener {
	return func() (Session, error) {
		return Open(cfg, logger)
	}
}
