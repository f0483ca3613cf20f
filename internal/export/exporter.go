// Package export turns the page currently loaded in a browser into a file.
//
// Formats live in sub-packages and register themselves from init(), the same
// way the CLI blank-imports them:
//
//	import _ "wxdl/internal/export/markdown"
package export

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"wxdl/internal/browser"
	"wxdl/internal/config"
)

// UntitledArticle is the file name used when neither a title nor a URL segment is available.
const UntitledArticle = "未命名文章"

// ErrEmptyContent is returned instead of writing a zero-byte file.
var ErrEmptyContent = errors.New("exported content is empty")

// Job describes one export. Filename is optional; when empty the exporter
// derives it from the page.
type Job struct {
	TargetURL string
	OutputDir string
	Format    string
	Filename  string
}

// Exporter writes the loaded page in one format and returns the absolute path written.
type Exporter interface {
	Export(page browser.Page, job Job) (string, error)
	Extension() string
}

// scrollJS scrolls to the bottom in fixed steps so lazily loaded content renders.
// The step grows on long pages so the scroll finishes within maxTicks intervals.
const scrollJS = `(step, interval, maxTicks) => new Promise((resolve) => {
	const height = document.body.scrollHeight;
	const stride = Math.max(step, Math.ceil(height / maxTicks));
	let scrolled = 0;
	const timer = setInterval(() => {
		window.scrollBy(0, stride);
		scrolled += stride;
		if (scrolled >= height) {
			clearInterval(timer);
			resolve(scrolled);
		}
	}, interval);
})`

// DefaultScrollBudget bounds how long Prepare may scroll.
const DefaultScrollBudget = 30 * time.Second

// Prepare forces lazy content to render. Every format runs it before reading the page.
// Scrolling takes at most cfg.ScrollBudget regardless of page height.
func Prepare(page browser.Page, cfg config.Export) error {
	step := cfg.ScrollStep
	if step <= 0 {
		step = 150
	}
	interval := cfg.ScrollInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	budget := cfg.ScrollBudget
	if budget <= 0 {
		budget = DefaultScrollBudget
	}
	maxTicks := max(int(budget/interval), 1)

	if _, err := page.Eval(scrollJS, step, interval.Milliseconds(), maxTicks); err != nil {
		return fmt.Errorf("failed to scroll page: %w", err)
	}
	return nil
}

var illegalChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeFilename replaces characters illegal in file names with '_'.
func SanitizeFilename(name string) string {
	return illegalChars.Replace(name)
}

// SafeName sanitizes name for use as a single path element. Names that are
// empty or made only of dots would resolve to the parent or current directory
// and are replaced by fallback.
func SafeName(name, fallback string) string {
	name = strings.TrimSpace(SanitizeFilename(name))
	if strings.Trim(name, ".") == "" {
		return fallback
	}
	return name
}

// TitleFromURL returns the last path segment of rawURL up to its first dot.
func TitleFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	seg := path.Base(strings.TrimRight(p, "/"))
	if seg == "." || seg == "/" {
		seg = ""
	}
	seg, _, _ = strings.Cut(seg, ".")
	if strings.TrimSpace(seg) == "" {
		return UntitledArticle
	}
	return seg
}

// ResolveFilename returns job.Filename when set, otherwise the page title
// element text, otherwise a name derived from the page URL.
func ResolveFilename(page browser.Page, job Job, titleSelector, ext string) string {
	if job.Filename != "" {
		return SanitizeFilename(job.Filename)
	}
	if title := pageTitle(page, titleSelector); title != "" {
		return SanitizeFilename(title) + ext
	}
	return SanitizeFilename(TitleFromURL(currentURL(page, job.TargetURL))) + ext
}

// CollectionFilename names a collection member: the page title when present,
// otherwise "<collection> - <url title>".
func CollectionFilename(page browser.Page, collection, targetURL, titleSelector, ext string) string {
	if title := pageTitle(page, titleSelector); title != "" {
		return SanitizeFilename(title) + ext
	}
	name := collection + " - " + TitleFromURL(currentURL(page, targetURL))
	return SanitizeFilename(name) + ext
}

func pageTitle(page browser.Page, selector string) string {
	if selector == "" {
		return ""
	}
	el, ok, err := page.Has(selector)
	if err != nil || !ok {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func currentURL(page browser.Page, fallback string) string {
	if u := page.URL(); u != "" {
		return u
	}
	return fallback
}

// WriteFile writes data to dir/name, creating dir when needed, and returns the absolute path.
func WriteFile(dir, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyContent
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	p, err := filepath.Abs(filepath.Join(dir, SafeName(name, UntitledArticle)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve output path: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}
	return p, nil
}
