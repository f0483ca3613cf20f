// Package collection turns a collection (album) page into the ordered,
// deduplicated list of its articles.
//
// Two pagination styles exist on the site. Pages showing an "expand more"
// control are clicked open a bounded number of times and read once; all other
// pages lazily append items while scrolling and are read after every scroll.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"wxdl/internal/browser"
	"wxdl/internal/config"
)

const scrollToBottomJS = `() => window.scrollBy(0, document.body.scrollHeight)`

// Mode is the pagination style, decided once per crawl.
type Mode string

const (
	ModeExpand Mode = "expand"
	ModeScroll Mode = "scroll"
)

// Crawler crawls collection pages.
type Crawler struct {
	Selectors      config.Selectors
	NavTimeout     time.Duration
	ExpandAttempts int
	ExpandWait     time.Duration
	SettleDelay    time.Duration
	ListWait       time.Duration
	MaxScrolls     int
	MaxIdleScrolls int

	logger *slog.Logger
}

// NewCrawler builds a Crawler from the crawl settings.
func NewCrawler(cfg config.Crawl, navTimeout time.Duration, logger *slog.Logger) *Crawler {
	return &Crawler{
		Selectors:      cfg.Selectors,
		NavTimeout:     navTimeout,
		ExpandAttempts: cfg.ExpandAttempts,
		ExpandWait:     cfg.ExpandWait,
		SettleDelay:    cfg.SettleDelay,
		ListWait:       cfg.ListWait,
		MaxScrolls:     cfg.MaxScrolls,
		MaxIdleScrolls: cfg.MaxIdleScrolls,
		logger:         logger,
	}
}

// Crawl navigates page to url and collects every article of the collection.
// Navigation failure and a list container that never renders are fatal;
// a misbehaving expand control only ends expansion early.
func (c *Crawler) Crawl(ctx context.Context, page browser.Page, url string) (*Result, error) {
	c.logger.Info("loading collection page", "url", url)
	if err := page.Navigate(url, c.NavTimeout); err != nil {
		return nil, err
	}

	name := c.collectionName(page)
	c.logger.Info("collection detected", "name", name)

	mode := c.detectMode(page)
	c.logger.Debug("pagination mode", "mode", mode)

	set := newArticleSet()
	var err error
	switch mode {
	case ModeExpand:
		err = c.crawlExpand(ctx, page, set)
	default:
		err = c.crawlScroll(ctx, page, set)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("collection parsed", "name", name, "total", set.len())
	return &Result{Name: name, Articles: set.articles}, nil
}

func (c *Crawler) collectionName(page browser.Page) string {
	el, ok, err := page.Has(c.Selectors.Name)
	if err != nil || !ok {
		return DefaultName
	}
	text, err := el.Text()
	if err != nil {
		return DefaultName
	}
	name := strings.TrimSpace(strings.ReplaceAll(text, c.Selectors.NamePrefix, ""))
	if name == "" {
		return DefaultName
	}
	return name
}

func (c *Crawler) detectMode(page browser.Page) Mode {
	_, ok, err := page.HasText(c.Selectors.ExpandControl, c.Selectors.ExpandText)
	if err == nil && ok {
		return ModeExpand
	}
	return ModeScroll
}

// crawlExpand clicks the expand control until it disappears or the attempt
// budget runs out, then reads the list once.
func (c *Crawler) crawlExpand(ctx context.Context, page browser.Page, set *articleSet) error {
	sel := c.Selectors
	for attempt := 1; attempt <= c.ExpandAttempts; attempt++ {
		if err := page.WaitElementText(sel.ExpandControl, sel.ExpandText, c.ExpandWait); err != nil {
			c.logger.Debug("expand control gone, list fully expanded", "attempt", attempt)
			break
		}
		el, ok, err := page.HasText(sel.ExpandControl, sel.ExpandText)
		if err != nil || !ok {
			break
		}
		if err := el.Click(); err != nil {
			c.logger.Debug("expand click failed, treating list as expanded", "attempt", attempt, "err", err)
			break
		}
		if err := sleep(ctx, c.SettleDelay); err != nil {
			return err
		}
	}

	items, err := page.Elements(sel.ExpandedItems)
	if err != nil {
		return fmt.Errorf("failed to read collection items: %w", err)
	}
	c.merge(items, set)
	return nil
}

// crawlScroll reads the rendered list after every scroll. It stops on a visible
// "no more" marker, after MaxIdleScrolls consecutive scrolls without new
// articles, or after MaxScrolls iterations.
func (c *Crawler) crawlScroll(ctx context.Context, page browser.Page, set *articleSet) error {
	sel := c.Selectors
	idle := 0
	for i := 0; i < c.MaxScrolls; i++ {
		if err := page.WaitElement(sel.ScrollList, c.ListWait); err != nil {
			return fmt.Errorf("collection list never rendered: %w", err)
		}

		items, err := page.Elements(sel.ScrollItems)
		if err != nil {
			return fmt.Errorf("failed to read collection items: %w", err)
		}
		before := set.len()
		c.merge(items, set)
		c.logger.Debug("scroll pass", "iteration", i+1, "total", set.len())

		if c.reachedEnd(page) {
			c.logger.Debug("no-more marker visible, stop scrolling", "iteration", i+1)
			return nil
		}

		if _, err := page.Eval(scrollToBottomJS); err != nil {
			c.logger.Debug("scroll failed", "err", err)
		}
		if err := sleep(ctx, c.SettleDelay); err != nil {
			return err
		}

		if set.len() == before {
			idle++
		} else {
			idle = 0
		}
		if idle > c.MaxIdleScrolls {
			c.logger.Debug("no new articles after repeated scrolling, stop", "idle", idle)
			return nil
		}
	}
	c.logger.Warn("scroll budget exhausted", "max_scrolls", c.MaxScrolls, "total", set.len())
	return nil
}

// reachedEnd reports whether the "no more" marker is displayed. The marker is
// always in the DOM and hidden by an inline display:none until the end.
func (c *Crawler) reachedEnd(page browser.Page) bool {
	el, ok, err := page.Has(c.Selectors.NoMore)
	if err != nil || !ok {
		return false
	}
	style, ok, err := el.Attribute("style")
	if err != nil || !ok {
		return false
	}
	return markerVisible(style)
}

func markerVisible(style string) bool {
	if strings.TrimSpace(style) == "" {
		return false
	}
	compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
	return !strings.Contains(compact, "display:none")
}

func (c *Crawler) merge(items []browser.Element, set *articleSet) {
	for _, item := range items {
		a, ok := c.readItem(item)
		if !ok {
			continue
		}
		set.add(a)
	}
}

// readItem reads title and link; items without a link are skipped.
func (c *Crawler) readItem(item browser.Element) (Article, bool) {
	link, ok, err := item.Attribute(c.Selectors.ItemLinkAttr)
	link = strings.TrimSpace(link)
	if err != nil || !ok || link == "" {
		return Article{}, false
	}

	title := UntitledArticle
	if el, ok, err := item.Has(c.Selectors.ItemTitle); err == nil && ok {
		if text, err := el.Text(); err == nil && strings.TrimSpace(text) != "" {
			title = strings.TrimSpace(text)
		}
	}
	return Article{Title: title, Link: link}, true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
