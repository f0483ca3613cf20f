// Package download 编排一次完整的下载：打开浏览器会话、解析合集、逐篇导出并汇报进度。
//
// 所有条目共享同一个页面，严格顺序执行。取消只会停止调度后续条目，
// 不会打断正在进行的浏览器调用。
package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"wxdl/internal/browser"
	"wxdl/internal/collection"
	"wxdl/internal/config"
	"wxdl/internal/export"
	"wxdl/internal/retry"
)

// Runner 下载编排器
type Runner struct {
	open          browser.Opener
	registry      *export.Registry
	crawler       *collection.Crawler
	navTimeout    time.Duration
	retry         retry.Config
	titleSelector string
	logger        *slog.Logger
}

// NewRunner 创建编排器
func NewRunner(open browser.Opener, registry *export.Registry, crawler *collection.Crawler, cfg *config.Settings, logger *slog.Logger) *Runner {
	return &Runner{
		open:          open,
		registry:      registry,
		crawler:       crawler,
		navTimeout:    cfg.Navigation.Timeout,
		retry:         retry.FromNavigation(cfg.Navigation),
		titleSelector: cfg.Export.TitleSelector,
		logger:        logger,
	}
}

// item 待导出的一篇文章
type item struct {
	url   string
	title string
}

// Run 执行一次下载。格式非法时在打开浏览器之前返回 *export.UnsupportedFormatError；
// 会话打开失败返回 browser.ErrOpen；合集解析失败返回 ErrCrawlFailed。
// 单个条目的失败只记录在 Summary 中，不会中断运行。
func (r *Runner) Run(ctx context.Context, req Request, progress ProgressFunc) (*Summary, error) {
	exporter, err := r.registry.Create(req.Format)
	if err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(Progress) {}
	}

	sum := &Summary{RunID: uuid.NewString(), Mode: req.Mode}
	logger := r.logger.With("run", sum.RunID, "mode", string(req.Mode))

	var items []item
	if req.Mode == ModeBatch {
		for _, u := range SplitBatch(req.Batch) {
			items = append(items, item{url: u})
		}
		if len(items) == 0 {
			logger.Warn("batch is empty, nothing to do")
			return sum, nil
		}
	}

	logger.Info("opening browser")
	session, err := r.open()
	if err != nil {
		return sum, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser", "err", err)
		}
	}()

	switch req.Mode {
	case ModeSingle:
		sum.Total = 1
		job := export.Job{TargetURL: req.URL, OutputDir: req.OutputDir, Format: req.Format, Filename: req.Filename}
		r.exportItem(ctx, logger, session, exporter, 0, job, sum)
		progress(ProgressAt(0, 1))

	case ModeCollection:
		res, err := r.crawl(ctx, session, req.URL)
		if err != nil {
			logger.Error("failed to crawl collection", "url", req.URL, "err", err)
			return sum, fmt.Errorf("%w: %w", ErrCrawlFailed, err)
		}
		sum.Collection = res.Name
		for _, a := range res.Articles {
			items = append(items, item{url: a.Link, title: a.Title})
		}
		// 合集名来自页面，"." 或 ".." 之类的名字会逃出输出目录
		name := export.SafeName(res.Name, collection.DefaultName)
		dir := filepath.Join(req.OutputDir, name)
		r.exportAll(ctx, logger, session, exporter, items, dir, req.Format, name, sum, progress)

	case ModeBatch:
		r.exportAll(ctx, logger, session, exporter, items, req.OutputDir, req.Format, "", sum, progress)
	}

	logger.Info("run finished", "total", sum.Total, "succeeded", sum.Succeeded(), "failed", sum.Failed(), "canceled", sum.Canceled)
	for _, f := range sum.Failures {
		logger.Warn("failed item", "index", f.Index+1, "url", f.URL, "err", f.Err)
	}
	if sum.Canceled {
		return sum, ctx.Err()
	}
	return sum, nil
}

// ListCollection 只解析合集，不导出
func (r *Runner) ListCollection(ctx context.Context, url string) (*collection.Result, error) {
	session, err := r.open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Warn("failed to close browser", "err", err)
		}
	}()

	res, err := r.crawl(ctx, session, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrawlFailed, err)
	}
	return res, nil
}

func (r *Runner) crawl(ctx context.Context, page browser.Page, url string) (*collection.Result, error) {
	var res *collection.Result
	err := retry.Do(ctx, r.retry, r.logger, "crawl collection", func() error {
		var err error
		res, err = r.crawler.Crawl(ctx, page, url)
		return err
	}, isNavigationError)
	return res, err
}

// exportAll 顺序导出 items，每项结束后汇报进度。collectionName 非空时使用合集命名规则。
func (r *Runner) exportAll(ctx context.Context, logger *slog.Logger, page browser.Page, exporter export.Exporter,
	items []item, dir, format, collectionName string, sum *Summary, progress ProgressFunc) {
	sum.Total = len(items)
	for i, it := range items {
		if ctx.Err() != nil {
			logger.Warn("run canceled, remaining items skipped", "remaining", len(items)-i)
			sum.Canceled = true
			return
		}
		logger.Debug("exporting article", "index", i+1, "title", it.title, "url", it.url)
		job := export.Job{TargetURL: it.url, OutputDir: dir, Format: format}
		if collectionName != "" {
			r.exportCollectionItem(ctx, logger, page, exporter, i, job, collectionName, sum)
		} else {
			r.exportItem(ctx, logger, page, exporter, i, job, sum)
		}
		progress(ProgressAt(i, len(items)))
	}
}

func (r *Runner) exportItem(ctx context.Context, logger *slog.Logger, page browser.Page, exporter export.Exporter, index int, job export.Job, sum *Summary) {
	if err := r.navigate(ctx, page, job.TargetURL); err != nil {
		r.fail(logger, sum, index, job.TargetURL, err)
		return
	}
	r.write(logger, page, exporter, index, job, sum)
}

func (r *Runner) exportCollectionItem(ctx context.Context, logger *slog.Logger, page browser.Page, exporter export.Exporter, index int, job export.Job, collectionName string, sum *Summary) {
	if err := r.navigate(ctx, page, job.TargetURL); err != nil {
		r.fail(logger, sum, index, job.TargetURL, err)
		return
	}
	job.Filename = export.CollectionFilename(page, collectionName, job.TargetURL, r.titleSelector, exporter.Extension())
	r.write(logger, page, exporter, index, job, sum)
}

func (r *Runner) write(logger *slog.Logger, page browser.Page, exporter export.Exporter, index int, job export.Job, sum *Summary) {
	path, err := exporter.Export(page, job)
	if err != nil {
		r.fail(logger, sum, index, job.TargetURL, err)
		return
	}
	sum.Files = append(sum.Files, path)
	logger.Info("article saved", "index", index+1, "url", job.TargetURL, "path", path)
}

func (r *Runner) fail(logger *slog.Logger, sum *Summary, index int, url string, err error) {
	logger.Error("failed to export article", "index", index+1, "url", url, "err", err)
	sum.Failures = append(sum.Failures, Failure{Index: index, URL: url, Err: err})
}

func (r *Runner) navigate(ctx context.Context, page browser.Page, url string) error {
	return retry.Do(ctx, r.retry, r.logger, "navigate", func() error {
		return page.Navigate(url, r.navTimeout)
	}, isNavigationError)
}

func isNavigationError(err error) bool {
	var navErr *browser.NavigationError
	return errors.As(err, &navErr)
}
