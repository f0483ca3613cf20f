package browser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// Config 浏览器启动参数
type Config struct {
	Headless    bool
	ProxyURL    string // 代理URL
	Bin         string // 浏览器可执行文件路径，为空时自动下载/查找
	NoSandbox   bool
	Leakless    bool
	Stealth     bool // 使用 go-rod/stealth 创建页面
	UserAgent   string
	EvalTimeout time.Duration
}

// Browser 持有一个浏览器进程和唯一的页面。
// 所有操作都在同一个页面上顺序执行，不可并发使用。
type Browser struct {
	page   *rod.Page
	cfg    Config
	logger *slog.Logger

	// 按获取顺序登记的释放步骤，Close 逆序执行
	release []releaseStep
}

type releaseStep struct {
	name string
	fn   func() error
}

func (b *Browser) onClose(name string, fn func() error) {
	b.release = append(b.release, releaseStep{name: name, fn: fn})
}

// Open 启动浏览器并创建页面，任何一步失败都会清理已创建的资源并返回 ErrOpen
func Open(cfg Config, logger *slog.Logger) (*Browser, error) {
	if cfg.EvalTimeout <= 0 {
		cfg.EvalTimeout = DefaultEvalTimeout
	}

	l := launcher.New().Headless(cfg.Headless).Leakless(cfg.Leakless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}
	if cfg.NoSandbox {
		l = l.NoSandbox(true)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to launch browser: %v", ErrOpen, err)
	}

	b := &Browser{cfg: cfg, logger: logger}
	b.onClose("launcher", func() error {
		l.Kill()
		l.Cleanup()
		return nil
	})

	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: failed to connect browser: %v", ErrOpen, err)
	}
	b.onClose("browser", rb.Close)

	var page *rod.Page
	if cfg.Stealth {
		page, err = stealth.Page(rb)
	} else {
		page, err = rb.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: failed to create page: %v", ErrOpen, err)
	}
	b.page = page
	b.onClose("page", page.Close)

	if cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent}); err != nil {
			logger.Warn("failed to set user agent", "err", err)
		}
	}

	logger.Debug("browser opened", "headless", cfg.Headless, "proxy", cfg.ProxyURL, "stealth", cfg.Stealth)
	return b, nil
}

// Close 依次关闭页面、浏览器和启动器。
// 某一步失败只记录日志，后续步骤仍会执行；返回所有失败的合并错误。
func (b *Browser) Close() error {
	var errs []error
	for i := len(b.release) - 1; i >= 0; i-- {
		step := b.release[i]
		if err := step.fn(); err != nil {
			b.logger.Warn("failed to close "+step.name, "err", err)
			errs = append(errs, fmt.Errorf("close %s: %w", step.name, err))
		}
	}
	b.release = nil
	b.page = nil
	return errors.Join(errs...)
}

// Navigate 打开 URL 并等待 load 事件，超时或失败返回 *NavigationError
func (b *Browser) Navigate(url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultNavigationTimeout
	}
	p := b.page.Timeout(timeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	if err := p.WaitLoad(); err != nil {
		return &NavigationError{URL: url, Err: fmt.Errorf("failed to wait for page load: %w", err)}
	}
	return nil
}

// URL 返回当前页面地址
func (b *Browser) URL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Eval 在页面中执行 JS 函数表达式，Promise 会被等待
func (b *Browser) Eval(js string, args ...any) (gson.JSON, error) {
	p := b.page.Timeout(b.cfg.EvalTimeout)
	defer p.CancelTimeout()

	res, err := p.Eval(js, args...)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

// HTML 返回完整文档的 HTML
func (b *Browser) HTML() (string, error) {
	return b.page.HTML()
}

// Has 立即查询元素，不等待
func (b *Browser) Has(selector string) (Element, bool, error) {
	ok, el, err := b.page.Has(selector)
	if err != nil || !ok {
		return nil, false, err
	}
	return &element{el: el}, true, nil
}

// HasText 查询文本匹配 pattern（JS 正则）的元素，不等待
func (b *Browser) HasText(selector, pattern string) (Element, bool, error) {
	ok, el, err := b.page.HasR(selector, pattern)
	if err != nil || !ok {
		return nil, false, err
	}
	return &element{el: el}, true, nil
}

// Elements 返回当前已渲染的全部匹配元素
func (b *Browser) Elements(selector string) ([]Element, error) {
	els, err := b.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

// WaitElement 等待元素出现，超时返回 *SelectorTimeoutError
func (b *Browser) WaitElement(selector string, timeout time.Duration) error {
	p := b.page.Timeout(timeout)
	defer p.CancelTimeout()

	if _, err := p.Element(selector); err != nil {
		return &SelectorTimeoutError{Selector: selector, Timeout: timeout, Err: err}
	}
	return nil
}

// WaitElementText 等待文本匹配 pattern 的元素出现
func (b *Browser) WaitElementText(selector, pattern string, timeout time.Duration) error {
	p := b.page.Timeout(timeout)
	defer p.CancelTimeout()

	if _, err := p.ElementR(selector, pattern); err != nil {
		return &SelectorTimeoutError{Selector: selector, Timeout: timeout, Err: err}
	}
	return nil
}

// PDF 将当前页面渲染为 PDF（仅 headless 模式可用）
func (b *Browser) PDF() ([]byte, error) {
	r, err := b.page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("failed to print page to PDF: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF stream: %w", err)
	}
	return data, nil
}
