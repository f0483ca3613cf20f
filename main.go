package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wxdl/internal/browser"
	"wxdl/internal/collection"
	"wxdl/internal/config"
	"wxdl/internal/download"
	"wxdl/internal/export"
	_ "wxdl/internal/export/html"
	_ "wxdl/internal/export/markdown"
	_ "wxdl/internal/export/pdf"
	"wxdl/internal/logging"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

var (
	mode         string
	outputFormat string
	outputDir    string
	configFile   string
	timeout      time.Duration
	showUI       bool
	proxyURL     string
	listOnly     bool
	filename     string
	logLevel     string
	logFormat    string
	noProgress   bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:     "wxdl [flags] URL...",
		Short:   "Download WeChat official account articles and collections",
		Version: version,
		Long: `wxdl renders WeChat official account articles in a headless browser and
saves them as Markdown, HTML or PDF. It can download a single article, every
article of a collection (album), or a batch of article URLs.`,
		Example: `  # Save one article as Markdown into ~/Desktop/微信公众号文章
  wxdl "https://mp.weixin.qq.com/s/xxxxxxxx"

  # Save one article as HTML under a chosen file name
  wxdl -f html -n "周报.html" "https://mp.weixin.qq.com/s/xxxxxxxx"

  # Save a whole collection as PDF
  wxdl -m collection -f pdf "https://mp.weixin.qq.com/mp/appmsgalbum?__biz=xxx&album_id=yyy"

  # Only list the articles of a collection
  wxdl -m collection --list "https://mp.weixin.qq.com/mp/appmsgalbum?__biz=xxx&album_id=yyy"

  # Batch download, one URL per line from stdin
  cat urls.txt | wxdl -m batch -f html -o ./articles -`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				os.Exit(0)
			}
			return nil
		},
		RunE:         run,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&mode, "mode", "m", "single", "Download mode (single, collection, batch)")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format (markdown, md, html, pdf), defaults to config output.format")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory, defaults to config output.dir")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML config file")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 60*time.Second, "Navigation timeout per page load attempt (config navigation.retries adds attempts, each with the full timeout)")
	rootCmd.Flags().StringVarP(&filename, "name", "n", "", "Single mode only: file name to save as, used as given (illegal characters replaced)")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", os.Getenv("WXDL_PROXY"), "Proxy URL (e.g. http://127.0.0.1:7890), defaults to WXDL_PROXY env var")
	rootCmd.Flags().BoolVar(&listOnly, "list", false, "Collection mode only: print the article list as JSON instead of downloading")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress spinner")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	m, err := download.ParseMode(mode)
	if err != nil {
		return err
	}
	if err := validateFlags(m, args); err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	// Unknown formats fail here, before any browser is started
	registry := export.NewRegistry(cfg.Export)
	if _, err := registry.Create(cfg.Output.Format); err != nil {
		return fmt.Errorf("%w (supported: %s)", err, strings.Join(registry.Formats(), ", "))
	}

	opener := browser.NewOpener(browserConfig(cfg.Browser), logger)
	crawler := collection.NewCrawler(cfg.Crawl, cfg.Navigation.Timeout, logger)
	runner := download.NewRunner(opener, registry, crawler, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if listOnly {
		res, err := runner.ListCollection(ctx, args[0])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode collection: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	req := download.Request{
		Mode:      m,
		Format:    cfg.Output.Format,
		OutputDir: cfg.Output.Dir,
	}
	if m == download.ModeBatch {
		req.Batch, err = batchText(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
	} else {
		req.URL = strings.TrimSpace(args[0])
		req.Filename = filename
	}

	summary, err := execute(ctx, runner, req)
	if summary != nil {
		for _, f := range summary.Files {
			fmt.Println(f)
		}
		fmt.Fprintf(os.Stderr, "Done: %d succeeded, %d failed\n", summary.Succeeded(), summary.Failed())
	}
	if err != nil {
		return err
	}
	return summary.Err()
}

// execute runs the download on a worker goroutine while another renders progress
func execute(ctx context.Context, runner *download.Runner, req download.Request) (*download.Summary, error) {
	progress := make(chan download.Progress, 16)
	var summary *download.Summary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(progress)
		s, err := runner.Run(gctx, req, func(p download.Progress) {
			progress <- p
		})
		summary = s
		return err
	})
	g.Go(func() error {
		renderProgress(progress, !noProgress)
		return nil
	})

	err := g.Wait()
	return summary, err
}

func renderProgress(progress <-chan download.Progress, enabled bool) {
	if !enabled {
		for range progress {
		}
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " 0.00%"
	s.Start()
	defer s.Stop()

	for p := range progress {
		s.Lock()
		s.Suffix = fmt.Sprintf(" %.2f%%", p.Percent())
		s.Unlock()
	}
}

// applyFlags overrides config values with explicitly set flags
func applyFlags(cmd *cobra.Command, cfg *config.Settings) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = outputFormat
	}
	if flags.Changed("output") {
		cfg.Output.Dir = outputDir
	}
	if flags.Changed("timeout") {
		cfg.Navigation.Timeout = timeout
	}
	if showUI {
		cfg.Browser.Headless = false
	}
	if proxyURL != "" {
		cfg.Browser.ProxyURL = proxyURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
}

func validateFlags(m download.Mode, args []string) error {
	if listOnly && m != download.ModeCollection {
		return fmt.Errorf("--list is only valid with collection mode")
	}
	if filename != "" && m != download.ModeSingle {
		return fmt.Errorf("--name is only valid with single mode")
	}
	if m != download.ModeBatch && len(args) != 1 {
		return fmt.Errorf("%s mode takes exactly one URL, got %d", m, len(args))
	}
	return nil
}

// batchText joins batch arguments into one URL per line; a single "-" reads stdin
func batchText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read batch from stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, "\n"), nil
}

func browserConfig(b config.Browser) browser.Config {
	return browser.Config{
		Headless:    b.Headless,
		ProxyURL:    b.ProxyURL,
		Bin:         b.Bin,
		NoSandbox:   b.NoSandbox,
		Leakless:    b.Leakless,
		Stealth:     b.Stealth,
		UserAgent:   b.UserAgent,
		EvalTimeout: b.EvalTimeout,
	}
}
