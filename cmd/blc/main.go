// Command blc is the generic broken-link checker: it launches a
// project's static-site server, crawls it starting from a handful of
// well-known seed paths, and reports broken and ugly links.
//
// Grounded on generic_blc.py's __main__ block for the summary/exit-code
// shape, and on cmd/crawler/main.go for the subprocess lifecycle and
// signal handling (factored into internal/blc/devserver).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/cametumbling/blc/internal/blc/checker"
	"github.com/cametumbling/blc/internal/blc/config"
	"github.com/cametumbling/blc/internal/blc/devserver"
	"github.com/cametumbling/blc/internal/blc/httpcache"
	"github.com/cametumbling/blc/internal/blc/httpcache/diskcache"
	"github.com/cametumbling/blc/internal/blc/model"
	"github.com/cametumbling/blc/internal/blc/urlref"
	"github.com/cametumbling/blc/internal/policy/generic"
)

const (
	serveAddr   = "http://localhost:9000"
	serveNetloc = "localhost:9000"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s PROJDIR\n", os.Args[0])
		return 2
	}
	projDir := os.Args[1]

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("BLC_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		if sig, ok := <-sigCh; ok {
			logger.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		}
	}()

	srv, err := devserver.Start(ctx, projDir, "Serving", logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer srv.Stop()

	// pol is built before the client because its HandleRequestStarting
	// hook needs to exist to wire into httpcache.Config.BeforeSend; its
	// Enqueuer is filled in once the checker that implements it exists.
	pol := generic.New(serveNetloc, nil, configHooks{cfg: cfg})

	var disk *diskcache.Cache
	if cfg.DiskCachePath != "" {
		disk, err = diskcache.Open(cfg.DiskCachePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer disk.Close()
	}

	client := httpcache.New(httpcache.Config{
		UserAgent:        cfg.UserAgent,
		PerHostUserAgent: cfg.PerHostUserAgent,
		BeforeSend:       pol.HandleRequestStarting,
		Disk:             diskOrNil(disk),
	})

	c := checker.New(client, pol, logger)
	pol.Enqueuer = c

	for _, seed := range []string{"/", "/404.html", "/404/"} {
		c.Enqueue(model.PageTask{URL: urlref.New(serveAddr + seed)})
	}

	if err := c.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	fmt.Println(pol.Summary())

	if ctx.Err() != nil {
		return 130
	}
	return pol.ExitCode()
}

// configHooks adapts the config file's flat skip-links list to
// policy.ProductHooks; everything else keeps generic's default behavior.
type configHooks struct {
	cfg *config.Config
}

func (h configHooks) IsInternalDomain(netloc string) bool { return false }

func (h configHooks) ShouldSkipLink(link model.Link) bool {
	resolved, err := link.LinkURL.Resolved()
	if err != nil {
		return false
	}
	return h.cfg.ShouldSkipLink(resolved)
}

func (h configHooks) ShouldSkipLinkResult(link model.Link, broken model.BrokenReason) bool {
	return false
}

func (h configHooks) UglyCheck(link model.Link) {}

// diskOrNil returns c as an httpcache.DiskCache, or a true nil interface
// when c itself is nil — assigning a nil *diskcache.Cache directly would
// produce a non-nil interface value that still satisfies the "Disk != nil"
// check in httpcache.Client.doHop.
func diskOrNil(c *diskcache.Cache) httpcache.DiskCache {
	if c == nil {
		return nil
	}
	return c
}
