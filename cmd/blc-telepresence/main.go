// Command blc-telepresence is the telepresence.io product checker: it
// launches the docs site's static server, crawls it, and applies the
// telepresence product policy (in-cluster-hostname skip list, dual
// canonical-domain ugly check) on top of the generic reporter.
//
// Grounded on telepresenceio_blc.py's __main__ block.
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
	"github.com/cametumbling/blc/internal/policy/telepresence"
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

	pol := generic.New(serveNetloc, nil, nil)
	hooks := telepresence.Hooks{Domain: serveNetloc, Reporter: pol}
	pol.Hooks = hooks

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
