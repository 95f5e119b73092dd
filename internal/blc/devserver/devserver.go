// Package devserver launches and supervises the static-site server
// subprocess (`serve.js`) each cmd/blc* entrypoint crawls against.
//
// Grounded on cmd/crawler/main.go's os/exec + graceful-shutdown pattern;
// factored out of the checker CLIs so the three cmd/ mains (generic,
// ambassador, telepresence) share one subprocess lifecycle instead of
// each reimplementing it.
package devserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// StartTimeout bounds how long Start waits for the server's ready line.
const StartTimeout = 10 * time.Second

// StopTimeout bounds how long Stop waits after SIGTERM before killing.
const StopTimeout = 5 * time.Second

// Server supervises a running serve.js subprocess.
type Server struct {
	cmd *exec.Cmd
}

// Start launches "./serve.js" with its working directory set to projDir,
// and waits for a stdout line containing readyMarker before returning.
func Start(ctx context.Context, projDir, readyMarker string, logger zerolog.Logger) (*Server, error) {
	cmd := exec.CommandContext(ctx, "./serve.js")
	cmd.Dir = projDir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("starting server: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting server: %w", err)
	}

	ready := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			logger.Debug().Str("server", line).Msg("serve.js")
			if strings.Contains(line, readyMarker) {
				close(ready)
				break
			}
		}
		io.Copy(io.Discard, stdout)
	}()

	select {
	case <-ready:
	case <-time.After(StartTimeout):
		cmd.Process.Kill()
		return nil, fmt.Errorf("server did not print %q within %s", readyMarker, StartTimeout)
	case <-ctx.Done():
		cmd.Process.Kill()
		return nil, ctx.Err()
	}

	return &Server{cmd: cmd}, nil
}

// Stop asks the server to shut down, killing it if it doesn't exit
// within StopTimeout.
func (s *Server) Stop() {
	if s.cmd.Process == nil {
		return
	}
	s.cmd.Process.Signal(syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		s.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(StopTimeout):
		s.cmd.Process.Kill()
	}
}
