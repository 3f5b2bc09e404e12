// Package client connects the terminal UI to the instance daemon, starting
// the daemon when it is not running.
package client

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/parley/internal/api"
	"github.com/matheus3301/parley/internal/instance"
	"go.uber.org/zap"
)

// DaemonBinary is the executable started when no daemon answers.
const DaemonBinary = "parleyd"

// Options tunes Connect. Zero values select defaults.
type Options struct {
	// Start launches the daemon. It defaults to StartDaemon.
	Start       func(name string) error
	ReadyWithin time.Duration
	PollEvery   time.Duration
	Logger      *zap.Logger
}

// Connect dials the daemon of instance name, starting it first when no daemon
// is healthy on its socket.
func Connect(ctx context.Context, name string, opts Options) (*api.Client, error) {
	if opts.Start == nil {
		opts.Start = StartDaemon
	}
	if opts.ReadyWithin <= 0 {
		opts.ReadyWithin = 10 * time.Second
	}
	if opts.PollEvery <= 0 {
		opts.PollEvery = 300 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	socket := instance.SocketPath(name)
	c, err := api.Dial(socket)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	if probe(ctx, c) {
		return c, nil
	}

	opts.Logger.Info("daemon not running, starting", zap.String("instance", name))
	if err := opts.Start(name); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start daemon: %w", err)
	}
	if !waitFor(ctx, c, opts.ReadyWithin, opts.PollEvery) {
		_ = c.Close()
		return nil, fmt.Errorf("daemon for instance %q did not become ready", name)
	}
	return c, nil
}

// probe checks the daemon with a real health call, not just a socket connect.
func probe(ctx context.Context, c *api.Client) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.Healthy(ctx)
}

func waitFor(ctx context.Context, c *api.Client, timeout, every time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probe(ctx, c) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(every):
		}
	}
	return false
}

// StartDaemon launches the daemon for instance name in the background. The
// binary next to the running executable wins over one on PATH.
func StartDaemon(name string) error {
	bin := DaemonBinary
	if executable, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(executable), DaemonBinary)
		if _, err := os.Stat(sibling); err == nil {
			bin = sibling
		}
	}

	cmd := exec.Command(bin, "--instance", name)
	// Inherit stderr so daemon startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}
