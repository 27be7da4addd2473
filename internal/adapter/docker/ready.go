package docker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docker/docker/client"
)

// WaitReady blocks until the docker daemon answers a ping. Connection
// failures are retried every pollInterval; any other error is returned.
func WaitReady(ctx context.Context, cli client.APIClient, pollInterval time.Duration) error {
	log := slog.With("component", "docker")
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	waiting := false
	for {
		_, err := cli.Ping(ctx)
		if err == nil {
			if waiting {
				log.Info("docker daemon reachable")
			}
			return nil
		}
		if !client.IsErrConnectionFailed(err) {
			return fmt.Errorf("connect to docker daemon: %w", err)
		}
		if !waiting {
			waiting = true
			log.Warn("waiting for docker daemon", "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
