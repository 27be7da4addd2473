package docker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"autoheal/internal/heal"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

var _ heal.Runtime = (*Runtime)(nil)

// Runtime implements heal.Runtime using the Docker Engine API.
type Runtime struct {
	cli client.APIClient
	// RestartTimeout is the grace period before the engine kills a container
	// being restarted. Zero uses the container's own stop timeout.
	RestartTimeout time.Duration
}

// NewRuntime creates a Runtime with a new Docker client from the environment
// (DOCKER_HOST, DOCKER_TLS_VERIFY, DOCKER_CERT_PATH, DOCKER_API_VERSION).
func NewRuntime() (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &Runtime{cli: cli}, nil
}

// NewRuntimeFromClient wraps an existing Docker client.
func NewRuntimeFromClient(cli client.APIClient) *Runtime {
	return &Runtime{cli: cli}
}

func (r *Runtime) WaitReady(ctx context.Context) error {
	return WaitReady(ctx, r.cli, time.Second)
}

// ListContainers lists every container, running or not, and inspects each
// one to read its current state, health and labels. Containers removed
// between list and inspect are left out of the snapshot.
func (r *Runtime) ListContainers(ctx context.Context) ([]heal.Observation, error) {
	summaries, err := r.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	out := make([]heal.Observation, 0, len(summaries))
	for _, s := range summaries {
		info, err := r.cli.ContainerInspect(ctx, s.ID)
		if err != nil {
			if errdefs.IsNotFound(err) {
				slog.Debug("container vanished before inspect", "id", s.ID)
				continue
			}
			return nil, fmt.Errorf("inspect container %q: %w", s.ID, err)
		}
		out = append(out, observationFrom(s, info))
	}
	return out, nil
}

func (r *Runtime) RestartContainer(ctx context.Context, id string) error {
	opts := container.StopOptions{}
	if r.RestartTimeout > 0 {
		secs := int(r.RestartTimeout.Seconds())
		opts.Timeout = &secs
	}
	if err := r.cli.ContainerRestart(ctx, id, opts); err != nil {
		return fmt.Errorf("restart container %q: %w", id, err)
	}
	return nil
}

func (r *Runtime) Close() error {
	return r.cli.Close()
}

// observationFrom prefers the freshly inspected state over the list summary.
func observationFrom(s container.Summary, info container.InspectResponse) heal.Observation {
	obs := heal.Observation{
		ID:     s.ID,
		Status: heal.ParseStatus(s.State),
		Labels: s.Labels,
	}
	if len(s.Names) > 0 {
		obs.Name = strings.TrimPrefix(s.Names[0], "/")
	}

	if info.ContainerJSONBase != nil {
		if info.ID != "" {
			obs.ID = info.ID
		}
		if name := strings.TrimPrefix(info.Name, "/"); name != "" {
			obs.Name = name
		}
		if st := info.State; st != nil {
			obs.Status = heal.ParseStatus(st.Status)
			if st.Health != nil {
				obs.Health = heal.ParseHealth(st.Health.Status)
			}
		}
	}
	if info.Config != nil && info.Config.Labels != nil {
		obs.Labels = info.Config.Labels
	}
	return obs
}
