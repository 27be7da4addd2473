package heal

import (
	"context"
	"time"
)

// ContainerSource returns a fresh snapshot of every container on the runtime.
// Production: adapter/docker.Runtime
// Testing: fake.Runtime
type ContainerSource interface {
	ListContainers(ctx context.Context) ([]Observation, error)
}

// ContainerRestarter restarts a single container by id.
type ContainerRestarter interface {
	RestartContainer(ctx context.Context, id string) error
}

// Runtime is the container runtime surface the supervisor consumes.
type Runtime interface {
	ContainerSource
	ContainerRestarter
}

// Notifier delivers a human-readable message to an external channel.
// Production: adapter/webhook.Notifier, or webhook.Nop when unconfigured.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Recorder receives every event the supervisor emits.
// Production: adapter/sqlite.Journal, metrics.Metrics
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock uses the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
