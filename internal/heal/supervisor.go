package heal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultInterval matches the pause between passes when Settings.Interval is unset.
	DefaultInterval = 5 * time.Second

	tracerName = "autoheal/heal"
)

var (
	// ErrSnapshot wraps failures to list containers from the runtime.
	ErrSnapshot = errors.New("container snapshot failed")
	// ErrPassPanic wraps a panic recovered at the pass boundary.
	ErrPassPanic = errors.New("supervision pass panicked")
)

// PassResult summarises one supervision pass.
type PassResult struct {
	Observed  int
	Evaluated int
	Restarted int
	Failed    int
	GaveUp    int
	Skipped   int
	Recovered int
	Duration  time.Duration
	// Events holds the container events of the pass in snapshot order.
	Events []Event
}

// Supervisor runs supervision passes over a container runtime. It exclusively
// owns the attempt table; passes must not run concurrently.
type Supervisor struct {
	Settings  Settings
	Runtime   Runtime    // injected: container snapshot and restart
	Notifier  Notifier   // optional: best-effort notifications
	Recorders []Recorder // optional: journal, metrics
	Tracer    trace.Tracer
	Clock     Clock
	// DryRun evaluates against a scratch copy of the attempt table and
	// performs no restarts, notifications or recording.
	DryRun bool

	attempts *Attempts
}

// AttemptCount returns the stored attempt count for a container name.
func (s *Supervisor) AttemptCount(name string) int {
	return s.state().Get(name)
}

// Tracked returns the number of containers with unresolved attempts.
func (s *Supervisor) Tracked() int {
	return s.state().Len()
}

func (s *Supervisor) state() *Attempts {
	if s.attempts == nil {
		s.attempts = NewAttempts()
	}
	return s.attempts
}

func (s *Supervisor) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

func (s *Supervisor) tracer() trace.Tracer {
	if s.Tracer != nil {
		return s.Tracer
	}
	return otel.Tracer(tracerName)
}

// Run executes passes until ctx is cancelled, pausing Settings.Interval
// between the end of one pass and the start of the next. Pass failures are
// reported and never end the loop.
func (s *Supervisor) Run(ctx context.Context) error {
	interval := s.Settings.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	slog.Info("supervisor started",
		"mode", s.Settings.Scope,
		"interval", interval,
		"default_policy", s.Settings.DefaultPolicy.Mode,
		"max_attempts", s.Settings.DefaultPolicy.MaxAttempts,
		"dry_run", s.DryRun)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		_, _ = s.RunPass(ctx)
		timer.Reset(interval)
	}
}

// RunPass evaluates every container in the current snapshot once, in
// snapshot order. A snapshot failure or panic aborts the pass; it is logged,
// notified and returned. Restart failures are per-container and do not abort.
func (s *Supervisor) RunPass(ctx context.Context) (res PassResult, err error) {
	log := slog.With("component", "heal")
	start := s.now()
	ctx, span := s.tracer().Start(ctx, "autoheal.pass", trace.WithAttributes(
		attribute.Bool("autoheal.dry_run", s.DryRun),
	))

	attempts := s.state()
	if s.DryRun {
		attempts = attempts.Clone()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPassPanic, r)
		}
		res.Duration = s.now().Sub(start)
		span.SetAttributes(
			attribute.Int("autoheal.observed", res.Observed),
			attribute.Int("autoheal.evaluated", res.Evaluated),
			attribute.Int("autoheal.restarted", res.Restarted),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.passFailed(ctx, log, err)
		} else {
			s.emit(ctx, &res, Event{Kind: EventPassCompleted, Duration: res.Duration, Tracked: attempts.Len()})
			log.Debug("pass complete",
				"observed", res.Observed,
				"evaluated", res.Evaluated,
				"restarted", res.Restarted,
				"failed", res.Failed,
				"gave_up", res.GaveUp,
				"recovered", res.Recovered,
				"duration", res.Duration)
		}
		span.End()
	}()

	snapshot, err := s.Runtime.ListContainers(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}
	res.Observed = len(snapshot)

	for _, obs := range snapshot {
		if !InScope(obs, s.Settings) {
			continue
		}
		res.Evaluated++
		s.evaluate(ctx, log, obs, attempts, &res)
	}
	return res, nil
}

func (s *Supervisor) evaluate(ctx context.Context, log *slog.Logger, obs Observation, attempts *Attempts, res *PassResult) {
	log = log.With("container", obs.Name)
	verdict := Classify(obs, s.Settings)
	log.Debug("checking container", "status", obs.Status, "health", obs.Health, "needs_healing", verdict.NeedsHealing)

	if !verdict.NeedsHealing {
		prior := attempts.Get(obs.Name)
		if attempts.Reset(obs.Name) {
			res.Recovered++
			log.Info("container recovered, attempt counter reset", "attempts", prior)
			s.emit(ctx, res, Event{Kind: EventRecovered, ContainerID: obs.ID, Container: obs.Name, Attempt: prior})
		}
		return
	}

	policy, warnings := ResolvePolicy(obs.Labels, s.Settings.DefaultPolicy)
	for _, w := range warnings {
		log.Warn("ignoring container label", "err", w)
	}

	d := Decide(obs.Name, verdict.Reason, policy, attempts)
	ev := Event{
		ContainerID: obs.ID,
		Container:   obs.Name,
		Reason:      d.Reason,
		Policy:      policy.Mode,
		Attempt:     d.Attempt,
		MaxAttempts: policy.MaxAttempts,
	}

	switch d.Action {
	case ActionSkip:
		res.Skipped++
		log.Debug("restart skipped by policy", "reason", d.Reason, "policy", policy.Mode)
		ev.Kind = EventSkipped
		s.emit(ctx, res, ev)
	case ActionGiveUp:
		res.GaveUp++
		log.Warn("max restart attempts reached", "reason", d.Reason, "max_attempts", policy.MaxAttempts)
		ev.Kind = EventGaveUp
		ev.Attempt = attempts.Get(obs.Name)
		s.emit(ctx, res, ev)
		s.notify(ctx, log, ev.Message())
	case ActionRestart:
		s.restart(ctx, log, obs, ev, res)
	}
}

func (s *Supervisor) restart(ctx context.Context, log *slog.Logger, obs Observation, ev Event, res *PassResult) {
	log = log.With("reason", ev.Reason, "attempt", ev.Attempt, "max_attempts", ev.MaxAttempts)
	if s.DryRun {
		res.Restarted++
		log.Info("dry run: would restart container")
		ev.Kind = EventRestarted
		s.emit(ctx, res, ev)
		return
	}

	ctx, span := s.tracer().Start(ctx, "autoheal.restart", trace.WithAttributes(
		attribute.String("container.id", obs.ID),
		attribute.String("container.name", obs.Name),
		attribute.String("autoheal.reason", ev.Reason.String()),
		attribute.Int("autoheal.attempt", ev.Attempt),
	))
	defer span.End()

	log.Info("restarting container")
	if err := s.Runtime.RestartContainer(ctx, obs.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		res.Failed++
		log.Error("restart failed", "err", err)
		ev.Kind = EventRestartFailed
		ev.Err = err.Error()
		s.emit(ctx, res, ev)
		s.notify(ctx, log, ev.Message())
		return
	}

	res.Restarted++
	ev.Kind = EventRestarted
	s.emit(ctx, res, ev)
	s.notify(ctx, log, ev.Message())
}

func (s *Supervisor) passFailed(ctx context.Context, log *slog.Logger, err error) {
	log.Error("supervision pass failed", "err", err)
	if ctx.Err() != nil {
		return
	}
	ev := Event{Kind: EventPassFailed, Err: err.Error()}
	s.emit(ctx, nil, ev)
	s.notify(ctx, log, ev.Message())
}

func (s *Supervisor) emit(ctx context.Context, res *PassResult, ev Event) {
	ev.Time = s.now()
	if res != nil && ev.ContainerEvent() {
		res.Events = append(res.Events, ev)
	}
	if s.DryRun {
		return
	}
	for _, r := range s.Recorders {
		if err := record(ctx, r, ev); err != nil {
			slog.Warn("record event failed", "kind", ev.Kind, "container", ev.Container, "err", err)
		}
	}
}

// record and notify turn panics into errors so the failure-reporting path
// runs safely inside RunPass's deferred recover.
func record(ctx context.Context, r Recorder, ev Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("recorder panicked: %v", p)
		}
	}()
	return r.Record(ctx, ev)
}

func (s *Supervisor) notify(ctx context.Context, log *slog.Logger, message string) {
	if s.Notifier == nil || s.DryRun || message == "" {
		return
	}
	if err := notify(ctx, s.Notifier, message); err != nil {
		log.Error("notification failed", "err", err)
	}
}

func notify(ctx context.Context, n Notifier, message string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("notifier panicked: %v", p)
		}
	}()
	return n.Notify(ctx, message)
}
