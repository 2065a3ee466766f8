package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/VINCENT-bot354/safaribytes/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

// Dependency must answer a ping before any consumer starts.
type Dependency struct {
	Name   string
	Client pinger
}

// Consumer is a named subscription loop.
type Consumer struct {
	Name   string
	Runner runner
}

type ServiceParams struct {
	Logger       *logger.Logger
	Dependencies []Dependency
	Consumers    []Consumer
	Heartbeat    time.Duration
}

// Service runs the worker's consumers side by side. The first consumer to
// fail stops the rest.
type Service struct {
	logg      *logger.Logger
	deps      []Dependency
	consumers []Consumer
	heartbeat time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for _, dep := range params.Dependencies {
		if dep.Client == nil {
			return nil, fmt.Errorf("%s client is required", dep.Name)
		}
	}
	for _, c := range params.Consumers {
		if c.Runner == nil {
			return nil, fmt.Errorf("%s consumer is required", c.Name)
		}
	}
	heartbeat := params.Heartbeat
	if heartbeat <= 0 {
		heartbeat = time.Minute
	}
	return &Service{
		logg:      params.Logger,
		deps:      params.Dependencies,
		consumers: params.Consumers,
		heartbeat: heartbeat,
	}, nil
}

func (s *Service) ready(ctx context.Context) error {
	for _, dep := range s.deps {
		if err := dep.Client.Ping(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", dep.Name), "worker.dependency.unavailable", err)
			return fmt.Errorf("%s ping failed: %w", dep.Name, err)
		}
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, c := range s.consumers {
		group.Go(func() error {
			consumerCtx := s.logg.WithField(groupCtx, "consumer", c.Name)
			s.logg.Info(consumerCtx, "worker.consumer.started")
			err := c.Runner.Run(consumerCtx)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				s.logg.Error(consumerCtx, "worker.consumer.stopped", err)
				return fmt.Errorf("%s consumer: %w", c.Name, err)
			}
			return err
		})
	}
	group.Go(func() error {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				s.logg.Debug(groupCtx, "worker.heartbeat")
			}
		}
	})

	err := group.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
