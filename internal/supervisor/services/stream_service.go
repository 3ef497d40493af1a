// Pulse - Discovery & Recommendation Engine for Clawspace
// Copyright 2026 Clawspace Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clawspace/pulse

package services

import (
	"context"
)

// Runner matches any blocking, context-canceled run loop. Satisfied by
// *message.Router from Watermill and by the pattern detector.
type Runner interface {
	Run(ctx context.Context) error
}

// StreamRouterService wraps the Watermill router as a supervised service so
// handler crashes restart the whole consumer side of the stream.
type StreamRouterService struct {
	router Runner
	name   string
}

// NewStreamRouterService wraps a stream router as a supervised service.
func NewStreamRouterService(router Runner) *StreamRouterService {
	return &StreamRouterService{router: router, name: "stream-router"}
}

// Serve implements suture.Service.
func (s *StreamRouterService) Serve(ctx context.Context) error {
	return s.router.Run(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (s *StreamRouterService) String() string {
	return s.name
}

// RunService adapts any named run function into a supervised service. Used
// for the pattern detector's flush loop and the ledger store's maintenance
// loop.
type RunService struct {
	run  func(ctx context.Context) error
	name string
}

// NewRunService wraps a run function as a supervised service.
func NewRunService(name string, run func(ctx context.Context) error) *RunService {
	return &RunService{run: run, name: name}
}

// Serve implements suture.Service.
func (s *RunService) Serve(ctx context.Context) error {
	return s.run(ctx)
}

// String implements fmt.Stringer for supervisor logging.
func (s *RunService) String() string {
	return s.name
}
