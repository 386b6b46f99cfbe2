// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopsight/shopsight/internal/logging"
)

func TestMonitorStopsOnCancel(t *testing.T) {
	s := newTestStore(t)
	monitor := NewMonitor(s, time.Hour, logging.NewTestLogger(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- monitor.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}

func TestMonitorDefaultInterval(t *testing.T) {
	s := newTestStore(t)
	monitor := NewMonitor(s, 0, logging.NewTestLogger(io.Discard))
	if monitor.interval != defaultMonitorInterval {
		t.Errorf("interval = %v, want %v", monitor.interval, defaultMonitorInterval)
	}
}

func TestMonitorString(t *testing.T) {
	s := newTestStore(t)
	monitor := NewMonitor(s, time.Minute, logging.NewTestLogger(io.Discard))
	if got := monitor.String(); got != "store-monitor" {
		t.Errorf("String() = %q, want store-monitor", got)
	}
}
