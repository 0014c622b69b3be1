// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package health

import (
	"context"
	"time"

	"github.com/nicolaschan/baybridge/pkg/storage"
)

// TickSource reports when the task controller's loop last completed a
// tick and whether that tick's GC sweep and every peer sync succeeded. Satisfied by
// *controller.Controller; kept as an interface here so health does not
// need to import controller for a read-only status check.
type TickSource interface {
	LastTick() (at time.Time, ok bool)
}

// Checker evaluates the liveness of one peer process: whether its event
// store answers, and whether its background tick loop is still making
// progress.
type Checker struct {
	store       storage.EventStore
	tasks       TickSource
	stalePeriod time.Duration
}

// NewChecker builds a Checker. stalePeriod is how old the last tick may
// be before it is considered stalled rather than merely slow (callers
// typically pass a small multiple of the configured tick period).
func NewChecker(store storage.EventStore, tasks TickSource, stalePeriod time.Duration) *Checker {
	return &Checker{store: store, tasks: tasks, stalePeriod: stalePeriod}
}

// CheckAll runs every health check and aggregates them into one status.
func (c *Checker) CheckAll(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Status:    StatusHealthy,
		Errors:    make([]string, 0),
	}

	status.Storage = c.checkStorage(ctx)
	if status.Storage.Status != StatusHealthy {
		status.Status = status.Storage.Status
		if status.Storage.Error != "" {
			status.Errors = append(status.Errors, "storage: "+status.Storage.Error)
		}
	}

	status.Tasks = c.checkTasks()
	if status.Tasks.Status == StatusUnhealthy {
		status.Status = StatusUnhealthy
	} else if status.Tasks.Status == StatusDegraded && status.Status == StatusHealthy {
		status.Status = StatusDegraded
	}

	return status
}

func (c *Checker) checkStorage(ctx context.Context) StorageHealth {
	count, err := c.store.Count(ctx)
	if err != nil {
		return StorageHealth{Status: StatusUnhealthy, Reachable: false, Error: err.Error()}
	}
	return StorageHealth{Status: StatusHealthy, Reachable: true, Events: uint64(count)}
}

func (c *Checker) checkTasks() TasksHealth {
	if c.tasks == nil {
		return TasksHealth{Status: StatusHealthy}
	}

	last, ok := c.tasks.LastTick()
	if last.IsZero() {
		return TasksHealth{Status: StatusDegraded, NeverTicked: true}
	}

	age := time.Since(last)
	health := TasksHealth{LastTickAgo: age.Round(time.Second).String(), LastTickOK: ok}

	switch {
	case c.stalePeriod > 0 && age > c.stalePeriod:
		health.Status = StatusUnhealthy
	case !ok:
		health.Status = StatusDegraded
	default:
		health.Status = StatusHealthy
	}
	return health
}
