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

import "time"

// Status is the overall health status of a peer process.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// HealthStatus is the complete health status of one peer process.
type HealthStatus struct {
	Status    Status       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Storage   StorageHealth `json:"storage"`
	Tasks     TasksHealth  `json:"tasks"`
	Errors    []string     `json:"errors,omitempty"`
}

// StorageHealth reports whether the event store backing this peer is
// reachable.
type StorageHealth struct {
	Status    Status `json:"status"`
	Reachable bool   `json:"reachable"`
	Events    uint64 `json:"events,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TasksHealth reports whether the periodic GC/anti-entropy tick is still
// running and how long ago it last completed.
type TasksHealth struct {
	Status       Status `json:"status"`
	LastTickAgo  string `json:"last_tick_ago,omitempty"`
	LastTickOK   bool   `json:"last_tick_ok"`
	NeverTicked  bool   `json:"never_ticked,omitempty"`
}
