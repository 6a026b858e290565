// Copyright 2024 The TypMark Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package typmark

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the span-creation hook used to instrument each pipeline
// stage of Parse (spec.md §9.3). It is an alias, not a wrapper, so any
// otel/trace.Tracer (real or noop) can be passed directly.
type Tracer = trace.Tracer

// Metrics is the optional counter/histogram hook for Parse. A nil
// Metrics disables all metric recording; Parse never fails or changes
// its output because of a missing or misbehaving Metrics.
type Metrics struct {
	StageDuration *prometheus.HistogramVec // labeled by "stage"
	Diagnostics   *prometheus.CounterVec   // labeled by "severity"
}

// pipelineTelemetry bundles the per-call instrumentation state. A
// fresh run_id (spec.md §9.3) tags every span and metric sample for
// this Parse call, but is never embedded in the returned HTML or
// diagnostics: embedding it would make output non-deterministic
// across otherwise-identical calls, violating spec.md §5.
type pipelineTelemetry struct {
	tracer  Tracer
	metrics *Metrics
	runID   string
}

func newPipelineTelemetry(tracer Tracer, metrics *Metrics) *pipelineTelemetry {
	return &pipelineTelemetry{tracer: tracer, metrics: metrics, runID: uuid.NewString()}
}

// stage runs fn inside a span named name (if a Tracer is configured)
// and records its wall-clock duration (if Metrics is configured).
func (t *pipelineTelemetry) stage(ctx context.Context, name string, fn func(ctx context.Context)) {
	if t.tracer != nil {
		var span trace.Span
		ctx, span = t.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("run_id", t.runID)))
		defer span.End()
	}
	start := time.Now()
	fn(ctx)
	if t.metrics != nil && t.metrics.StageDuration != nil {
		t.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

func (t *pipelineTelemetry) recordDiagnostics(diags []Diagnostic) {
	if t.metrics == nil || t.metrics.Diagnostics == nil {
		return
	}
	for _, d := range diags {
		t.metrics.Diagnostics.WithLabelValues(string(d.Severity)).Inc()
	}
}
