//go:build trace

package common

//
// tracing.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"context"
	"runtime/trace"
	"strings"

	xtrace "golang.org/x/net/trace"
)

const TracingAvailable = true

// traceCategory use text before first colon as runtime/trace category.
func traceCategory(format string) string {
	if cat, _, ok := strings.Cut(format, ":"); ok {
		return cat
	}

	return ""
}

// TraceLazyPrintf put annotation into active runtime trace and request
// x/net/trace when one is bound to context.
func TraceLazyPrintf(ctx context.Context, format string, a ...any) {
	if trace.IsEnabled() {
		trace.Logf(ctx, traceCategory(format), format, a...)
	}

	if tr, ok := xtrace.FromContext(ctx); ok && tr != nil {
		tr.LazyPrintf(format, a...)
	}
}

// TraceErrorLazyPrintf annotate like TraceLazyPrintf and mark x/net/trace
// request as failed.
func TraceErrorLazyPrintf(ctx context.Context, format string, a ...any) {
	if trace.IsEnabled() {
		category := "error"
		if cat := traceCategory(format); cat != "" {
			category += " " + cat
		}

		trace.Logf(ctx, category, format, a...)
	}

	if tr, ok := xtrace.FromContext(ctx); ok && tr != nil {
		tr.LazyPrintf(format, a...)
		tr.SetError()
	}
}

// EventLog record long-running worker activity for /debug/events page.
// Nil receiver is a no-op, so workers may run without one.
type EventLog struct {
	events xtrace.EventLog
}

func NewEventLog(pkg, domain string) *EventLog {
	return &EventLog{xtrace.NewEventLog(pkg, domain)}
}

func (e *EventLog) active() bool {
	return e != nil && e.events != nil
}

func (e *EventLog) Printf(format string, a ...any) {
	if e.active() {
		e.events.Printf(format, a...)
	}
}

func (e *EventLog) Errorf(format string, a ...any) {
	if e.active() {
		e.events.Errorf(format, a...)
	}
}

func (e *EventLog) Close() {
	if e.active() {
		e.events.Finish()
	}
}
