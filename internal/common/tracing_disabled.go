//go:build !trace

package common

//
// tracing_disabled.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import "context"

const TracingAvailable = false

// no-op stand-ins compiled without the trace tag

func TraceLazyPrintf(context.Context, string, ...any) {}

func TraceErrorLazyPrintf(context.Context, string, ...any) {}

type EventLog struct{}

func NewEventLog(string, string) *EventLog { return &EventLog{} }

func (e *EventLog) Printf(string, ...any) {}

func (e *EventLog) Errorf(string, ...any) {}

func (e *EventLog) Close() {}
