// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bflow

import (
	"fmt"
	"runtime"
)

// ErrSink is the minimal surface a worker-hosting filter must expose for
// Assert to record a worker-fatal error against it. pkg/filter.Filter
// implements this; it lives here (not in pkg/filter) so that filter
// implementations in leaf packages can call bflow.Assert without importing
// pkg/filter themselves.
type ErrSink interface {
	SetWorkerErr(WorkerErrInfo)
	SetRunning(bool)
}

// Assert records a worker-fatal error with the location of the check site:
// a worker calls it where the check happens, and on a non-OK code it records the
// caller's file/line (not Assert's own) into the filter's WorkerErrInfo,
// clears running, and returns true so the worker can do:
//
//	if bflow.Assert(f, bflow.ErrIOError, "short read: %v", err) {
//	    return
//	}
//
// A zero/OK code is a no-op and returns false, so callers can use Assert
// directly in a precondition check without a separate "if err != nil" guard.
func Assert(f ErrSink, code EC, format string, args ...any) bool {
	if code == OK {
		return false
	}
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "unknown", 0
	}
	f.SetWorkerErr(WorkerErrInfo{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		File:    file,
		Line:    line,
	})
	f.SetRunning(false)
	return true
}
