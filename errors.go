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

// EC is the closed set of error/status codes returned by fallible core
// operations. Zero value is OK so a freshly zeroed WorkerErrInfo reads as
// "no error" without explicit initialization.
type EC int

const (
	OK EC = iota
	ErrNullPtr
	ErrInvalidArg
	ErrInvalidConfig
	ErrAlloc
	ErrAlreadyRunning
	ErrNotRunning
	ErrTimeout
	ErrStopped
	ErrComplete
	ErrNoSink
	ErrAlreadyConnected
	ErrExceedsMaxSinks
	ErrDtypeMismatch
	ErrWidthMismatch
	ErrPhaseError
	ErrFileNotFound
	ErrIOError
	ErrParseError
	ErrColumnNotFound
	ErrFileFull
	ErrConsumerActive
	ErrDataDropped
	ErrIncompletePipeline
	ErrPropertyViolation
)

var ecNames = [...]string{
	OK:                    "OK",
	ErrNullPtr:            "NULL_PTR",
	ErrInvalidArg:         "INVALID_ARG",
	ErrInvalidConfig:      "INVALID_CONFIG",
	ErrAlloc:              "ALLOC",
	ErrAlreadyRunning:     "ALREADY_RUNNING",
	ErrNotRunning:         "NOT_RUNNING",
	ErrTimeout:            "TIMEOUT",
	ErrStopped:            "STOPPED",
	ErrComplete:           "COMPLETE",
	ErrNoSink:             "NO_SINK",
	ErrAlreadyConnected:   "ALREADY_CONNECTED",
	ErrExceedsMaxSinks:    "EXCEEDS_MAX_SINKS",
	ErrDtypeMismatch:      "DTYPE_MISMATCH",
	ErrWidthMismatch:      "WIDTH_MISMATCH",
	ErrPhaseError:         "PHASE_ERROR",
	ErrFileNotFound:       "FILE_NOT_FOUND",
	ErrIOError:            "IO_ERROR",
	ErrParseError:         "PARSE_ERROR",
	ErrColumnNotFound:     "COLUMN_NOT_FOUND",
	ErrFileFull:           "FILE_FULL",
	ErrConsumerActive:     "CONSUMER_ACTIVE",
	ErrDataDropped:        "DATA_DROPPED",
	ErrIncompletePipeline: "INCOMPLETE_PIPELINE",
	ErrPropertyViolation:  "PROPERTY_VIOLATION",
}

// String implements fmt.Stringer.
func (e EC) String() string {
	if int(e) >= 0 && int(e) < len(ecNames) && ecNames[e] != "" {
		return ecNames[e]
	}
	return "UNKNOWN_EC"
}

// Error implements the error interface so an EC can be returned and wrapped
// like any other Go error while still round-tripping through equality
// checks against the enum (callers compare ec == bflow.ErrTimeout directly
// rather than errors.Is in the hot path).
func (e EC) Error() string { return e.String() }

// IsLifecycleSignal reports whether e is one of the expected control-flow
// outcomes (TIMEOUT, STOPPED, COMPLETE) that never populate WorkerErrInfo,
// per the error-handling design's lifecycle-signals band.
func (e EC) IsLifecycleSignal() bool {
	return e == ErrTimeout || e == ErrStopped || e == ErrComplete
}

// WorkerErrInfo records a worker-fatal error with enough context to locate
// the check site: the error code, a human message, and the source file/line
// of the Assert call that raised it (not of the Assert helper itself).
type WorkerErrInfo struct {
	Code    EC
	Message string
	File    string
	Line    int
}

func (w WorkerErrInfo) String() string {
	if w.Code == OK {
		return "OK"
	}
	return w.Code.String() + ": " + w.Message + " (" + w.File + ")"
}
