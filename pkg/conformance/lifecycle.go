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

package conformance

import (
	"testing"

	"bflow"
)

// testLifecycle covers prompt stop and idempotent deinit:
// init -> start -> stop -> deinit, double-start rejected, double-stop and
// double-deinit are no-ops.
func testLifecycle(t *testing.T, f Factory) {
	inst := f.New(t)
	if inst.MaxSinkPort > 0 {
		connectSink(t, inst)
	}

	if ec := inst.Filter.Start(); ec != bflow.OK {
		t.Fatalf("Start: %v", ec)
	}
	if !inst.Filter.Running() {
		t.Fatalf("Running() false immediately after Start")
	}
	if ec := inst.Filter.Start(); ec != bflow.ErrAlreadyRunning {
		t.Fatalf("second Start = %v, want ALREADY_RUNNING", ec)
	}

	if ec := inst.Filter.Stop(); ec != bflow.OK {
		t.Fatalf("Stop: %v", ec)
	}
	if inst.Filter.Running() {
		t.Fatalf("Running() true after Stop returned; stop must be prompt")
	}
	// Stop-from-not-started and repeat stop are no-ops, never an error.
	if ec := inst.Filter.Stop(); ec != bflow.OK {
		t.Fatalf("second Stop = %v, want OK (no-op)", ec)
	}

	// Deinit after stop succeeds, and a second deinit is a no-op.
	inst.Filter.Deinit()
	inst.Filter.Deinit()

	// Stop on a never-started filter is a documented no-op.
	fresh := f.New(t)
	if fresh.MaxSinkPort > 0 {
		connectSink(t, fresh)
	}
	if ec := fresh.Filter.Stop(); ec != bflow.OK {
		t.Fatalf("Stop on not-started filter = %v, want OK", ec)
	}
	fresh.Filter.Deinit()
}
