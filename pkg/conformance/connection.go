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

// testConnection exercises defaultSinkConnect's error contract: duplicate
// connection on the same port, out-of-range port, nil sink.
func testConnection(t *testing.T, f Factory) {
	inst := f.New(t)
	if inst.MaxSinkPort == 0 {
		t.Skip("filter has no sink port")
	}

	sink := inst.NewSink(t)
	if ec := inst.Filter.SinkConnect(0, sink); ec != bflow.OK {
		t.Fatalf("first SinkConnect(0): %v", ec)
	}

	other := inst.NewSink(t)
	if ec := inst.Filter.SinkConnect(0, other); ec != bflow.ErrAlreadyConnected {
		t.Fatalf("duplicate SinkConnect(0) = %v, want ALREADY_CONNECTED", ec)
	}

	if ec := inst.Filter.SinkConnect(inst.MaxSinkPort, other); ec != bflow.ErrExceedsMaxSinks {
		t.Fatalf("SinkConnect(%d) (out of range) = %v, want EXCEEDS_MAX_SINKS", inst.MaxSinkPort, ec)
	}

	if ec := inst.Filter.SinkConnect(0, nil); ec != bflow.ErrNullPtr {
		t.Fatalf("SinkConnect(nil) = %v, want NULL_PTR", ec)
	}

	inst.Filter.Deinit()
}
