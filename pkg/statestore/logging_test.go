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

package statestore

import "testing"

func TestLoggingStore_SaveLoadRoundTrip(t *testing.T) {
	s := NewLoggingStore()
	if err := s.Save("pipeline/filter", []byte("hello")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("pipeline/filter")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("Load = %q, want %q", got, "hello")
	}
}

func TestLoggingStore_LoadMissingKeyReturnsNilNoError(t *testing.T) {
	s := NewLoggingStore()
	got, err := s.Load("missing")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Fatalf("Load(missing) = %v, want nil", got)
	}
}
