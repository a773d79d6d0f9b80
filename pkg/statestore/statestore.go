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

// Package statestore provides the filter core's save_state/load_state
// persistence backends behind a single small interface.
package statestore

// StateStore is implemented by anything a filter can opt into for
// save_state/load_state. The filter that owns the state chooses the key
// (filters.Generator uses "bflow:generator:<name>"); stores use it as given.
type StateStore interface {
	Save(key string, data []byte) error
	Load(key string) ([]byte, error)
}
