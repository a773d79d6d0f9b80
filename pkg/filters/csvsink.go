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

package filters

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"

	"bflow"
	"bflow/pkg/filter"
	"bflow/pkg/property"
	"bflow/pkg/ringbuffer"
)

// CSVSink is a buffered CSV sink filter: one row per sample, columns
// (t_ns, value). Append-only writer with a periodic time-boxed flush and a
// best-effort retry on write error.
type CSVSink struct {
	*filter.Filter
	mu        sync.Mutex
	f         *os.File
	w         *csv.Writer
	lastFlush time.Time
}

// NewCSVSink opens (or creates) the file at path in append mode and
// constructs a CSVSink reading from in.
func NewCSVSink(name string, in *ringbuffer.BatchBuffer, path string, timeout time.Duration) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	c := &CSVSink{f: f, w: csv.NewWriter(f), lastFlush: time.Now()}
	c.Filter = filter.New(filter.Config{
		Name:       name,
		FilterType: "csvsink",
		WorkerFn:   func(filt *filter.Filter) { c.workerLoop(filt) },
		MaxSinks:   0,
		TimeoutNs:  timeout,
	}, []*ringbuffer.BatchBuffer{in}, filter.Ops{})
	return c, nil
}

func (c *CSVSink) workerLoop(f *filter.Filter) {
	consumeInput0(f, func(batch *bflow.Batch, complete bool) {
		n := batch.Head
		samples := batch.Float32s()[:n]
		periodNs := batch.PeriodNs
		c.mu.Lock()
		for i, v := range samples {
			tns := batch.TNs + int64(i)*periodNs
			row := []string{strconv.FormatInt(tns, 10), strconv.FormatFloat(float64(v), 'g', -1, 32)}
			if err := c.w.Write(row); err != nil {
				c.w.Flush()
				_ = c.w.Write(row)
			}
		}
		if time.Since(c.lastFlush) > 100*time.Millisecond {
			c.w.Flush()
			c.lastFlush = time.Now()
		}
		c.mu.Unlock()
	})
	c.mu.Lock()
	c.w.Flush()
	c.mu.Unlock()
}

// Flush forces buffered rows to disk.
func (c *CSVSink) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFlush = time.Now()
	c.w.Flush()
	return c.w.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	return c.f.Close()
}

func (c *CSVSink) Constraints() []property.Constraint {
	return []property.Constraint{property.Exists{Port: 0, Key: property.DataType}}
}
func (c *CSVSink) Behaviors() []property.Behavior { return nil }
