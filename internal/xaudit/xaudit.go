/*
 *    Copyright 2021 chenquan
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package xaudit publishes engine application events onto a Redis stream
// for operators running a fleet of engine.Client instances under one
// cmd/mqttc supervisor (SPEC_FULL.md's DOMAIN STACK entry for go-redis).
// It is entirely optional: an engine.Client with no Sink attached never
// touches Redis.
package xaudit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yunqi/mqttcore/internal/xlog"
	"go.uber.org/zap"
)

// Event is one application-level occurrence worth recording, e.g. a
// connection state change or a delivered publish.
type Event struct {
	ClientID string
	Kind     string // "connect", "disconnect", "publish", "subscribe", ...
	Topic    string // empty when not applicable
}

// Sink fans Events out to a Redis stream with XAdd, dropping (and logging)
// publish errors rather than blocking the caller's engine loop.
type Sink struct {
	rdb    *redis.Client
	stream string
	log    *xlog.Log
}

// NewSink returns a Sink that writes to the given Redis stream key.
func NewSink(opts *redis.Options, stream string) *Sink {
	return &Sink{rdb: redis.NewClient(opts), stream: stream, log: xlog.LoggerModule("xaudit")}
}

// Record fire-and-forgets ev onto the stream with a bounded timeout so a
// slow or unreachable Redis never stalls the engine's poll loop.
func (s *Sink) Record(ev Event) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"client_id": ev.ClientID,
			"kind":      ev.Kind,
			"topic":     ev.Topic,
		},
	}).Err()
	if err != nil {
		s.log.Warn("xadd failed", zap.String("stream", s.stream), zap.Error(err))
	}
}

// Close releases the underlying Redis connection pool.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	return s.rdb.Close()
}
