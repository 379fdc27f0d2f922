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

// Package goroutine bounds concurrent engine event loops behind a
// github.com/panjf2000/ants/v2 pool, the same pattern lighthouse's
// server.go uses for goroutine.Go(func() { c.listen() }).
package goroutine

import (
	"github.com/panjf2000/ants/v2"
	"github.com/yunqi/mqttcore/internal/xlog"
	"go.uber.org/zap"
)

var (
	pool *ants.Pool
	log  = xlog.LoggerModule("goroutine")
)

// Init installs the process-wide pool with the given capacity. Until Init
// is called, Go falls back to an unbounded plain "go" statement so tests
// and single-client callers don't need to set this up.
func Init(capacity int) error {
	p, err := ants.NewPool(capacity)
	if err != nil {
		return err
	}
	pool = p
	return nil
}

// Go runs fn on the pool if one was installed, otherwise on a bare
// goroutine. If pool.Submit returns an error, it is logged and fn is
// dropped.
func Go(fn func()) {
	if pool == nil {
		go fn()
		return
	}
	if err := pool.Submit(fn); err != nil {
		log.Error("submit rejected", zap.Error(err))
	}
}

// Release frees the process-wide pool's goroutines. Safe to call even if
// Init was never called.
func Release() {
	if pool != nil {
		pool.Release()
	}
}
