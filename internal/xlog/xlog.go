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

// Package xlog wraps go.uber.org/zap with a process-wide, lumberjack-backed
// rotating sink, matching lighthouse's internal/xlog so every mqttcore
// package logs the same way (SPEC_FULL.md's ambient stack).
package xlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var defaultSink = os.Stdout

// Log is a named logger bound to one module ("engine", "transport/tcp", ...).
type Log = zap.Logger

var base *zap.Logger

// Options configures the process-wide log sink. The zero value logs to
// stdout only (no rotation), which is what tests and cmd/mqttc use by
// default.
type Options struct {
	Filename   string // empty disables file rotation
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Level      zapcore.Level
}

// Init installs the process-wide logger. Call once at startup; LoggerModule
// falls back to zap's development logger (writing to stderr) if Init was
// never called.
func Init(opts Options) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var core zapcore.Core
	if opts.Filename != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.Filename,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
		core = zapcore.NewCore(encoder, writer, opts.Level)
	} else {
		core = zapcore.NewCore(encoder, zapcore.AddSync(zapcore.Lock(zapcore.AddSync(defaultSink))), opts.Level)
	}
	base = zap.New(core)
}

// LoggerModule returns a logger scoped to name, e.g. LoggerModule("engine").
func LoggerModule(name string) *Log {
	if base == nil {
		l, _ := zap.NewDevelopment()
		base = l
	}
	return base.Named(name)
}
