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

// Package config holds the YAML-driven configuration for an engine.Client,
// validated with github.com/go-playground/validator/v10, the same way
// lighthouse's config package is meant to validate its Config before the
// broker starts.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Configuration is implemented by every top-level config document.
type Configuration interface {
	// Validate reports whether the configuration is safe to start an
	// engine.Client from. If it returns an error the client must not start.
	Validate() error
}

// Config is the root configuration document for one engine.Client.
type Config struct {
	Mqtt   Mqtt   `yaml:"mqtt"`
	Engine Engine `yaml:"engine"`
	Log    Log    `yaml:"log"`
	Trace  Trace  `yaml:"trace"`
}

func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Mqtt holds the CONNECT-level parameters of spec.md §3's ConnInfo.
type Mqtt struct {
	ClientID     string        `yaml:"client_id" validate:"required,max=23"`
	CleanSession bool          `yaml:"clean_session"`
	KeepAlive    time.Duration `yaml:"keep_alive" validate:"min=0"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	WillTopic    string        `yaml:"will_topic"`
	WillMessage  string        `yaml:"will_message"`
	WillQoS      uint8         `yaml:"will_qos" validate:"max=2"`
	WillRetain   bool          `yaml:"will_retain"`
}

// Engine holds the constrained-environment resource bounds of spec.md §3's
// engine-instance fields: tx/rx buffer sizes, the request table slab size,
// and the poll cadence.
type Engine struct {
	// TxBufferSize bounds the outbound ring buffer (spec.md §4.2's
	// CHECK_ENOUGH_MEMORY budget).
	TxBufferSize int `yaml:"tx_buffer_size" validate:"required,min=64"`
	// RxBufferSize bounds the staging buffer the parser copies
	// non-zero-copy frames into (spec.md §4.3).
	RxBufferSize int `yaml:"rx_buffer_size" validate:"required,min=64"`
	// MaxRequests is the fixed request-table slab size (spec.md §3).
	MaxRequests int `yaml:"max_requests" validate:"required,min=1"`
	// PollInterval is how often the caller is expected to invoke
	// engine.Client.OnPoll (spec.md §4.6); it must be shorter than KeepAlive
	// or the keep-alive timer cannot be serviced in time.
	PollInterval time.Duration `yaml:"poll_interval" validate:"required"`
	// ReconnectMinBackoff/ReconnectMaxBackoff bound cmd/mqttc's jittered
	// reconnect delay (SPEC_FULL.md's bytedance/gopkg wiring).
	ReconnectMinBackoff time.Duration `yaml:"reconnect_min_backoff" validate:"required"`
	ReconnectMaxBackoff time.Duration `yaml:"reconnect_max_backoff" validate:"required,gtefield=ReconnectMinBackoff"`
}

// Log configures internal/xlog's process-wide sink.
type Log struct {
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"min=0"`
	Compress   bool   `yaml:"compress"`
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Trace configures internal/xtrace's process-wide TracerProvider.
type Trace struct {
	Exporter    string `yaml:"exporter" validate:"omitempty,oneof=jaeger zipkin"`
	Endpoint    string `yaml:"endpoint" validate:"required_with=Exporter"`
	ServiceName string `yaml:"service_name"`
}
