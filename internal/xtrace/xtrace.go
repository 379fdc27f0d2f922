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

// Package xtrace wires an OpenTelemetry TracerProvider with a Jaeger or
// Zipkin exporter, mirroring lighthouse's internal/xtrace so engine.Client
// can open spans around CONNECT/PUBLISH/SUBSCRIBE round trips the same way
// server.go opens them around inbound client handling.
package xtrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Name is the tracer name engine.Client and transport implementations look
// up via otel.GetTracerProvider().Tracer(xtrace.Name).
const Name = "github.com/yunqi/mqttcore"

// Exporter selects which backend Init ships spans to.
type Exporter string

const (
	ExporterNone   Exporter = ""
	ExporterJaeger Exporter = "jaeger"
	ExporterZipkin Exporter = "zipkin"
)

// Options configures the process-wide TracerProvider.
type Options struct {
	Exporter    Exporter
	Endpoint    string // collector endpoint URL, exporter-specific
	ServiceName string
}

// Init installs a global TracerProvider per opts. With ExporterNone it
// installs nothing and leaves the global provider as it was (otel's no-op
// provider by default), so callers can always unconditionally call
// otel.GetTracerProvider().Tracer(xtrace.Name).
func Init(opts Options) (func(context.Context) error, error) {
	if opts.Exporter == ExporterNone {
		return func(context.Context) error { return nil }, nil
	}

	var exp sdktrace.SpanExporter
	var err error
	switch opts.Exporter {
	case ExporterJaeger:
		exp, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(opts.Endpoint)))
	case ExporterZipkin:
		exp, err = zipkin.New(opts.Endpoint)
	}
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(semconv.ServiceNameKey.String(opts.ServiceName))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
