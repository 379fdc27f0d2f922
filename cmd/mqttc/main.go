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

// Command mqttc runs one engine.Client from a single YAML config, mirroring
// how lighthouse's cmd wires config, xlog and xtrace together before
// starting its server. Each connection attempt gets a fresh client and TCP
// transport, and the supervisor redials with a jittered backoff after a
// disconnect or a failed connect.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/bytedance/gopkg/lang/fastrand"
	"github.com/yunqi/mqttcore/config"
	"github.com/yunqi/mqttcore/engine"
	"github.com/yunqi/mqttcore/internal/goroutine"
	"github.com/yunqi/mqttcore/internal/xaudit"
	"github.com/yunqi/mqttcore/internal/xlog"
	"github.com/yunqi/mqttcore/internal/xtrace"
	"github.com/yunqi/mqttcore/transport/tcp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfgPath := flag.String("config", "mqttc.yaml", "path to the client config file")
	addr := flag.String("addr", "127.0.0.1:1883", "broker TCP address")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		println("mqttc: loading config: " + err.Error())
		os.Exit(1)
	}

	level := zapcore.InfoLevel
	_ = level.UnmarshalText([]byte(cfg.Log.Level))
	xlog.Init(xlog.Options{
		Filename:   cfg.Log.Filename,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Level:      level,
	})
	log := xlog.LoggerModule("cmd/mqttc")

	shutdownTracing, err := xtrace.Init(xtrace.Options{
		Exporter:    xtrace.Exporter(cfg.Trace.Exporter),
		Endpoint:    cfg.Trace.Endpoint,
		ServiceName: cfg.Trace.ServiceName,
	})
	if err != nil {
		log.Fatal("init tracing", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	if err := goroutine.Init(runtime.NumCPU() * 4); err != nil {
		log.Fatal("init goroutine pool", zap.Error(err))
	}
	defer goroutine.Release()

	var audit *xaudit.Sink // nil: disabled unless a Redis address is configured via env/flag in a fuller deployment.
	defer audit.Close()

	sup := newSupervisor(cfg, *addr, audit, log)
	goroutine.Go(sup.run)

	select {}
}

// supervisor owns one engine.Client and redials addr with a jittered
// backoff whenever the connection drops, the way a constrained device
// would keep a single MQTT session alive across flaky links.
type supervisor struct {
	cfg  *config.Config
	addr string
	aud  *xaudit.Sink
	log  *xlog.Log

	client *engine.Client
}

func newSupervisor(cfg *config.Config, addr string, aud *xaudit.Sink, log *xlog.Log) *supervisor {
	return &supervisor{cfg: cfg, addr: addr, aud: aud, log: log}
}

func (s *supervisor) run() {
	backoff := s.cfg.Engine.ReconnectMinBackoff
	for {
		if err := s.connectOnce(); err != nil {
			s.log.Warn("connect attempt failed", zap.Error(err))
		}

		jittered := backoff + time.Duration(fastrand.Intn(int(backoff/2+1)))
		time.Sleep(jittered)

		backoff *= 2
		if backoff > s.cfg.Engine.ReconnectMaxBackoff {
			backoff = s.cfg.Engine.ReconnectMaxBackoff
		}
	}
}

func (s *supervisor) connectOnce() error {
	c := engine.New(s.cfg.Engine.TxBufferSize, s.cfg.Engine.RxBufferSize, s.cfg.Engine.MaxRequests)
	s.client = c

	done := make(chan struct{})
	var closeOnce bool

	tr := tcp.New(s.addr, nil, c)
	c.Attach(tr)

	info := engine.ConnInfo{
		ClientID:     s.cfg.Mqtt.ClientID,
		KeepAlive:    uint16(s.cfg.Mqtt.KeepAlive / time.Second),
		CleanSession: s.cfg.Mqtt.CleanSession,
	}
	if s.cfg.Mqtt.Username != "" {
		info.Username = s.cfg.Mqtt.Username
		info.HasUsername = true
	}
	if s.cfg.Mqtt.Password != "" {
		info.Password = []byte(s.cfg.Mqtt.Password)
		info.HasPassword = true
	}
	if s.cfg.Mqtt.WillTopic != "" {
		info.Will = &engine.Will{
			Topic:   s.cfg.Mqtt.WillTopic,
			Message: s.cfg.Mqtt.WillMessage,
			QoS:     s.cfg.Mqtt.WillQoS,
			Retain:  s.cfg.Mqtt.WillRetain,
		}
	}

	cb := func(ev *engine.Event) {
		s.onEvent(ev)
		terminal := ev.Kind == engine.EvtDisconnect ||
			(ev.Kind == engine.EvtConnect && ev.Result == engine.ResultErr)
		if terminal && !closeOnce {
			closeOnce = true
			close(done)
		}
	}

	// c has no internal lock of its own (spec.md §5): tr's read loop and
	// per-Send goroutine call into c concurrently with the poll ticker
	// below, so every one of those call sites — including this first one —
	// must hold tr's shared driver lock.
	lock := tr.Locker()
	lock.Lock()
	err := c.Connect(info, cb, nil)
	lock.Unlock()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.Engine.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			lock.Lock()
			c.OnPoll()
			lock.Unlock()
		case <-done:
			return nil
		}
	}
}

func (s *supervisor) onEvent(ev *engine.Event) {
	switch ev.Kind {
	case engine.EvtConnect:
		s.log.Info("connected", zap.Uint8("status", uint8(ev.ConnectStatus)))
		s.aud.Record(xaudit.Event{ClientID: s.cfg.Mqtt.ClientID, Kind: "connect"})
	case engine.EvtDisconnect:
		s.log.Info("disconnected", zap.Bool("accepted", ev.IsAccepted))
		s.aud.Record(xaudit.Event{ClientID: s.cfg.Mqtt.ClientID, Kind: "disconnect"})
	case engine.EvtPublishRecv:
		s.log.Info("publish received", zap.String("topic", ev.Topic), zap.Int("len", len(ev.Payload)))
		s.aud.Record(xaudit.Event{ClientID: s.cfg.Mqtt.ClientID, Kind: "publish_recv", Topic: ev.Topic})
	case engine.EvtPublish, engine.EvtSubscribe, engine.EvtUnsubscribe:
		s.log.Info("request completed", zap.Uint8("kind", uint8(ev.Kind)), zap.Uint8("result", uint8(ev.Result)))
	case engine.EvtKeepAlive:
		s.log.Debug("keep-alive pong")
	}
}
