/*
Copyright (c) The seisbus Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the INI configuration every seisbus executable
// accepts via --ini=<path> (§6), following the teacher's go-ini/ini-backed
// section/key access idiom (calnex/config, calnex/api/ini.go).
package config

import (
	"fmt"
	"time"

	"github.com/go-ini/ini"

	"github.com/uofuseismo/seisbus/transport"
)

// ZeroMQ holds the [ZeroMQ] section (§6).
type ZeroMQ struct {
	ProxyFrontendAddress   transport.Endpoint
	ProxyBackendAddress    transport.Endpoint
	InputBroadcastAddress  transport.Endpoint
	OutputBroadcastAddress transport.Endpoint
	SendHighWaterMark      int
	SendTimeout            time.Duration
}

// Sanitizer holds the [Sanitizer] section (§6).
type Sanitizer struct {
	MaximumFutureTime      time.Duration
	MaximumLatency         time.Duration
	CircularBufferDuration time.Duration
	LogBadDataInterval     time.Duration
}

// SEEDLink holds the [SEEDLink] section (§6).
type SEEDLink struct {
	Address   string
	Port      int
	Selectors []Selector
}

// General holds the [General] section (§6).
type General struct {
	LogPublishingPerformanceInterval time.Duration
}

// Config is the fully parsed INI configuration for any seisbus executable.
type Config struct {
	ZeroMQ    ZeroMQ
	Sanitizer Sanitizer
	SEEDLink  SEEDLink
	General   General
}

// maxDataSelectors is the N in data_selector_<N>, §6: "N = 1…32768".
const maxDataSelectors = 32768

// Load parses path (which must exist) into a Config.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := &Config{}
	if err := loadZeroMQ(f, &cfg.ZeroMQ); err != nil {
		return nil, err
	}
	if err := loadSanitizer(f, &cfg.Sanitizer); err != nil {
		return nil, err
	}
	if err := loadSEEDLink(f, &cfg.SEEDLink); err != nil {
		return nil, err
	}
	loadGeneral(f, &cfg.General)
	return cfg, nil
}

func loadZeroMQ(f *ini.File, z *ZeroMQ) error {
	s := f.Section("ZeroMQ")
	z.ProxyFrontendAddress = transport.Endpoint(s.Key("proxyFrontendAddress").String())
	z.ProxyBackendAddress = transport.Endpoint(s.Key("proxyBackendAddress").String())
	z.InputBroadcastAddress = transport.Endpoint(s.Key("inputBroadcastAddress").String())
	z.OutputBroadcastAddress = transport.Endpoint(s.Key("outputBroadcastAddress").String())

	for _, e := range []transport.Endpoint{z.ProxyFrontendAddress, z.ProxyBackendAddress, z.InputBroadcastAddress, z.OutputBroadcastAddress} {
		if e == "" {
			continue
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%w: [ZeroMQ]: %v", ErrInvalidConfig, err)
		}
	}

	hwm, err := s.Key("sendHighWaterMark").Int()
	if err != nil {
		hwm = 1000
	}
	z.SendHighWaterMark = hwm

	timeoutMs, err := s.Key("sendTimeOutInMilliSeconds").Int()
	if err != nil {
		timeoutMs = 100
	}
	z.SendTimeout = time.Duration(timeoutMs) * time.Millisecond
	return nil
}

func loadSanitizer(f *ini.File, san *Sanitizer) error {
	s := f.Section("Sanitizer")

	futureMs, err := s.Key("maximumFutureTimeInMilliSeconds").Int()
	if err != nil {
		futureMs = 0
	}
	san.MaximumFutureTime = time.Duration(futureMs) * time.Millisecond

	latencySec, err := s.Key("maximumLatencyInSeconds").Int()
	if err != nil {
		latencySec = 600
	}
	san.MaximumLatency = time.Duration(latencySec) * time.Second

	bufferSec, err := s.Key("circularBufferDurationInSeconds").Int()
	if err != nil {
		bufferSec = 600
	}
	san.CircularBufferDuration = time.Duration(bufferSec) * time.Second

	logSec, err := s.Key("logBadDataIntervalInSeconds").Int()
	if err != nil {
		logSec = 60
	}
	san.LogBadDataInterval = time.Duration(logSec) * time.Second

	if san.MaximumLatency <= 0 {
		return fmt.Errorf("%w: [Sanitizer] maximumLatencyInSeconds must be positive", ErrInvalidConfig)
	}
	return nil
}

func loadSEEDLink(f *ini.File, sl *SEEDLink) error {
	s := f.Section("SEEDLink")
	sl.Address = s.Key("address").String()
	port, err := s.Key("port").Int()
	if err != nil {
		port = 18000
	}
	sl.Port = port

	for n := 1; n <= maxDataSelectors; n++ {
		key := fmt.Sprintf("data_selector_%d", n)
		if !s.HasKey(key) {
			continue
		}
		raw := s.Key(key).String()
		parsed, err := ParseSelectors(raw)
		if err != nil {
			return fmt.Errorf("%w: [SEEDLink] %s: %v", ErrInvalidConfig, key, err)
		}
		sl.Selectors = append(sl.Selectors, parsed...)
	}
	return nil
}

func loadGeneral(f *ini.File, g *General) {
	s := f.Section("General")
	sec, err := s.Key("logPublishingPerformanceIntervalInSeconds").Int()
	if err != nil {
		sec = 60
	}
	g.LogPublishingPerformanceInterval = time.Duration(sec) * time.Second
}
