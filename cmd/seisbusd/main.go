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

// Command seisbusd runs the broadcast proxy (§4.4): a fan-in ingress fed by
// one or more publishers, fanned out to any number of subscribers on the
// egress, with an in-band pause/resume/terminate control channel.
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/uofuseismo/seisbus/bus"
	"github.com/uofuseismo/seisbus/config"
	"github.com/uofuseismo/seisbus/signal"
	"github.com/uofuseismo/seisbus/stats"
	"github.com/uofuseismo/seisbus/transport"
)

// version is overwritten at build time via -ldflags.
var version = "dev"

func main() {
	iniPath := flag.String("ini", "", "path to the seisbus INI configuration file")
	logLevel := flag.String("loglevel", "info", "log level: debug, info, warning, error")
	metricsAddr := flag.String("metricsaddr", "", "host:port to serve Prometheus metrics on; empty disables")
	printVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *printVersion {
		fmt.Printf("seisbusd (github.com/uofuseismo/seisbus) %s\n", version)
		return
	}

	setLogLevel(*logLevel)

	if *iniPath == "" {
		fmt.Fprintln(os.Stderr, "seisbusd: --ini is required")
		os.Exit(1)
	}
	cfg, err := config.Load(*iniPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seisbusd: %v\n", err)
		os.Exit(1)
	}

	registry := transport.DefaultRegistry
	proxy, err := bus.NewProxy(registry, cfg.ZeroMQ.ProxyFrontendAddress, cfg.ZeroMQ.ProxyBackendAddress, cfg.ZeroMQ.SendHighWaterMark)
	if err != nil {
		log.WithError(err).Fatal("seisbusd: failed to construct proxy")
	}

	if err := proxy.Start(); err != nil {
		log.WithError(err).Fatal("seisbusd: failed to start proxy")
	}
	log.WithFields(log.Fields{
		"frontend": cfg.ZeroMQ.ProxyFrontendAddress,
		"backend":  cfg.ZeroMQ.ProxyBackendAddress,
		"control":  proxy.ControlEndpoint(),
	}).Info("seisbusd: proxy started")

	counters := stats.New()
	token, stopSignals := signal.NewToken()
	defer stopSignals()
	doneCh := make(chan struct{})
	defer close(doneCh)
	counters.StartPeriodicLogging(cfg.General.LogPublishingPerformanceInterval, doneCh)

	if *metricsAddr != "" {
		exporter := stats.NewPrometheusExporter(counters, *metricsAddr)
		errCh := exporter.Start()
		go func() {
			if err := <-errCh; err != nil {
				log.WithError(err).Warn("seisbusd: metrics server exited")
			}
		}()
	}

	<-token.Done()
	log.Info("seisbusd: signal received, shutting down")
	proxy.Stop()
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Fatalf("seisbusd: unrecognized log level: %v", level)
	}
}
