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

// Command sanitizerd runs the ingress/checker/egress admissibility pipeline
// (§4.8): it subscribes to the broadcast bus's egress, rejects future-timed,
// expired, and duplicate/timing-slip packets, and republishes the survivors.
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/uofuseismo/seisbus/anomaly"
	"github.com/uofuseismo/seisbus/config"
	"github.com/uofuseismo/seisbus/pubsub"
	"github.com/uofuseismo/seisbus/sanitizer"
	"github.com/uofuseismo/seisbus/signal"
	"github.com/uofuseismo/seisbus/stats"
	"github.com/uofuseismo/seisbus/transport"
)

var version = "dev"

func main() {
	iniPath := flag.String("ini", "", "path to the seisbus INI configuration file")
	logLevel := flag.String("loglevel", "info", "log level: debug, info, warning, error")
	metricsAddr := flag.String("metricsaddr", "", "host:port to serve Prometheus metrics on; empty disables")
	printVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *printVersion {
		fmt.Printf("sanitizerd (github.com/uofuseismo/seisbus) %s\n", version)
		return
	}

	setLogLevel(*logLevel)

	if *iniPath == "" {
		fmt.Fprintln(os.Stderr, "sanitizerd: --ini is required")
		os.Exit(1)
	}
	cfg, err := config.Load(*iniPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sanitizerd: %v\n", err)
		os.Exit(1)
	}

	registry := transport.DefaultRegistry
	counters := stats.New()

	pipeline, err := sanitizer.NewPipeline(registry, sanitizer.Config{
		Ingress: pubsub.SubscriberConfig{
			Endpoint:      cfg.ZeroMQ.InputBroadcastAddress,
			HighWaterMark: cfg.ZeroMQ.SendHighWaterMark,
			LogInterval:   cfg.Sanitizer.LogBadDataInterval,
		},
		Egress: pubsub.PublisherConfig{
			Endpoint:      cfg.ZeroMQ.OutputBroadcastAddress,
			HighWaterMark: cfg.ZeroMQ.SendHighWaterMark,
			SendTimeout:   cfg.ZeroMQ.SendTimeout,
		},
		MaximumFutureTime:  cfg.Sanitizer.MaximumFutureTime,
		MaximumLatency:     cfg.Sanitizer.MaximumLatency,
		LogBadDataInterval: cfg.Sanitizer.LogBadDataInterval,
		Duplicate: anomaly.DuplicateConfig{
			RetentionDuration: cfg.Sanitizer.CircularBufferDuration,
			LogInterval:       cfg.Sanitizer.LogBadDataInterval,
		},
		Counters: counters,
	})
	if err != nil {
		log.WithError(err).Fatal("sanitizerd: invalid pipeline configuration")
	}

	if err := pipeline.Start(); err != nil {
		log.WithError(err).Fatal("sanitizerd: failed to start pipeline")
	}
	log.WithFields(log.Fields{
		"ingress": cfg.ZeroMQ.InputBroadcastAddress,
		"egress":  cfg.ZeroMQ.OutputBroadcastAddress,
	}).Info("sanitizerd: pipeline started")

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
				log.WithError(err).Warn("sanitizerd: metrics server exited")
			}
		}()
	}

	<-token.Done()
	log.Info("sanitizerd: signal received, shutting down")
	if err := pipeline.Stop(); err != nil {
		log.WithError(err).Warn("sanitizerd: pipeline stopped with error")
	}
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
		log.Fatalf("sanitizerd: unrecognized log level: %v", level)
	}
}
