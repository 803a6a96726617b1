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

// Command seedlink-publish decodes a SEEDLink miniSEED feed into canonical
// packets and publishes them onto the broadcast bus's ingress (§4.5, §4.7).
package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/uofuseismo/seisbus/config"
	"github.com/uofuseismo/seisbus/packet"
	"github.com/uofuseismo/seisbus/pubsub"
	"github.com/uofuseismo/seisbus/seedlink"
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
		fmt.Printf("seedlink-publish (github.com/uofuseismo/seisbus) %s\n", version)
		return
	}

	setLogLevel(*logLevel)

	if *iniPath == "" {
		fmt.Fprintln(os.Stderr, "seedlink-publish: --ini is required")
		os.Exit(1)
	}
	cfg, err := config.Load(*iniPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seedlink-publish: %v\n", err)
		os.Exit(1)
	}

	registry := transport.DefaultRegistry
	publisher, err := pubsub.NewPublisher(registry, pubsub.PublisherConfig{
		Endpoint:      cfg.ZeroMQ.ProxyFrontendAddress,
		HighWaterMark: cfg.ZeroMQ.SendHighWaterMark,
		SendTimeout:   cfg.ZeroMQ.SendTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("seedlink-publish: failed to construct publisher")
	}

	counters := stats.New()
	client, err := seedlink.NewClient(seedlinkConfig(cfg), func(p *packet.Packet) {
		counters.IncReceived()
		if err := publisher.Send(p); err != nil {
			log.WithError(err).WithField("channel", p.Name()).Warn("seedlink-publish: send failed")
			counters.IncSendFailed()
			return
		}
		counters.IncSent()
	})
	if err != nil {
		log.WithError(err).Fatal("seedlink-publish: invalid SEEDLink configuration")
	}

	if err := client.Start(); err != nil {
		log.WithError(err).Fatal("seedlink-publish: failed to start client")
	}
	log.WithFields(log.Fields{
		"address": cfg.SEEDLink.Address,
		"port":    cfg.SEEDLink.Port,
	}).Info("seedlink-publish: client started")

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
				log.WithError(err).Warn("seedlink-publish: metrics server exited")
			}
		}()
	}

	<-token.Done()
	log.Info("seedlink-publish: signal received, shutting down")
	client.Stop()
}

func seedlinkConfig(cfg *config.Config) seedlink.Config {
	c := seedlink.DefaultConfig()
	if cfg.SEEDLink.Address != "" {
		c.Address = cfg.SEEDLink.Address
	}
	if cfg.SEEDLink.Port != 0 {
		c.Port = cfg.SEEDLink.Port
	}
	c.Selectors = cfg.SEEDLink.Selectors
	return c
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
		log.Fatalf("seedlink-publish: unrecognized log level: %v", level)
	}
}
