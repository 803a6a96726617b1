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

package stats

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter serves the Counters as a Prometheus /metrics endpoint,
// the DOMAIN STACK's monitoring surface for the sanitizer and acquisition
// daemons.
type PrometheusExporter struct {
	counters *Counters
	registry *prometheus.Registry
	server   *http.Server
}

// NewPrometheusExporter builds a collector reading counters on every scrape
// and binds it to addr (not yet listening; call Start).
func NewPrometheusExporter(counters *Counters, addr string) *PrometheusExporter {
	registry := prometheus.NewRegistry()
	registry.MustRegister(newCollector(counters))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &PrometheusExporter{
		counters: counters,
		registry: registry,
		server:   &http.Server{Addr: addr, Handler: mux},
	}
}

// Start begins serving /metrics in the background. Listen errors other than
// a clean shutdown are logged by the caller via the returned channel.
func (e *PrometheusExporter) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	return errCh
}

// Stop gracefully shuts the HTTP server down.
func (e *PrometheusExporter) Stop(ctx context.Context) error {
	return e.server.Shutdown(ctx)
}

type collector struct {
	counters *Counters

	received          *prometheus.Desc
	sent              *prometheus.Desc
	rejectedFuture    *prometheus.Desc
	rejectedExpired   *prometheus.Desc
	rejectedDuplicate *prometheus.Desc
	rejectedSlip      *prometheus.Desc
	malformed         *prometheus.Desc
	queueDiscards     *prometheus.Desc
	sendFailed        *prometheus.Desc
	anomalousChannels *prometheus.Desc
}

func newCollector(counters *Counters) *collector {
	ns := "seisbus"
	return &collector{
		counters:          counters,
		received:          prometheus.NewDesc(ns+"_packets_received_total", "Packets received by the sanitizer ingress stage", nil, nil),
		sent:              prometheus.NewDesc(ns+"_packets_sent_total", "Packets republished by the sanitizer egress stage", nil, nil),
		rejectedFuture:    prometheus.NewDesc(ns+"_packets_rejected_future_total", "Packets rejected by the future detector", nil, nil),
		rejectedExpired:   prometheus.NewDesc(ns+"_packets_rejected_expired_total", "Packets rejected by the expired detector", nil, nil),
		rejectedDuplicate: prometheus.NewDesc(ns+"_packets_rejected_duplicate_total", "Packets rejected as exact duplicates or expired back-fill", nil, nil),
		rejectedSlip:      prometheus.NewDesc(ns+"_packets_rejected_slip_total", "Packets rejected as timing slips", nil, nil),
		malformed:         prometheus.NewDesc(ns+"_messages_malformed_total", "Messages that failed the subscriber's frame/type/decode contract", nil, nil),
		queueDiscards:     prometheus.NewDesc(ns+"_queue_discards_total", "Packets discarded due to bounded-queue overflow", nil, nil),
		sendFailed:        prometheus.NewDesc(ns+"_send_failed_total", "Publish attempts that errored on the wire", nil, nil),
		anomalousChannels: prometheus.NewDesc(ns+"_anomalous_channels", "Distinct channel names with an anomaly since the last interval", nil, nil),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.received
	ch <- c.sent
	ch <- c.rejectedFuture
	ch <- c.rejectedExpired
	ch <- c.rejectedDuplicate
	ch <- c.rejectedSlip
	ch <- c.malformed
	ch <- c.queueDiscards
	ch <- c.sendFailed
	ch <- c.anomalousChannels
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.counters.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.received, prometheus.CounterValue, float64(snap.Received))
	ch <- prometheus.MustNewConstMetric(c.sent, prometheus.CounterValue, float64(snap.Sent))
	ch <- prometheus.MustNewConstMetric(c.rejectedFuture, prometheus.CounterValue, float64(snap.RejectedFuture))
	ch <- prometheus.MustNewConstMetric(c.rejectedExpired, prometheus.CounterValue, float64(snap.RejectedExpired))
	ch <- prometheus.MustNewConstMetric(c.rejectedDuplicate, prometheus.CounterValue, float64(snap.RejectedDuplicate))
	ch <- prometheus.MustNewConstMetric(c.rejectedSlip, prometheus.CounterValue, float64(snap.RejectedSlip))
	ch <- prometheus.MustNewConstMetric(c.malformed, prometheus.CounterValue, float64(snap.Malformed))
	ch <- prometheus.MustNewConstMetric(c.queueDiscards, prometheus.CounterValue, float64(snap.QueueDiscards))
	ch <- prometheus.MustNewConstMetric(c.sendFailed, prometheus.CounterValue, float64(snap.SendFailed))
	ch <- prometheus.MustNewConstMetric(c.anomalousChannels, prometheus.GaugeValue, float64(c.counters.AnomalousChannelCount()))
}
