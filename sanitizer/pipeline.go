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

// Package sanitizer implements the ingress/checker/egress admissibility
// pipeline (§4.8): packets arrive over a Subscriber, pass through the
// future/expired/duplicate detectors in order, and admitted packets are
// republished over a Publisher.
package sanitizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/uofuseismo/seisbus/anomaly"
	"github.com/uofuseismo/seisbus/packet"
	"github.com/uofuseismo/seisbus/pubsub"
	"github.com/uofuseismo/seisbus/queue"
	"github.com/uofuseismo/seisbus/stats"
	"github.com/uofuseismo/seisbus/transport"
)

// pollInterval is how often the checker and egress threads poll their queue
// when it is empty. The pipeline's threads are plain goroutines over
// non-blocking queues (§4.3), not a condition-variable design, so an empty
// queue is observed by a short sleep rather than a wakeup signal.
const pollInterval = time.Millisecond

// Config configures a Pipeline.
type Config struct {
	Ingress pubsub.SubscriberConfig
	Egress  pubsub.PublisherConfig

	// QueueCapacity sizes both Qin and Qout; non-positive falls back to
	// queue.DefaultCapacity (256, §3).
	QueueCapacity int

	MaximumFutureTime time.Duration
	MaximumLatency    time.Duration
	Duplicate         anomaly.DuplicateConfig

	// LogBadDataInterval is the detectors' rejected-channel log cadence.
	LogBadDataInterval time.Duration

	Counters *stats.Counters
}

// Pipeline owns the three threads and two bounded queues described in §4.8.
type Pipeline struct {
	cfg Config

	subscriber *pubsub.Subscriber
	publisher  *pubsub.Publisher

	qin  *queue.Queue[*packet.Packet]
	qout *queue.Queue[*packet.Packet]

	detectors []anomaly.Detector
	counters  *stats.Counters

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// NewPipeline builds a Pipeline from cfg, wiring a Subscriber whose callback
// feeds Qin and a Publisher used by the egress thread.
func NewPipeline(registry *transport.Registry, cfg Config) (*Pipeline, error) {
	if cfg.MaximumLatency <= 0 {
		return nil, fmt.Errorf("%w: maximum latency must be positive", ErrInvalidConfig)
	}

	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = queue.DefaultCapacity
	}

	counters := cfg.Counters
	if counters == nil {
		counters = stats.New()
	}

	p := &Pipeline{
		cfg:      cfg,
		qin:      queue.New[*packet.Packet](capacity),
		qout:     queue.New[*packet.Packet](capacity),
		counters: counters,
		detectors: []anomaly.Detector{
			anomaly.NewFutureDetector(cfg.MaximumFutureTime, cfg.LogBadDataInterval),
			anomaly.NewExpiredDetector(cfg.MaximumLatency, cfg.LogBadDataInterval),
			anomaly.NewDuplicateDetector(withLogInterval(cfg.Duplicate, cfg.LogBadDataInterval)),
		},
	}

	ingressCfg := cfg.Ingress
	ingressCfg.Callback = p.ingressCallback
	subscriber, err := pubsub.NewSubscriber(registry, ingressCfg)
	if err != nil {
		return nil, err
	}
	p.subscriber = subscriber

	publisher, err := pubsub.NewPublisher(registry, cfg.Egress)
	if err != nil {
		return nil, err
	}
	p.publisher = publisher

	return p, nil
}

func withLogInterval(cfg anomaly.DuplicateConfig, logInterval time.Duration) anomaly.DuplicateConfig {
	cfg.LogInterval = logInterval
	return cfg
}

// ingressCallback is the Subscriber callback: a non-blocking enqueue into
// Qin, dropping and counting on overflow (§4.8).
func (p *Pipeline) ingressCallback(pkt *packet.Packet) {
	p.counters.IncReceived()
	if !p.qin.TryEnqueue(pkt) {
		p.counters.AddQueueDiscards(1)
		log.WithField("channel", pkt.Name()).Warn("sanitizer: Qin full, dropping packet")
	}
}

// Start launches the subscriber and the checker/egress threads.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(ctx)
	p.cancel = cancel
	p.group = group
	p.running = true

	p.subscriber.Start()
	group.Go(func() error { return p.checkerLoop(groupCtx) })
	group.Go(func() error { return p.egressLoop(groupCtx) })
	return nil
}

// Stop signals both threads, joins them, and stops the subscriber.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel := p.cancel
	group := p.group
	p.mu.Unlock()

	cancel()
	err := group.Wait()
	p.subscriber.Stop()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return err
}

// checkerLoop drains Qin, running the detectors in order (future -> expired
// -> duplicate), short-circuiting on the first rejection, and enqueues
// admitted packets into Qout.
func (p *Pipeline) checkerLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if discarded := p.qin.DrainExcess(); discarded > 0 {
			p.counters.AddQueueDiscards(discarded)
		}

		pkt, ok := p.qin.TryDequeue()
		if !ok {
			if !sleep(ctx, pollInterval) {
				return nil
			}
			continue
		}

		admitted, reason := p.evaluate(pkt)
		if !admitted {
			p.countRejection(reason)
			continue
		}

		if !p.qout.TryEnqueue(pkt) {
			p.counters.AddQueueDiscards(1)
			log.WithField("channel", pkt.Name()).Warn("sanitizer: Qout full, dropping packet")
		}
	}
}

type rejectionReason int

const (
	rejectionNone rejectionReason = iota
	rejectionFuture
	rejectionExpired
	rejectionDuplicate
	rejectionSlip
)

// evaluate runs the detectors in the required order, short-circuiting on
// the first rejection (§4.2, §4.8). Detectors that implement
// anomaly.Classifier (the duplicate detector) report which of the
// exact/slip/back-fill classes produced the rejection, so it can be
// counted more precisely than a plain "duplicate".
func (p *Pipeline) evaluate(pkt *packet.Packet) (bool, rejectionReason) {
	for i, d := range p.detectors {
		if cd, ok := d.(anomaly.Classifier); ok {
			allow, class, err := cd.AllowWithClass(pkt)
			if err != nil {
				log.WithError(err).WithField("channel", pkt.Name()).Warn("sanitizer: detector error, rejecting packet")
				return false, rejectionReason(i + 1)
			}
			if !allow {
				if class == anomaly.RejectSlip {
					return false, rejectionSlip
				}
				return false, rejectionDuplicate
			}
			continue
		}

		allow, err := d.Allow(pkt)
		if err != nil {
			log.WithError(err).WithField("channel", pkt.Name()).Warn("sanitizer: detector error, rejecting packet")
			return false, rejectionReason(i + 1)
		}
		if !allow {
			return false, rejectionReason(i + 1)
		}
	}
	return true, rejectionNone
}

func (p *Pipeline) countRejection(reason rejectionReason) {
	switch reason {
	case rejectionFuture:
		p.counters.IncRejectedFuture()
	case rejectionExpired:
		p.counters.IncRejectedExpired()
	case rejectionDuplicate:
		p.counters.IncRejectedDuplicate()
	case rejectionSlip:
		p.counters.IncRejectedSlip()
	}
}

// egressLoop peeks Qout, serializes once, sends via the Publisher, and pops
// on either success or failure, logging and counting failures (§4.8).
func (p *Pipeline) egressLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		pkt, ok := p.qout.Peek()
		if !ok {
			if !sleep(ctx, pollInterval) {
				return nil
			}
			continue
		}

		if err := p.publisher.Send(pkt); err != nil {
			log.WithError(err).WithField("channel", pkt.Name()).Warn("sanitizer: egress send failed")
			p.counters.IncSendFailed()
		} else {
			p.counters.IncSent()
		}
		p.qout.TryDequeue()
	}
}

// sleep blocks for d or until ctx is done, returning false in the latter
// case so callers can exit their loop promptly.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
