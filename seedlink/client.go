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

package seedlink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/uofuseismo/seisbus/config"
	"github.com/uofuseismo/seisbus/packet"
)

// defaultAddress is the public IRIS ring server used when no address is
// configured.
const defaultAddress = "rtserve.iris.washington.edu"

const (
	defaultPort                  = 18000
	defaultMaximumInternalQueue  = 8192
	defaultStateFileUpdateEvery  = 100
	defaultSEEDRecordSize        = 512
	defaultNetworkReconnectDelay = 5 * time.Second
)

// Config configures a SEEDLink Client, grounded on the upstream client's
// ClientOptions (address/port, maximum internal queue size, state file and
// its update interval, SEED record size, network idle time-out and
// reconnect delay) plus the stream selectors to request.
type Config struct {
	Address                  string
	Port                     int
	MaximumInternalQueueSize int
	StateFilePath            string
	StateFileUpdateInterval  int
	SEEDRecordSize           int
	NetworkIdleTimeout       time.Duration
	NetworkReconnectDelay    time.Duration
	Selectors                []config.Selector
}

// DefaultConfig returns a Config with the upstream client's defaults.
func DefaultConfig() Config {
	return Config{
		Address:                  defaultAddress,
		Port:                     defaultPort,
		MaximumInternalQueueSize: defaultMaximumInternalQueue,
		StateFileUpdateInterval:  defaultStateFileUpdateEvery,
		SEEDRecordSize:           defaultSEEDRecordSize,
		NetworkReconnectDelay:    defaultNetworkReconnectDelay,
	}
}

func (c Config) validate() error {
	if c.Address == "" {
		return fmt.Errorf("%w: address is empty", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	switch c.SEEDRecordSize {
	case 128, 256, 512:
	default:
		return fmt.Errorf("%w: SEED record size must be 128, 256, or 512, got %d", ErrInvalidConfig, c.SEEDRecordSize)
	}
	if c.MaximumInternalQueueSize <= 0 {
		return fmt.Errorf("%w: maximum internal queue size must be positive", ErrInvalidConfig)
	}
	// An empty selector list is valid: the client falls back to
	// uni-station mode (handshake below), matching the upstream client's
	// behavior of subscribing to everything rather than refusing to start.
	return nil
}

// RecordCallback is invoked with every successfully decoded Packet.
type RecordCallback func(*packet.Packet)

// Client is a streaming SEEDLink acquisition client. It dials the
// configured server, negotiates the HELLO/STATION/SELECT/DATA handshake for
// every configured selector, then reads miniSEED records until Stop is
// called or the connection is lost, in which case it reconnects after
// NetworkReconnectDelay.
type Client struct {
	cfg      Config
	callback RecordCallback

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	recordsSinceCheckpoint int
	lastSequence           map[string]string
}

// NewClient validates cfg and returns a Client invoking callback for every
// decoded Packet.
func NewClient(cfg Config, callback RecordCallback) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if callback == nil {
		return nil, fmt.Errorf("%w: callback is required", ErrInvalidConfig)
	}
	c := &Client{
		cfg:          cfg,
		callback:     callback,
		lastSequence: make(map[string]string),
	}
	if cfg.StateFilePath != "" {
		c.restoreState()
	}
	return c, nil
}

// Start connects and begins streaming in a background goroutine.
func (c *Client) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("%w: already running", ErrInvalidConfig)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.running = true
	c.wg.Add(1)
	go c.run(ctx)
	return nil
}

// Stop disconnects and waits for the background goroutine to exit,
// persisting the state file on the way out.
func (c *Client) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
	c.persistState()

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.connectAndStream(ctx); err != nil && ctx.Err() == nil {
			logrus.WithError(err).WithField("address", c.cfg.Address).Warn("seedlink: connection lost, reconnecting")
		}
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.NetworkReconnectDelay):
		}
	}
}

func (c *Client) connectAndStream(ctx context.Context) error {
	dialer := net.Dialer{}
	address := net.JoinHostPort(c.cfg.Address, strconv.Itoa(c.cfg.Port))
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := c.handshake(conn); err != nil {
		return err
	}
	return c.streamRecords(ctx, conn)
}

// handshake negotiates HELLO followed by STATION/SELECT/DATA (or FETCH when
// a prior sequence number is known) for every configured selector, closing
// with an END to switch the server into streaming mode.
func (c *Client) handshake(conn net.Conn) error {
	w := bufio.NewWriter(conn)
	r := bufio.NewReader(conn)

	if err := sendCommand(w, r, "HELLO"); err != nil {
		return err
	}

	if len(c.cfg.Selectors) == 0 {
		// Uni-station mode: no STATION filter is sent, so the server
		// streams every station it carries. Resuming a specific sequence
		// number is meaningless when the stream merges every station, so
		// this always starts fresh with DATA rather than FETCH.
		if err := sendCommand(w, r, "DATA"); err != nil {
			return err
		}
	} else {
		for _, group := range groupByStation(c.cfg.Selectors) {
			stationKey := group[0].Network + "." + group[0].Station
			if err := sendCommand(w, r, stationCommand(group[0])); err != nil {
				return err
			}
			for _, s := range group {
				if err := sendCommand(w, r, selectCommand(s)); err != nil {
					return err
				}
			}
			dataCommand := "DATA"
			if seq, ok := c.lastSequence[stationKey]; ok && seq != "" {
				dataCommand = fmt.Sprintf("FETCH %s", seq)
			}
			if err := sendCommand(w, r, dataCommand); err != nil {
				return err
			}
		}
	}

	if err := sendCommand(w, r, "END"); err != nil {
		return err
	}
	return nil
}

func sendCommand(w *bufio.Writer, r *bufio.Reader, command string) error {
	if _, err := w.WriteString(command + "\r\n"); err != nil {
		return fmt.Errorf("write %q: %w", command, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %q: %w", command, err)
	}
	if command == "END" {
		return nil
	}
	reply, err := r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read reply to %q: %w", command, err)
	}
	if strings.HasPrefix(reply, "ERROR") {
		return fmt.Errorf("server rejected %q: %s", command, strings.TrimSpace(reply))
	}
	return nil
}

// streamRecords reads SEEDLink's 8-byte "SL" signature plus sequence-number
// header followed by one fixed-size physical slot per message, until ctx is
// cancelled or the connection errors. The slot may hold a single miniSEED
// v2 record filling it entirely, or one or more variable-length v3 records
// followed by zero padding (§4.7).
func (c *Client) streamRecords(ctx context.Context, conn net.Conn) error {
	header := make([]byte, 8)
	body := make([]byte, c.cfg.SEEDRecordSize)

	for {
		if ctx.Err() != nil {
			return nil
		}
		if c.cfg.NetworkIdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.cfg.NetworkIdleTimeout))
		}
		if _, err := readFull(conn, header); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read SEEDLink header: %w", err)
		}
		if string(header[0:2]) != "SL" {
			return fmt.Errorf("%w: missing SL signature", ErrMalformedRecord)
		}
		if _, err := readFull(conn, body); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read miniSEED record: %w", err)
		}

		recs, err := parseRecords(body)
		for _, rec := range recs {
			p, perr := rec.toPacket()
			if perr != nil {
				logrus.WithError(perr).Warn("seedlink: discarding record that failed packet conversion")
				continue
			}
			c.lastSequence[rec.network+"."+rec.station] = rec.sequence
			c.callback(p)
			c.noteCheckpoint()
		}
		if err != nil {
			if errors.Is(err, ErrUnhandledSampleType) {
				logrus.WithError(err).Warn("seedlink: skipping record with unhandled sample encoding")
			} else {
				logrus.WithError(err).Warn("seedlink: discarding malformed record")
			}
		}
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (c *Client) noteCheckpoint() {
	if c.cfg.StateFilePath == "" || c.cfg.StateFileUpdateInterval <= 0 {
		return
	}
	c.recordsSinceCheckpoint++
	if c.recordsSinceCheckpoint >= c.cfg.StateFileUpdateInterval {
		c.recordsSinceCheckpoint = 0
		c.persistState()
	}
}

// persistState writes "network.station sequence" lines, one per stream,
// so a restart can FETCH from where it left off.
func (c *Client) persistState() {
	if c.cfg.StateFilePath == "" {
		return
	}
	var b strings.Builder
	for key, seq := range c.lastSequence {
		fmt.Fprintf(&b, "%s %s\n", key, seq)
	}
	if err := os.WriteFile(c.cfg.StateFilePath, []byte(b.String()), 0o644); err != nil {
		logrus.WithError(err).WithField("path", c.cfg.StateFilePath).Warn("seedlink: failed to write state file")
	}
}

func (c *Client) restoreState() {
	data, err := os.ReadFile(c.cfg.StateFilePath)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		c.lastSequence[fields[0]] = fields[1]
	}
}
