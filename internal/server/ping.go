package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/portal/internal/models"
)

const (
	defaultProbeTimeout = 3 * time.Second
	defaultPingWorkers  = 5
	defaultPingRate     = 20.0
)

// Prober checks whether a host accepts connections.
type Prober interface {
	Probe(ctx context.Context, addr string) error
}

// ProberFunc adapts a function to [Prober].
type ProberFunc func(ctx context.Context, addr string) error

func (f ProberFunc) Probe(ctx context.Context, addr string) error { return f(ctx, addr) }

// TCPProber dials addr over TCP and closes the connection immediately.
type TCPProber struct {
	Timeout time.Duration
}

func (p TCPProber) Probe(ctx context.Context, addr string) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Pinger fans probes out over a bounded worker pool behind a rate limiter.
type Pinger struct {
	prober  Prober
	workers int
	limiter *rate.Limiter
}

// NewPinger creates a pinger. Zero workers or rate fall back to defaults.
func NewPinger(prober Prober, workers int, rps float64) *Pinger {
	if prober == nil {
		prober = TCPProber{}
	}
	if workers <= 0 {
		workers = defaultPingWorkers
	}
	if rps <= 0 {
		rps = defaultPingRate
	}
	return &Pinger{prober: prober, workers: workers, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

type pingJob struct {
	node models.Node
}

type pingOutcome struct {
	id     int
	result models.PingResult
}

// Ping probes every node and returns results keyed by the decimal node id.
func (p *Pinger) Ping(ctx context.Context, nodes []models.Node) models.PingResults {
	jobs := make(chan pingJob, len(nodes))
	outcomes := make(chan pingOutcome, len(nodes))

	var wg sync.WaitGroup
	for range min(p.workers, max(len(nodes), 1)) {
		wg.Add(1)
		go p.worker(ctx, &wg, jobs, outcomes)
	}

	for _, n := range nodes {
		jobs <- pingJob{node: n}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := models.PingResults{}
	for o := range outcomes {
		results[strconv.Itoa(o.id)] = o.result
	}
	return results
}

func (p *Pinger) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan pingJob, outcomes chan<- pingOutcome) {
	defer wg.Done()

	for job := range jobs {
		outcomes <- pingOutcome{id: job.node.ID, result: p.probe(ctx, job.node)}
	}
}

func (p *Pinger) probe(ctx context.Context, n models.Node) models.PingResult {
	if err := p.limiter.Wait(ctx); err != nil {
		return models.PingResult{Status: models.NodeUnreachable, Error: err.Error()}
	}

	addr := n.Address()
	if err := p.prober.Probe(ctx, addr); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return models.PingResult{Status: models.NodeUnreachable, Error: "Connection timed out"}
		}
		return models.PingResult{Status: models.NodeUnreachable, Error: err.Error()}
	}
	return models.PingResult{Status: models.NodeReachable, Output: addr + " is reachable"}
}
