package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"wallet-ledger/config"
	"wallet-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// Simulated implements ports.PaymentGateway against an imaginary outside
// payment network. Success is random at the configured rate and each
// call sleeps a random latency inside the configured bounds, so from
// the engine's point of view the collaborator is non-deterministic.
// The call honors ctx cancellation: a timed-out provider is
// indistinguishable from a rejecting one to the caller.
type Simulated struct {
	successRate float64
	minLatency  time.Duration
	maxLatency  time.Duration
	log         zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated gateway from config.
func NewSimulated(cfg config.GatewayConfig, log zerolog.Logger) *Simulated {
	return &Simulated{
		successRate: cfg.SuccessRate,
		minLatency:  cfg.MinLatency,
		maxLatency:  cfg.MaxLatency,
		log:         log,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSimulatedWithSeed creates a gateway with a fixed seed for
// deterministic tests.
func NewSimulatedWithSeed(cfg config.GatewayConfig, log zerolog.Logger, seed int64) *Simulated {
	g := NewSimulated(cfg, log)
	g.rng = rand.New(rand.NewSource(seed))
	return g
}

// ProcessExternalTransfer simulates a transfer over the outside network.
func (g *Simulated) ProcessExternalTransfer(ctx context.Context, req ports.ExternalTransferRequest) (*ports.ExternalTransferResult, error) {
	delay, roll := g.draw()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, fmt.Errorf("external provider call: %w", ctx.Err())
	}

	if roll >= g.successRate {
		g.log.Debug().
			Str("provider", req.Provider).
			Str("to_address", req.ToAddress).
			Msg("simulated gateway rejected transfer")
		return &ports.ExternalTransferResult{
			Success: false,
			Message: "External provider temporarily unavailable",
		}, nil
	}

	now := time.Now().UnixMilli()
	suffix := g.randSuffix()
	return &ports.ExternalTransferResult{
		Success:           true,
		TransactionID:     fmt.Sprintf("TXN_%d_%s", now, suffix),
		ExternalReference: fmt.Sprintf("EXT_%d_%s", now, suffix),
		Message:           "Transaction processed successfully",
	}, nil
}

func (g *Simulated) draw() (time.Duration, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	span := g.maxLatency - g.minLatency
	delay := g.minLatency
	if span > 0 {
		delay += time.Duration(g.rng.Int63n(int64(span)))
	}
	return delay, g.rng.Float64()
}

func (g *Simulated) randSuffix() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	g.mu.Lock()
	defer g.mu.Unlock()
	b := make([]byte, 9)
	for i := range b {
		b[i] = alphabet[g.rng.Intn(len(alphabet))]
	}
	return string(b)
}
