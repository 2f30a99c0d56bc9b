// Package trustee implements the block production loop for a node holding
// the trustee role. The loop runs on its own goroutine, registers itself
// with the client it serves, and is cancelled and joined by the client's
// shutdown path.
package trustee

import (
	"crypto/ecdsa"
	"sync"
	"time"

	"github.com/nikakhov/bitshares-toolkit/foundation/client"
)

// These defaults match the production scheme: one block at most every
// thirty seconds, re-evaluated once a second.
const (
	defaultInterval = 30 * time.Second
	defaultPoll     = time.Second
)

// Config holds the optional settings for the production loop.
type Config struct {
	Interval  time.Duration // Minimum time between produced blocks.
	Poll      time.Duration // Sleep between loop iterations.
	EvHandler client.EventHandler
}

// Trustee manages the production loop goroutine. One loop runs per node;
// constructing a second while the first is active fails.
type Trustee struct {
	client   *client.Client
	key      *ecdsa.PrivateKey
	interval time.Duration
	poll     time.Duration

	evHandler client.EventHandler
	shut      chan struct{}
	wg        sync.WaitGroup
	once      sync.Once
}

// Run starts the production loop with the specified signing credential and
// registers it with the client. The returned Trustee is already running.
func Run(c *client.Client, key *ecdsa.PrivateKey, cfg Config) (*Trustee, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = defaultInterval
	}
	poll := cfg.Poll
	if poll == 0 {
		poll = defaultPoll
	}

	t := Trustee{
		client:    c,
		key:       key,
		interval:  interval,
		poll:      poll,
		evHandler: ev,
		shut:      make(chan struct{}),
	}

	if err := c.RegisterTrustee(&t); err != nil {
		return nil, err
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.productionLoop()
	}()

	return &t, nil
}

// Shutdown signals the production loop to stop and blocks until it has
// exited. The loop observes the signal within one poll interval. Calling
// Shutdown more than once is safe.
func (t *Trustee) Shutdown() {
	t.evHandler("trustee: Shutdown: started")
	defer t.evHandler("trustee: Shutdown: completed")

	t.once.Do(func() {
		close(t.shut)
	})
	t.wg.Wait()
}

// =============================================================================

// productionLoop periodically checks whether a block should be produced and
// produces at most one block per interval. Any failure during production is
// logged and the loop resumes normal polling; it never tight-loops on a
// failing collaborator.
func (t *Trustee) productionLoop() {
	t.evHandler("trustee: productionLoop: G started")
	defer t.evHandler("trustee: productionLoop: G completed")

	// Start the clock from the last block this node has observed.
	lastBlock := t.client.ChainHead().TimeStamp

	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		select {
		case <-t.shut:
			t.evHandler("trustee: productionLoop: received shut signal")
			return
		case <-ticker.C:
		}

		// A block observed from the network also resets the interval.
		if head := t.client.ChainHead(); head.TimeStamp.After(lastBlock) {
			lastBlock = head.TimeStamp
		}

		trans := t.client.PendingTransactions()
		if len(trans) == 0 || time.Since(lastBlock) < t.interval {
			continue
		}

		block, err := t.client.ProduceBlock(trans, t.key)
		if err != nil {
			t.evHandler("trustee: productionLoop: ERROR: producing block: %s", err)
			continue
		}

		t.evHandler("trustee: productionLoop: produced block %d %s", block.Header.Number, block.Hash())
		lastBlock = time.Now()
	}
}
