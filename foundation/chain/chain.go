// Package chain provides the core data types shared by the client,
// the transports, and the chain database.
package chain

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a block or transaction is unknown to this
// node. This is an expected outcome for sync requests and is never fatal.
var ErrNotFound = errors.New("not found")

// Head represents the current tip of the chain. A height of zero with the
// zero hash represents an empty chain where only genesis state exists.
type Head struct {
	Height    uint64    `json:"height"`
	BlockID   string    `json:"block_id"`
	TimeStamp time.Time `json:"timestamp"`
}
