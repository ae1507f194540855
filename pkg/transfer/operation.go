// Package transfer encodes the payloads that travel between the scheduler
// and out-of-process workers.
//
// A payload passes through a chain of up to eight byte-level operations,
// packed into a 64-bit value (first operation in the low byte) so a
// descriptor can carry the chain in a single field.
package transfer

import (
	"fmt"
	"sync"

	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
)

// Operation identifiers. Zero terminates a packed chain.
const (
	OP_NONE = 0x00

	OP_GZIP  = 0x10 // DEFLATE in a gzip container
	OP_BZIP2 = 0x13 // bzip2
	OP_ZSTD  = 0x1B // Zstandard
)

// Operation is one reversible transformation of a payload.
type Operation interface {
	ID() uint8
	Name() string

	// Apply encodes input.
	Apply(input []byte) ([]byte, error)

	// Reverse decodes what Apply produced.
	Reverse(input []byte) ([]byte, error)

	// EstimateSize guesses the encoded size of inputSize bytes.
	EstimateSize(inputSize int64) int64
}

// BaseOperation carries the identity shared by every operation.
type BaseOperation struct {
	OpID   uint8
	OpName string
}

func (o *BaseOperation) ID() uint8 {
	return o.OpID
}

func (o *BaseOperation) Name() string {
	return o.OpName
}

func (o *BaseOperation) EstimateSize(inputSize int64) int64 {
	return inputSize
}

var (
	registryMu sync.RWMutex
	registry   = make(map[uint8]Operation)
)

// Register makes op available to chains. Implementations register
// themselves from init.
func Register(op Operation) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[op.ID()] = op
}

// Get returns the operation registered for id.
func Get(id uint8) (Operation, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	op, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02x", gwerrors.ErrUnknownOperation, id)
	}
	return op, nil
}

// GetName returns the display name of id, registered or not.
func GetName(id uint8) string {
	switch id {
	case OP_NONE:
		return "NONE"
	case OP_GZIP:
		return "GZIP"
	case OP_BZIP2:
		return "BZIP2"
	case OP_ZSTD:
		return "ZSTD"
	default:
		return fmt.Sprintf("UNKNOWN_%02x", id)
	}
}
