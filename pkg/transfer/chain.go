package transfer

import (
	"fmt"
	"strings"
)

// MaxChain is the number of operations a packed chain can hold.
const MaxChain = 8

// PackOperations packs ops into a 64-bit chain, first operation in the
// least significant byte.
func PackOperations(ops []uint8) (uint64, error) {
	if len(ops) > MaxChain {
		return 0, fmt.Errorf("maximum %d operations allowed, got %d", MaxChain, len(ops))
	}

	var packed uint64
	for i, op := range ops {
		if op == OP_NONE {
			return 0, fmt.Errorf("operation %d: NONE cannot appear inside a chain", i)
		}
		packed |= uint64(op) << (i * 8)
	}
	return packed, nil
}

// UnpackOperations returns the chain stored in packed, stopping at the
// first zero byte.
func UnpackOperations(packed uint64) []uint8 {
	var ops []uint8
	for i := 0; i < MaxChain; i++ {
		op := uint8(packed >> (i * 8))
		if op == OP_NONE {
			break
		}
		ops = append(ops, op)
	}
	return ops
}

// OperationsToString renders packed as "raw" or a pipe-separated list such
// as "bzip2" or "zstd|gzip".
func OperationsToString(packed uint64) string {
	ops := UnpackOperations(packed)
	if len(ops) == 0 {
		return "raw"
	}

	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = strings.ToLower(GetName(op))
	}
	return strings.Join(names, "|")
}

var namedOperations = map[string]uint8{
	"gzip":  OP_GZIP,
	"gz":    OP_GZIP,
	"bzip2": OP_BZIP2,
	"bz2":   OP_BZIP2,
	"zstd":  OP_ZSTD,
	"zst":   OP_ZSTD,
}

// StringToOperations parses the OperationsToString form. The empty string
// and "raw" mean no operations.
func StringToOperations(s string) (uint64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "raw" {
		return 0, nil
	}

	var ops []uint8
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		op, ok := namedOperations[part]
		if !ok {
			return 0, fmt.Errorf("unknown transfer operation %q", part)
		}
		ops = append(ops, op)
	}
	return PackOperations(ops)
}

// ApplyChain runs data through every operation of packed in order.
func ApplyChain(data []byte, packed uint64) ([]byte, error) {
	current := data
	for _, id := range UnpackOperations(packed) {
		op, err := Get(id)
		if err != nil {
			return nil, err
		}
		if current, err = op.Apply(current); err != nil {
			return nil, fmt.Errorf("applying %s: %w", op.Name(), err)
		}
	}
	return current, nil
}

// ReverseChain undoes ApplyChain.
func ReverseChain(data []byte, packed uint64) ([]byte, error) {
	ops := UnpackOperations(packed)
	current := data
	for i := len(ops) - 1; i >= 0; i-- {
		op, err := Get(ops[i])
		if err != nil {
			return nil, err
		}
		if current, err = op.Reverse(current); err != nil {
			return nil, fmt.Errorf("reversing %s: %w", op.Name(), err)
		}
	}
	return current, nil
}
