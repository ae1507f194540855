package transfer

import (
	"testing"

	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackOperations(t *testing.T) {
	tests := []struct {
		name     string
		ops      []uint8
		expected uint64
	}{
		{name: "empty", ops: nil, expected: 0},
		{name: "single", ops: []uint8{OP_GZIP}, expected: 0x10},
		{name: "first op in low byte", ops: []uint8{OP_ZSTD, OP_GZIP}, expected: 0x101B},
		{name: "three ops", ops: []uint8{OP_BZIP2, OP_ZSTD, OP_GZIP}, expected: 0x101B13},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			packed, err := PackOperations(tc.ops)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, packed)
			assert.Equal(t, tc.ops, UnpackOperations(packed))
		})
	}
}

func TestPackOperationsRejects(t *testing.T) {
	_, err := PackOperations(make([]uint8, MaxChain+1))
	assert.Error(t, err)

	_, err = PackOperations([]uint8{OP_GZIP, OP_NONE, OP_ZSTD})
	assert.Error(t, err)
}

func TestUnpackStopsAtZero(t *testing.T) {
	assert.Equal(t, []uint8{OP_GZIP}, UnpackOperations(0x1B0010))
}

func TestOperationNames(t *testing.T) {
	tests := []struct {
		input  string
		packed uint64
		name   string
	}{
		{input: "", packed: 0, name: "raw"},
		{input: "raw", packed: 0, name: "raw"},
		{input: "GZ", packed: 0x10, name: "gzip"},
		{input: "zstd | gzip", packed: 0x101B, name: "zstd|gzip"},
		{input: "bz2", packed: 0x13, name: "bzip2"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			packed, err := StringToOperations(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.packed, packed)
			assert.Equal(t, tc.name, OperationsToString(packed))
		})
	}

	_, err := StringToOperations("lz4")
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN_7f", GetName(0x7f))
}

func TestGetUnknownOperation(t *testing.T) {
	_, err := Get(0x7f)
	assert.ErrorIs(t, err, gwerrors.ErrUnknownOperation)

	_, err = ApplyChain([]byte("x"), 0x7f)
	assert.ErrorIs(t, err, gwerrors.ErrUnknownOperation)
}

func TestEmptyChainIsIdentity(t *testing.T) {
	data := []byte("pixels")

	out, err := ApplyChain(data, 0)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	back, err := ReverseChain(out, 0)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}
