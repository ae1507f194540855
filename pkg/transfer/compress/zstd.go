package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/provide-io/gifweave/pkg/transfer"
)

func init() {
	op, err := NewZstdOperation()
	if err != nil {
		panic(fmt.Sprintf("zstd operation: %v", err))
	}
	transfer.Register(op)
}

// ZstdOperation keeps one encoder and decoder for all payloads; both are
// safe for concurrent EncodeAll and DecodeAll calls.
type ZstdOperation struct {
	transfer.BaseOperation
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewZstdOperation() (*ZstdOperation, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &ZstdOperation{
		BaseOperation: transfer.BaseOperation{OpID: transfer.OP_ZSTD, OpName: "ZSTD"},
		enc:           enc,
		dec:           dec,
	}, nil
}

func (o *ZstdOperation) Apply(input []byte) ([]byte, error) {
	return o.enc.EncodeAll(input, nil), nil
}

func (o *ZstdOperation) Reverse(input []byte) ([]byte, error) {
	data, err := o.dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("decoding zstd data: %w", err)
	}
	return data, nil
}

func (o *ZstdOperation) EstimateSize(inputSize int64) int64 {
	return (inputSize*55)/100 + 16
}
