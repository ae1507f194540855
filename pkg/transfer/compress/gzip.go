// Package compress registers the compression operations of the transfer
// chain. Import it for its side effects.
package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/provide-io/gifweave/pkg/transfer"
)

func init() {
	transfer.Register(NewGzipOperation())
}

// GzipOperation compresses payloads with gzip at the fastest level; pixel
// buffers are large and short-lived.
type GzipOperation struct {
	transfer.BaseOperation
}

func NewGzipOperation() *GzipOperation {
	return &GzipOperation{
		BaseOperation: transfer.BaseOperation{OpID: transfer.OP_GZIP, OpName: "GZIP"},
	}
}

func (o *GzipOperation) Apply(input []byte) ([]byte, error) {
	var buf bytes.Buffer

	gw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gw.Write(input); err != nil {
		gw.Close()
		return nil, fmt.Errorf("writing gzip data: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	return buf.Bytes(), nil
}

func (o *GzipOperation) Reverse(input []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gr.Close()

	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("reading gzip data: %w", err)
	}
	return data, nil
}

func (o *GzipOperation) EstimateSize(inputSize int64) int64 {
	return (inputSize*6)/10 + 18
}
