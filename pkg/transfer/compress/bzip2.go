package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/provide-io/gifweave/pkg/transfer"
)

func init() {
	transfer.Register(NewBzip2Operation())
}

// Bzip2Operation trades speed for size; it suits flat-colour frames sent to
// remote workers.
type Bzip2Operation struct {
	transfer.BaseOperation
	Level int
}

func NewBzip2Operation() *Bzip2Operation {
	return &Bzip2Operation{
		BaseOperation: transfer.BaseOperation{OpID: transfer.OP_BZIP2, OpName: "BZIP2"},
		Level:         6,
	}
}

func (o *Bzip2Operation) Apply(input []byte) ([]byte, error) {
	var buf bytes.Buffer

	bw, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: o.Level})
	if err != nil {
		return nil, fmt.Errorf("creating bzip2 writer: %w", err)
	}
	if _, err := bw.Write(input); err != nil {
		bw.Close()
		return nil, fmt.Errorf("writing bzip2 data: %w", err)
	}
	if err := bw.Close(); err != nil {
		return nil, fmt.Errorf("closing bzip2 writer: %w", err)
	}

	return buf.Bytes(), nil
}

func (o *Bzip2Operation) Reverse(input []byte) ([]byte, error) {
	br, err := bzip2.NewReader(bytes.NewReader(input), &bzip2.ReaderConfig{})
	if err != nil {
		return nil, fmt.Errorf("creating bzip2 reader: %w", err)
	}
	defer br.Close()

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("reading bzip2 data: %w", err)
	}
	return data, nil
}

func (o *Bzip2Operation) EstimateSize(inputSize int64) int64 {
	return (inputSize*5)/10 + 32
}
