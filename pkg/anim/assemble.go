package anim

import (
	"fmt"

	gwerrors "github.com/provide-io/gifweave/pkg/anim/errors"
)

// OutputLen returns the assembled length of results: for each frame every
// page but the last counts as a full page and the last counts its cursor.
func OutputLen(results []*TaskResult) (int, error) {
	total := 0
	for i, r := range results {
		if r == nil {
			return 0, fmt.Errorf("%w: frame %d has no result", gwerrors.ErrAssemblyPrecondition, i)
		}
		if len(r.Pages) == 0 {
			return 0, fmt.Errorf("%w: frame %d has no pages", gwerrors.ErrAssemblyPrecondition, i)
		}
		if r.Cursor < 0 || r.Cursor > r.PageSize {
			return 0, fmt.Errorf("%w: frame %d cursor %d outside page of %d bytes",
				gwerrors.ErrAssemblyPrecondition, i, r.Cursor, r.PageSize)
		}
		total += r.Len()
	}
	return total, nil
}

// Assemble concatenates the frames' pages in slot order into one buffer.
func Assemble(results []*TaskResult) ([]byte, error) {
	total, err := OutputLen(results)
	if err != nil {
		return nil, err
	}

	data := make([]byte, total)
	offset := 0
	for _, r := range results {
		last := len(r.Pages) - 1
		for i, page := range r.Pages {
			n := r.PageSize
			if i == last {
				n = r.Cursor
			}
			if len(page) < n {
				return nil, fmt.Errorf("%w: frame %d page %d holds %d of %d bytes",
					gwerrors.ErrAssemblyPrecondition, r.Index, i, len(page), n)
			}
			copy(data[offset:offset+n], page[:n])
			offset += n
		}
	}

	return data, nil
}
