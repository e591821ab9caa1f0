// Package wire holds JSON representations that encoding/json does not
// produce on its own.
package wire

import (
	"encoding/json"
	"fmt"
)

// Bytes is a byte sequence carried as a JSON array of integers in [0, 255].
// encoding/json would otherwise use a base64 string for []byte.
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	// Pointers let a null element be told apart from 0.
	var ints []*int64
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("expected an array of byte values: %w", err)
	}
	if ints == nil {
		*b = nil
		return nil
	}
	out := make(Bytes, len(ints))
	for i, v := range ints {
		if v == nil {
			return fmt.Errorf("element %d: null is not a byte value", i)
		}
		if *v < 0 || *v > 255 {
			return fmt.Errorf("element %d: %d is out of byte range", i, *v)
		}
		out[i] = byte(*v)
	}
	*b = out
	return nil
}
