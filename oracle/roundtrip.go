package oracle

import (
	"bytes"
	"errors"
	"fmt"

	ssz "github.com/ferranbt/fastssz"
)

// ErrInvalidInput signals that the SSZ payload failed to decode.
var ErrInvalidInput = errors.New("oracle: invalid input")

// ErrNonCanonical signals that re-encoding a decoded payload changed its bytes.
var ErrNonCanonical = errors.New("oracle: non-canonical roundtrip")

// RoundTripTarget constrains SSZ structs usable by RoundTrip.
type RoundTripTarget[T any] interface {
	*T
	ssz.Marshaler
	ssz.Unmarshaler
}

// RoundTrip enforces Encode(Decode(x)) == x for SSZ types that implement fastssz.
func RoundTrip[T any, PT RoundTripTarget[T]](data []byte) error {
	var obj PT = PT(new(T))

	if err := obj.UnmarshalSSZ(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out, err := obj.MarshalSSZ()
	if err != nil {
		return fmt.Errorf("oracle: marshal failed: %w", err)
	}

	if !bytes.Equal(out, data) {
		return fmt.Errorf("%w (input=%d output=%d)", ErrNonCanonical, len(data), len(out))
	}
	return nil
}
