package taint

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ssz "github.com/ferranbt/fastssz"
)

// MaxFacts bounds the facts list of a snapshot.
const MaxFacts = 4096

const (
	factSize          = 4 + 4 + 4 + 8 + common.AddressLength
	snapshotFixedSize = 8 + 4
)

var ErrTooManyFacts = errors.New("taint: too many facts")

var (
	_ ssz.Marshaler   = (*Fact)(nil)
	_ ssz.Unmarshaler = (*Fact)(nil)
	_ ssz.Marshaler   = (*Snapshot)(nil)
	_ ssz.Unmarshaler = (*Snapshot)(nil)
)

// Fact links calldata bytes [Offset, Offset+Length) of action Tx to the hash
// computed at Site inside Contract.
type Fact struct {
	Tx       uint32
	Offset   uint32
	Length   uint32
	Site     uint64
	Contract common.Address
}

// Covers reports whether calldata byte pos of action tx feeds this fact.
func (f Fact) Covers(tx, pos int) bool {
	return int(f.Tx) == tx && pos >= int(f.Offset) && pos < int(f.Offset+f.Length)
}

func (f *Fact) SizeSSZ() int {
	return factSize
}

func (f *Fact) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(f)
}

func (f *Fact) MarshalSSZTo(buf []byte) ([]byte, error) {
	dst := buf
	dst = ssz.MarshalUint32(dst, f.Tx)
	dst = ssz.MarshalUint32(dst, f.Offset)
	dst = ssz.MarshalUint32(dst, f.Length)
	dst = ssz.MarshalUint64(dst, f.Site)
	dst = append(dst, f.Contract[:]...)
	return dst, nil
}

func (f *Fact) UnmarshalSSZ(buf []byte) error {
	if len(buf) != factSize {
		return ssz.ErrSize
	}
	f.Tx = ssz.UnmarshallUint32(buf[0:4])
	f.Offset = ssz.UnmarshallUint32(buf[4:8])
	f.Length = ssz.UnmarshallUint32(buf[8:12])
	f.Site = ssz.UnmarshallUint64(buf[12:20])
	copy(f.Contract[:], buf[20:factSize])
	return nil
}

// Snapshot is the serializable result of one taint replay.
type Snapshot struct {
	Round uint64
	Facts []Fact
}

func (s *Snapshot) SizeSSZ() int {
	return snapshotFixedSize + len(s.Facts)*factSize
}

func (s *Snapshot) MarshalSSZ() ([]byte, error) {
	return ssz.MarshalSSZ(s)
}

func (s *Snapshot) MarshalSSZTo(buf []byte) ([]byte, error) {
	if len(s.Facts) > MaxFacts {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyFacts, len(s.Facts), MaxFacts)
	}
	dst := buf
	dst = ssz.MarshalUint64(dst, s.Round)
	dst = ssz.WriteOffset(dst, snapshotFixedSize)
	for i := range s.Facts {
		var err error
		if dst, err = s.Facts[i].MarshalSSZTo(dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (s *Snapshot) UnmarshalSSZ(buf []byte) error {
	size := uint64(len(buf))
	if size < snapshotFixedSize {
		return ssz.ErrSize
	}
	s.Round = ssz.UnmarshallUint64(buf[0:8])
	if o := ssz.ReadOffset(buf[8:12]); o != snapshotFixedSize {
		return ssz.ErrOffset
	}

	tail := buf[snapshotFixedSize:]
	if len(tail)%factSize != 0 {
		return ssz.ErrSize
	}
	n := len(tail) / factSize
	if n > MaxFacts {
		return fmt.Errorf("%w: %d > %d", ErrTooManyFacts, n, MaxFacts)
	}
	s.Facts = make([]Fact, n)
	for i := range s.Facts {
		if err := s.Facts[i].UnmarshalSSZ(tail[i*factSize : (i+1)*factSize]); err != nil {
			return err
		}
	}
	return nil
}
