package vm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"alma.local/evmfuzz/tracer"
)

const (
	gasSload      = 200
	gasSstore     = 5000
	gasKeccak     = 30
	gasKeccakWord = 6
)

// world holds contract storage for the duration of one execution.
type world map[common.Address]map[common.Hash]common.Hash

// Env is the per-action context a contract runs in.
type Env struct {
	Caller  common.Address
	Address common.Address
	Value   *uint256.Int

	tx        int
	data      []byte
	gasLeft   uint64
	world     world
	trace     *tracer.Ring
	observers []Observer
}

// Record adds a coverage point to the execution trace.
func (e *Env) Record(cid uint64, val int64) {
	if e.trace != nil {
		e.trace.Record(cid, val)
	}
}

// UseGas charges n units, failing with ErrOutOfGas once the budget is spent.
func (e *Env) UseGas(n uint64) error {
	if n > e.gasLeft {
		e.gasLeft = 0
		return ErrOutOfGas
	}
	e.gasLeft -= n
	return nil
}

// GasLeft returns the remaining gas of the current action.
func (e *Env) GasLeft() uint64 {
	return e.gasLeft
}

// Load reads a storage slot of the current contract.
func (e *Env) Load(key common.Hash) (common.Hash, error) {
	if err := e.UseGas(gasSload); err != nil {
		return common.Hash{}, err
	}
	return e.world[e.Address][key], nil
}

// Store writes a storage slot of the current contract.
func (e *Env) Store(key, val common.Hash) error {
	if err := e.UseGas(gasSstore); err != nil {
		return err
	}
	slots, ok := e.world[e.Address]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		e.world[e.Address] = slots
	}
	if val == (common.Hash{}) {
		delete(slots, key)
		return nil
	}
	slots[key] = val
	return nil
}

// KeccakCalldata hashes calldata[offset:offset+length] followed by suffix and
// reports the calldata provenance of the preimage to attached observers.
func (e *Env) KeccakCalldata(site uint64, offset, length int, suffix ...[]byte) (common.Hash, error) {
	if offset < 0 || length < 0 || offset+length > len(e.data) {
		return common.Hash{}, fmt.Errorf("%w: [%d:%d] of %d", ErrCalldataRange, offset, offset+length, len(e.data))
	}
	parts := make([][]byte, 0, len(suffix)+1)
	parts = append(parts, e.data[offset:offset+length])
	parts = append(parts, suffix...)

	size := 0
	for _, p := range parts {
		size += len(p)
	}
	if err := e.UseGas(gasKeccak + gasKeccakWord*uint64((size+31)/32)); err != nil {
		return common.Hash{}, err
	}

	digest := crypto.Keccak256Hash(parts...)
	if length > 0 {
		ev := HashEvent{
			Tx:       e.tx,
			Contract: e.Address,
			Site:     site,
			Offset:   offset,
			Length:   length,
			Digest:   digest,
		}
		for _, o := range e.observers {
			o.OnHash(ev)
		}
	}
	return digest, nil
}
