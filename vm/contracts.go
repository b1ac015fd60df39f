package vm

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Selectors understood by the demo contracts. The first calldata byte selects
// the operation.
const (
	OpDeposit  byte = 0x01
	OpWithdraw byte = 0x02
	OpRegister byte = 0x01
	OpRelease  byte = 0x02
)

// Hash sites of the demo contracts.
const (
	SiteVaultSlot    uint64 = 0x5641_0001
	SiteRegistryName uint64 = 0x5245_0001
)

var (
	VaultAddress    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	RegistryAddress = common.HexToAddress("0x00000000000000000000000000000000000000a2")
)

// adminPrefix marks names whose ownership must never change hands.
var adminPrefix = []byte("admin")

// Vault keeps per-caller balances in slots keyed by keccak(slot ‖ caller).
//
//	0x01 ‖ slot[32]  deposit msg.value into slot
//	0x02 ‖ slot[32]  withdraw the slot, reverting when empty
type Vault struct{}

func (Vault) Call(env *Env, data []byte) ([]byte, error) {
	if len(data) < 33 {
		env.Record(0x5641_0100, int64(len(data)))
		return nil, ErrRevert
	}
	key, err := env.KeccakCalldata(SiteVaultSlot, 1, 32, env.Caller.Bytes())
	if err != nil {
		return nil, err
	}

	switch data[0] {
	case OpDeposit:
		env.Record(0x5641_0101, int64(env.Value.Uint64()))
		if env.Value.IsZero() {
			return nil, ErrRevert
		}
		return nil, env.Store(key, common.Hash(env.Value.Bytes32()))
	case OpWithdraw:
		bal, err := env.Load(key)
		if err != nil {
			return nil, err
		}
		env.Record(0x5641_0102, int64(bal[31]))
		if bal == (common.Hash{}) {
			return nil, ErrRevert
		}
		return bal[:], env.Store(key, common.Hash{})
	default:
		env.Record(0x5641_01ff, int64(data[0]))
		return nil, ErrRevert
	}
}

// Registry maps names to owners under keccak(name).
//
//	0x01 ‖ name  claim name for msg.sender
//	0x02 ‖ name  release a name owned by msg.sender
//
// Claiming an admin name that is already owned by someone else violates the
// registry invariant and panics.
type Registry struct{}

func (Registry) Call(env *Env, data []byte) ([]byte, error) {
	if len(data) < 2 {
		env.Record(0x5245_0100, int64(len(data)))
		return nil, ErrRevert
	}
	name := data[1:]
	key, err := env.KeccakCalldata(SiteRegistryName, 1, len(name))
	if err != nil {
		return nil, err
	}
	owner, err := env.Load(key)
	if err != nil {
		return nil, err
	}
	caller := common.BytesToHash(env.Caller.Bytes())
	admin := bytes.HasPrefix(name, adminPrefix)
	env.Record(0x5245_0101, int64(len(name)))

	switch data[0] {
	case OpRegister:
		switch {
		case owner == (common.Hash{}):
			env.Record(0x5245_0102, 1)
			return nil, env.Store(key, caller)
		case owner == caller:
			return nil, nil
		case admin:
			panic(fmt.Sprintf("registry: admin name %q taken over", name))
		default:
			env.Record(0x5245_0103, 1)
			return nil, ErrRevert
		}
	case OpRelease:
		if owner != caller {
			return nil, ErrRevert
		}
		env.Record(0x5245_0104, 1)
		return nil, env.Store(key, common.Hash{})
	default:
		return nil, ErrRevert
	}
}

// DeployDemo installs the demo contracts at their well-known addresses.
func DeployDemo(x *Executor) {
	x.Deploy(VaultAddress, Vault{})
	x.Deploy(RegistryAddress, Registry{})
}

// DemoDictionary holds the tokens the demo contracts compare calldata against.
var DemoDictionary = [][]byte{adminPrefix, []byte("admin0"), []byte("root")}
