package token

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/clawpay/settler/types"
)

// MemoryLedger is an in-process Ledger used in tests, examples, and
// deployments where the engine owns the full asset state. It implements
// Transactional so engine operations can roll back on failure.
type MemoryLedger struct {
	mu         sync.Mutex
	balances   map[types.Asset]map[types.Identity]*big.Int
	allowances map[types.Asset]map[[2]types.Identity]*big.Int
	supply     map[types.Asset]*big.Int
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances:   make(map[types.Asset]map[types.Identity]*big.Int),
		allowances: make(map[types.Asset]map[[2]types.Identity]*big.Int),
		supply:     make(map[types.Asset]*big.Int),
	}
}

// Mint credits amount to holder and grows total supply. Test and example
// setup only; the engine itself never mints.
func (l *MemoryLedger) Mint(asset types.Asset, holder types.Identity, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(asset, holder, amount)
	l.addSupply(asset, amount)
}

func (l *MemoryLedger) BalanceOf(asset types.Asset, holder types.Identity) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balance(asset, holder))
}

func (l *MemoryLedger) TotalSupply(asset types.Asset) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.supply[asset]; ok {
		return new(big.Int).Set(s)
	}
	return new(big.Int)
}

func (l *MemoryLedger) Transfer(asset types.Asset, from, to types.Identity, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(asset, from, to, amount)
}

func (l *MemoryLedger) Approve(asset types.Asset, holder, spender types.Identity, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return types.NewError(types.ErrInvalidAmount, "approval amount must be non-negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	pairs, ok := l.allowances[asset]
	if !ok {
		pairs = make(map[[2]types.Identity]*big.Int)
		l.allowances[asset] = pairs
	}
	pairs[[2]types.Identity{holder, spender}] = new(big.Int).Set(amount)
	return nil
}

func (l *MemoryLedger) Allowance(asset types.Asset, holder, spender types.Identity) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if pairs, ok := l.allowances[asset]; ok {
		if a, ok := pairs[[2]types.Identity{holder, spender}]; ok {
			return new(big.Int).Set(a)
		}
	}
	return new(big.Int)
}

func (l *MemoryLedger) TransferFrom(asset types.Asset, spender, from, to types.Identity, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.spendAllowance(asset, from, spender, amount); err != nil {
		return err
	}
	return l.move(asset, from, to, amount)
}

func (l *MemoryLedger) Burn(asset types.Asset, holder types.Identity, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.destroy(asset, holder, amount)
}

func (l *MemoryLedger) BurnFrom(asset types.Asset, spender, from types.Identity, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.spendAllowance(asset, from, spender, amount); err != nil {
		return err
	}
	return l.destroy(asset, from, amount)
}

// Snapshot deep-copies the ledger state and returns a restore function.
func (l *MemoryLedger) Snapshot() (restore func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balances := make(map[types.Asset]map[types.Identity]*big.Int, len(l.balances))
	for asset, holders := range l.balances {
		copied := make(map[types.Identity]*big.Int, len(holders))
		for holder, bal := range holders {
			copied[holder] = new(big.Int).Set(bal)
		}
		balances[asset] = copied
	}
	allowances := make(map[types.Asset]map[[2]types.Identity]*big.Int, len(l.allowances))
	for asset, pairs := range l.allowances {
		copied := make(map[[2]types.Identity]*big.Int, len(pairs))
		for pair, amt := range pairs {
			copied[pair] = new(big.Int).Set(amt)
		}
		allowances[asset] = copied
	}
	supply := make(map[types.Asset]*big.Int, len(l.supply))
	for asset, s := range l.supply {
		supply[asset] = new(big.Int).Set(s)
	}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.balances = balances
		l.allowances = allowances
		l.supply = supply
	}
}

// callers hold l.mu for everything below.

func (l *MemoryLedger) balance(asset types.Asset, holder types.Identity) *big.Int {
	if holders, ok := l.balances[asset]; ok {
		if b, ok := holders[holder]; ok {
			return b
		}
	}
	return new(big.Int)
}

func (l *MemoryLedger) credit(asset types.Asset, holder types.Identity, amount *big.Int) {
	holders, ok := l.balances[asset]
	if !ok {
		holders = make(map[types.Identity]*big.Int)
		l.balances[asset] = holders
	}
	cur, ok := holders[holder]
	if !ok {
		cur = new(big.Int)
		holders[holder] = cur
	}
	cur.Add(cur, amount)
}

func (l *MemoryLedger) addSupply(asset types.Asset, amount *big.Int) {
	s, ok := l.supply[asset]
	if !ok {
		s = new(big.Int)
		l.supply[asset] = s
	}
	s.Add(s, amount)
}

func (l *MemoryLedger) move(asset types.Asset, from, to types.Identity, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return types.NewError(types.ErrInvalidAmount, "transfer amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	bal := l.balance(asset, from)
	if bal.Cmp(amount) < 0 {
		return types.NewError(types.ErrInsufficientBalance,
			fmt.Sprintf("balance %s of %s is below %s", bal, asset, amount))
	}
	bal.Sub(bal, amount)
	l.credit(asset, to, amount)
	return nil
}

func (l *MemoryLedger) destroy(asset types.Asset, holder types.Identity, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return types.NewError(types.ErrInvalidAmount, "burn amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	bal := l.balance(asset, holder)
	if bal.Cmp(amount) < 0 {
		return types.NewError(types.ErrInsufficientBalance,
			fmt.Sprintf("balance %s of %s is below burn amount %s", bal, asset, amount))
	}
	bal.Sub(bal, amount)
	s, ok := l.supply[asset]
	if !ok {
		s = new(big.Int)
		l.supply[asset] = s
	}
	s.Sub(s, amount)
	return nil
}

func (l *MemoryLedger) spendAllowance(asset types.Asset, holder, spender types.Identity, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return types.NewError(types.ErrInvalidAmount, "amount must be non-negative")
	}
	pairs, ok := l.allowances[asset]
	if !ok {
		pairs = make(map[[2]types.Identity]*big.Int)
		l.allowances[asset] = pairs
	}
	key := [2]types.Identity{holder, spender}
	allowance, ok := pairs[key]
	if !ok || allowance.Cmp(amount) < 0 {
		have := "0"
		if ok {
			have = allowance.String()
		}
		return types.NewError(types.ErrInsufficientAuthorization,
			fmt.Sprintf("allowance %s is below %s", have, amount))
	}
	allowance.Sub(allowance, amount)
	return nil
}
