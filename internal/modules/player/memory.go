package player

import (
	"context"
	"sync"

	"github.com/eskrenkovic/wager-rooms/internal/modules/core"
)

type memoryPlayer struct {
	id     string
	name   string
	digest string
}

type MemoryDirectory struct {
	hasher   *TokenHasher
	balances Balances

	mu       sync.RWMutex
	byDigest map[string]memoryPlayer
	byID     map[string]memoryPlayer
}

func NewMemoryDirectory(hasher *TokenHasher, balances Balances) *MemoryDirectory {
	return &MemoryDirectory{
		hasher:   hasher,
		balances: balances,
		byDigest: make(map[string]memoryPlayer),
		byID:     make(map[string]memoryPlayer),
	}
}

// Register adds a player and returns its id. Registering the same token again
// replaces the name.
func (d *MemoryDirectory) Register(seed Seed) string {
	p := memoryPlayer{
		id:     seed.ID(),
		name:   seed.Name,
		digest: d.hasher.Digest(seed.Token),
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.byDigest[p.digest] = p
	d.byID[p.id] = p

	return p.id
}

func (d *MemoryDirectory) Resolve(ctx context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, core.Unauthorized("missing credential")
	}

	d.mu.RLock()
	p, found := d.byDigest[d.hasher.Digest(credential)]
	d.mu.RUnlock()

	if !found {
		return Identity{}, core.Unauthorized("invalid credential")
	}

	return d.identity(ctx, p)
}

func (d *MemoryDirectory) Players(ctx context.Context, ids []string) ([]Identity, error) {
	identities := make([]Identity, 0, len(ids))

	for _, id := range ids {
		d.mu.RLock()
		p, found := d.byID[id]
		d.mu.RUnlock()

		if !found {
			continue
		}

		identity, err := d.identity(ctx, p)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}

	return identities, nil
}

func (d *MemoryDirectory) identity(ctx context.Context, p memoryPlayer) (Identity, error) {
	identity := Identity{ID: p.id, Name: p.name}

	if d.balances == nil {
		return identity, nil
	}

	balance, err := d.balances.Balance(ctx, p.id)
	if err != nil {
		return Identity{}, err
	}
	identity.Balance = balance

	return identity, nil
}
