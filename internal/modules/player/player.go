// Package player resolves bearer credentials to players.
package player

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type Identity struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Balance int64  `json:"balance" db:"balance"`
}

type Directory interface {
	// Resolve returns the player behind credential or an Auth error.
	Resolve(ctx context.Context, credential string) (Identity, error)
	// Players returns the identities of ids that exist, in no particular order.
	Players(ctx context.Context, ids []string) ([]Identity, error)
}

// Balances looks up spendable balances for identities.
type Balances interface {
	Balance(ctx context.Context, playerID string) (int64, error)
}

// Seed describes a player created at startup.
type Seed struct {
	Token   string
	Name    string
	Balance int64
}

// ID derives a stable player id from the seed's token so restarts keep ids.
func (s Seed) ID() string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("player:"+s.Token)).String()
}

// ParseSeeds reads "token:name:balance" entries separated by commas.
func ParseSeeds(raw string) ([]Seed, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	entries := strings.Split(raw, ",")
	seeds := make([]Seed, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid player seed %q: expected token:name:balance", entry)
		}

		token, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if token == "" || name == "" {
			return nil, fmt.Errorf("invalid player seed %q: token and name are required", entry)
		}

		balance, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
		if err != nil || balance < 0 {
			return nil, fmt.Errorf("invalid player seed %q: balance must be a non negative integer", entry)
		}

		if seen[token] {
			return nil, fmt.Errorf("duplicate player seed token for %q", name)
		}
		seen[token] = true

		seeds = append(seeds, Seed{Token: token, Name: name, Balance: balance})
	}

	return seeds, nil
}

// Names maps identities by id to their display names.
func Names(identities []Identity) map[string]string {
	names := make(map[string]string, len(identities))
	for _, identity := range identities {
		names[identity.ID] = identity.Name
	}
	return names
}
