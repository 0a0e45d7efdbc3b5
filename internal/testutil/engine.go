// Package testutil builds engines and ledger fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/engine"
)

// Genesis is the block time of engines opened by NewEngine.
const Genesis = 1_700_000_000

// FixedClock returns a clock stopped at unix.
func FixedClock(unix int64) chain.Clock {
	return chain.ClockFunc(func() time.Time { return time.Unix(unix, 0) })
}

// Account returns the address of a named test account.
func Account(label string) chain.Address {
	return chain.AddressFromLabel(label)
}

// NewEngine opens an engine at Genesis. Without a WithStore option the
// engine keeps nothing between runs.
func NewEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	opts = append([]engine.Option{engine.WithClock(FixedClock(Genesis))}, opts...)
	e, err := engine.Open(context.Background(), opts...)
	require.NoError(t, err)
	return e
}
