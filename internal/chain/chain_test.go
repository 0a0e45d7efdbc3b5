package chain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var (
	alice    = AddressFromLabel("alice")
	bob      = AddressFromLabel("bob")
	contract = AddressFromLabel("contract")
)

func fixedClock() Clock {
	return ClockFunc(func() time.Time { return time.Unix(1_700_000_000, 0) })
}

func fund(t *testing.T, rt *Runtime, addr Address, amount uint64) {
	t.Helper()
	_, err := rt.Execute(context.Background(), Call{From: addr, To: addr}, func(tx *Tx) error {
		return tx.Accounts().Credit(tx.Journal(), addr, amount)
	})
	require.NoError(t, err)
}

func TestParseAddress(t *testing.T) {
	a, err := ParseAddress("0x00000000000000000000000000000000000000AA")
	require.NoError(t, err)
	require.Equal(t, byte(0xaa), a.Bytes()[19])
	require.Equal(t, "0x00000000000000000000000000000000000000aa", a.String())

	_, err = ParseAddress("0x1234")
	require.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseAddress("0xzz000000000000000000000000000000000000aa")
	require.ErrorIs(t, err, ErrInvalidAddress)

	var decoded Address
	require.NoError(t, decoded.UnmarshalText([]byte(alice.String())))
	require.Equal(t, alice, decoded)
}

func TestParseAddress_Checksummed(t *testing.T) {
	const checksummed = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	a, err := ParseAddress(checksummed)
	require.NoError(t, err)
	require.Equal(t, checksummed, a.Hex())
	require.Equal(t, strings.ToLower(checksummed), a.String())
	require.Equal(t, common.HexToAddress(checksummed), a.Common())

	lower, err := ParseAddress(strings.ToLower(checksummed))
	require.NoError(t, err)
	require.Equal(t, a, lower)
}

func TestAddressFromLabel_Keccak(t *testing.T) {
	want := common.BytesToAddress(crypto.Keccak256([]byte("dixel:label:alice")))
	require.Equal(t, want, alice.Common())
	require.Equal(t, alice, AddressFromLabel("alice"))
	require.NotEqual(t, alice, bob)
}

func TestDeriveAddress_MatchesCreate(t *testing.T) {
	for _, nonce := range []uint64{0, 1, 127, 1 << 20} {
		require.Equal(t, crypto.CreateAddress(contract.Common(), nonce), DeriveAddress(contract, nonce).Common())
	}
}

func TestDeriveAddress_Distinct(t *testing.T) {
	seen := make(map[Address]bool)
	for n := range uint64(100) {
		a := DeriveAddress(contract, n)
		require.False(t, seen[a], "nonce %d collided", n)
		seen[a] = true
	}
	require.NotEqual(t, DeriveAddress(alice, 0), DeriveAddress(bob, 0))
}

func TestAddress_Compare(t *testing.T) {
	lo := MustParseAddress("0x0000000000000000000000000000000000000001")
	hi := MustParseAddress("0x0000000000000000000000000000000000000002")
	require.Negative(t, lo.Compare(hi))
	require.Positive(t, hi.Compare(lo))
	require.Zero(t, lo.Compare(lo))
}

func TestReasonCode(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrNotOwner)
	require.Equal(t, "Ownable: caller is not the owner", ReasonCode(wrapped))
	require.True(t, errors.Is(wrapped, ErrNotOwner))
	require.Empty(t, ReasonCode(errors.New("plain")))

	r, ok := AsRevert(wrapped)
	require.True(t, ok)
	require.Equal(t, KindAuthorization, r.Kind)
	require.Equal(t, "authorization", r.Kind.String())
}

func TestMulDiv(t *testing.T) {
	q, err := MulDiv(1000, 500, 10000)
	require.NoError(t, err)
	require.Equal(t, uint64(50), q)

	q, err = MulDiv(math.MaxUint64, 10000, 10000)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), q)

	q, err = MulDiv(999, 1, 10000)
	require.NoError(t, err)
	require.Equal(t, uint64(0), q)

	_, err = MulDiv(math.MaxUint64, 2, 1)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = MulDiv(1, 1, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMulDiv_SplitSumsToTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cost := rapid.Uint64().Draw(t, "cost")
		fee := rapid.Uint64Range(0, 10000).Draw(t, "fee")

		cut, err := MulDiv(cost, fee, 10000)
		if err != nil {
			t.Fatalf("muldiv: %v", err)
		}
		if cut > cost {
			t.Fatalf("cut %d exceeds cost %d", cut, cost)
		}
		if cut+(cost-cut) != cost {
			t.Fatalf("split does not sum to cost")
		}
	})
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "0", want: 0},
		{in: "12345", want: 12345},
		{in: "0.02ether", want: 20_000_000_000_000_000},
		{in: "1 ether", want: Ether},
		{in: "3gwei", want: 3_000_000_000},
		{in: "7wei", want: 7},
		{in: "0.5", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "ether", wantErr: true},
		{in: "100ether", wantErr: true},
		{in: "18.4ether", want: 18_400_000_000_000_000_000},
		{in: "18.5ether", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFormatEther(t *testing.T) {
	require.Equal(t, "0 ETH", FormatEther(0))
	require.Equal(t, "1 ETH", FormatEther(Ether))
	require.Equal(t, "0.02 ETH", FormatEther(20_000_000_000_000_000))
}

func TestJournal_RevertTo(t *testing.T) {
	j := NewJournal()
	x := 1
	y := "a"

	Set(j, &alice, &x, 2)
	snap := j.Snapshot()
	Set(j, &bob, &y, "b")
	Set(j, &alice, &x, 3)

	require.Len(t, j.Dirty(), 2)

	j.RevertTo(snap)
	require.Equal(t, 2, x)
	require.Equal(t, "a", y)
	require.Equal(t, []Address{alice}, j.Dirty())

	j.RevertTo(0)
	require.Equal(t, 1, x)
	require.Empty(t, j.Dirty())
	require.Equal(t, 0, j.Len())
}

func TestExecute_EscrowAndCommit(t *testing.T) {
	rt := NewRuntime(WithClock(fixedClock()))
	fund(t, rt, alice, 100)

	receipt, err := rt.Execute(context.Background(), Call{From: alice, To: contract, Value: 40}, func(tx *Tx) error {
		require.Equal(t, alice, tx.Sender())
		require.Equal(t, contract, tx.Self())
		require.Equal(t, uint64(40), tx.Value())
		require.Equal(t, int64(1_700_000_000), tx.Unix())
		require.Equal(t, uint64(40), tx.BalanceOf(contract))

		if err := tx.Transfer(bob, 10); err != nil {
			return err
		}
		tx.Emit("Paid", A("to", bob.String()))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, receipt.Events, 1)
	require.Equal(t, "Paid", receipt.Events[0].Name)
	require.Equal(t, bob.String(), receipt.Events[0].Get("to"))
	require.NotEmpty(t, receipt.Events[0].ID)
	require.Equal(t, receipt.TxID, receipt.Events[0].TxID)

	accounts := rt.Accounts()
	require.Equal(t, uint64(60), accounts.BalanceOf(alice))
	require.Equal(t, uint64(30), accounts.BalanceOf(contract))
	require.Equal(t, uint64(10), accounts.BalanceOf(bob))
}

func TestExecute_RevertsEverything(t *testing.T) {
	rt := NewRuntime()
	fund(t, rt, alice, 100)
	boom := errors.New("boom")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := rt.Events().Subscribe(ctx)

	receipt, err := rt.Execute(context.Background(), Call{From: alice, To: contract, Value: 50}, func(tx *Tx) error {
		if err := tx.Transfer(bob, 50); err != nil {
			return err
		}
		tx.Emit("Paid")
		_ = tx.NewAddress()
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Nil(t, receipt)

	accounts := rt.Accounts()
	require.Equal(t, uint64(100), accounts.BalanceOf(alice))
	require.Zero(t, accounts.BalanceOf(contract))
	require.Zero(t, accounts.BalanceOf(bob))
	require.Zero(t, accounts.NonceOf(contract))

	select {
	case ev := <-events:
		require.Failf(t, "unexpected event", "%v", ev.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestExecute_InsufficientEscrow(t *testing.T) {
	rt := NewRuntime()
	called := false
	_, err := rt.Execute(context.Background(), Call{From: alice, To: contract, Value: 1}, func(tx *Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.False(t, called)
}

func TestExecute_CancelledContext(t *testing.T) {
	rt := NewRuntime()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rt.Execute(ctx, Call{From: alice, To: contract}, func(tx *Tx) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestTransfer_ReceiverHookFailureAborts(t *testing.T) {
	rt := NewRuntime()
	fund(t, rt, alice, 100)
	rt.Accounts().SetReceiver(bob, ReceiverFunc(func(tx *Tx, from Address, amount uint64) error {
		return errors.New("no thanks")
	}))

	_, err := rt.Execute(context.Background(), Call{From: alice, To: contract, Value: 10}, func(tx *Tx) error {
		return tx.Transfer(bob, 10)
	})
	require.ErrorIs(t, err, ErrTransferRejected)
	require.Equal(t, "TRANSFER_REJECTED", ReasonCode(err))
	require.Equal(t, uint64(100), rt.Accounts().BalanceOf(alice))
	require.Zero(t, rt.Accounts().BalanceOf(bob))
}

func TestTransfer_ReceiverHookSeesFrame(t *testing.T) {
	rt := NewRuntime()
	fund(t, rt, alice, 100)
	var seenSender, seenSelf Address
	var seenValue uint64
	rt.Accounts().SetReceiver(bob, ReceiverFunc(func(tx *Tx, from Address, amount uint64) error {
		seenSender, seenSelf, seenValue = tx.Sender(), tx.Self(), tx.Value()
		require.Equal(t, 1, tx.Depth())
		return nil
	}))

	_, err := rt.Execute(context.Background(), Call{From: alice, To: contract, Value: 10}, func(tx *Tx) error {
		return tx.Transfer(bob, 10)
	})
	require.NoError(t, err)
	require.Equal(t, contract, seenSender)
	require.Equal(t, bob, seenSelf)
	require.Equal(t, uint64(10), seenValue)
	require.Equal(t, uint64(10), rt.Accounts().BalanceOf(bob))
}

func TestTransfer_ZeroAddress(t *testing.T) {
	rt := NewRuntime()
	_, err := rt.Execute(context.Background(), Call{From: alice, To: contract}, func(tx *Tx) error {
		return tx.Transfer(ZeroAddress, 0)
	})
	require.ErrorIs(t, err, ErrZeroAddress)
}

func TestTx_NewAddressUsesNonce(t *testing.T) {
	rt := NewRuntime()
	var first, second Address
	_, err := rt.Execute(context.Background(), Call{From: alice, To: contract}, func(tx *Tx) error {
		first = tx.NewAddress()
		second = tx.NewAddress()
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, DeriveAddress(contract, 0), first)
	require.Equal(t, DeriveAddress(contract, 1), second)
	require.Equal(t, uint64(2), rt.Accounts().NonceOf(contract))
}

func TestOwnable(t *testing.T) {
	rt := NewRuntime()
	o := NewOwnable(alice)
	self := contract

	_, err := rt.Execute(context.Background(), Call{From: bob, To: contract}, func(tx *Tx) error {
		return o.OnlyOwner(tx)
	})
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = rt.Execute(context.Background(), Call{From: alice, To: contract}, func(tx *Tx) error {
		if err := o.TransferOwnership(tx, &self, bob); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)
	require.Equal(t, alice, o.Owner())

	_, err = rt.Execute(context.Background(), Call{From: alice, To: contract}, func(tx *Tx) error {
		return o.TransferOwnership(tx, &self, bob)
	})
	require.NoError(t, err)
	require.Equal(t, bob, o.Owner())
}

func TestAccounts_SnapshotRestore(t *testing.T) {
	a := NewAccounts()
	j := NewJournal()
	require.NoError(t, a.Credit(j, alice, 5))
	a.NextNonce(j, contract)

	snap := a.Snapshot()
	require.Len(t, snap, 2)

	b := NewAccounts()
	b.Restore(snap)
	require.Equal(t, uint64(5), b.BalanceOf(alice))
	require.Equal(t, uint64(1), b.NonceOf(contract))
}

func TestAccounts_Overflow(t *testing.T) {
	a := NewAccounts()
	j := NewJournal()
	require.NoError(t, a.Credit(j, alice, math.MaxUint64))
	require.ErrorIs(t, a.Credit(j, alice, 1), ErrBalanceOverflow)
	require.ErrorIs(t, a.Debit(j, bob, 1), ErrInsufficientBalance)
}

func TestJournal_MapHelpers(t *testing.T) {
	j := NewJournal()
	m := map[string]int{"a": 1}

	SetKey(j, &alice, m, "a", 2)
	SetKey(j, &alice, m, "b", 3)
	DeleteKey(j, &alice, m, "a")
	DeleteKey(j, &alice, m, "missing")
	require.Equal(t, map[string]int{"b": 3}, m)
	require.Equal(t, 3, j.Len())

	j.RevertTo(0)
	require.Equal(t, map[string]int{"a": 1}, m)
}
