package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dixel/internal/artwork"
	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/engine"
	"github.com/zjrosen/dixel/internal/presentation"
)

// parseAddress accepts 0x-prefixed hex or a plain account name.
func parseAddress(s string) (chain.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return chain.Address{}, errors.New("address is required")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return chain.ParseAddress(s)
	}
	if strings.ContainsAny(s, " \t/") {
		return chain.Address{}, fmt.Errorf("invalid account name %q", s)
	}
	return chain.AddressFromLabel(s), nil
}

func parseAddresses(items []string) ([]chain.Address, error) {
	out := make([]chain.Address, 0, len(items))
	for _, it := range items {
		for _, part := range strings.Split(it, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			addr, err := parseAddress(part)
			if err != nil {
				return nil, err
			}
			out = append(out, addr)
		}
	}
	return out, nil
}

// sender returns the --from account.
func sender() (chain.Address, error) {
	if fromFlag == "" {
		return chain.Address{}, errors.New("--from is required for this command")
	}
	addr, err := parseAddress(fromFlag)
	if err != nil {
		return chain.Address{}, fmt.Errorf("--from: %w", err)
	}
	return addr, nil
}

// sentValue returns the --value amount, zero when unset.
func sentValue() (uint64, error) {
	if valueFlag == "" {
		return 0, nil
	}
	v, err := chain.ParseAmount(valueFlag)
	if err != nil {
		return 0, fmt.Errorf("--value: %w", err)
	}
	return v, nil
}

func parseUint(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

// factoryArg resolves an optional factory address flag; empty selects the
// default factory.
func factoryArg(s string) (chain.Address, error) {
	if s == "" {
		return chain.Address{}, nil
	}
	return parseAddress(s)
}

// describeError adds the revert kind to rejected operations and a hint to
// lookups of things that do not exist.
func describeError(err error) string {
	if r, ok := chain.AsRevert(err); ok {
		return fmt.Sprintf("transaction reverted (%s): %s", r.Kind, r.Code)
	}
	var notFound *engine.CollectionNotFoundError
	if errors.As(err, &notFound) {
		return err.Error() + " (see 'dixel collections list')"
	}
	var noFactory *engine.FactoryNotFoundError
	if errors.As(err, &noFactory) {
		return err.Error() + " (run 'dixel deploy' first)"
	}
	return err.Error()
}

// output writes v as JSON with --json, or calls text otherwise.
func output(cmd *cobra.Command, v any, text func(w io.Writer, f *presentation.Formatter) error) error {
	w := cmd.OutOrStdout()
	f := presentation.NewFormatter(w)
	if jsonFlag {
		return f.FormatJSON(v)
	}
	return text(w, f)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func collectionArg(s string) (chain.Address, error) {
	addr, err := parseAddress(s)
	if err != nil {
		return chain.Address{}, fmt.Errorf("collection: %w", err)
	}
	return addr, nil
}

// metaFlags are the sale parameters shared by create and update-metadata.
type metaFlags struct {
	whitelistOnly     bool
	hidden            bool
	maxSupply         uint64
	royaltyFraction   uint64
	mintingBeginsFrom string
	mintingCost       string
}

func (m *metaFlags) register(cmd *cobra.Command, withSupply bool) {
	cmd.Flags().BoolVar(&m.whitelistOnly, "whitelist-only", false, "only whitelisted accounts may mint")
	cmd.Flags().BoolVar(&m.hidden, "hidden", false, "hide the collection from listings")
	if withSupply {
		cmd.Flags().Uint64Var(&m.maxSupply, "max-supply", 0, "maximum number of editions, including edition 0")
	}
	cmd.Flags().Uint64Var(&m.royaltyFraction, "royalty", 0, "royalty out of 10000 (max 1000)")
	cmd.Flags().StringVar(&m.mintingBeginsFrom, "minting-begins", "", "sale start, unix seconds or RFC 3339")
	cmd.Flags().StringVar(&m.mintingCost, "minting-cost", "", `price of one edition, in wei or e.g. "0.01ether"`)
}

// apply overlays the flags the user set onto base.
func (m *metaFlags) apply(cmd *cobra.Command, base collection.MetaParams) (collection.MetaParams, error) {
	flags := cmd.Flags()
	if flags.Changed("whitelist-only") {
		base.WhitelistOnly = m.whitelistOnly
	}
	if flags.Changed("hidden") {
		base.Hidden = m.hidden
	}
	if flags.Changed("max-supply") {
		base.MaxSupply = m.maxSupply
	}
	if flags.Changed("royalty") {
		base.RoyaltyFraction = m.royaltyFraction
	}
	if flags.Changed("minting-begins") {
		v, err := artwork.ParseTime(m.mintingBeginsFrom)
		if err != nil {
			return base, fmt.Errorf("--minting-begins: %w", err)
		}
		base.MintingBeginsFrom = v
	}
	if flags.Changed("minting-cost") {
		v, err := chain.ParseAmount(m.mintingCost)
		if err != nil {
			return base, fmt.Errorf("--minting-cost: %w", err)
		}
		base.MintingCost = v
	}
	return base, nil
}
