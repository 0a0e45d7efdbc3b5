package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/presentation"
)

var whitelistCmd = &cobra.Command{
	Use:   "whitelist",
	Short: "Manage and inspect the whitelist of a collection",
	Long: `A whitelist holds one slot per entry. An account listed twice may mint two
editions on a whitelist-only sale; each private mint consumes one slot.`,
}

var whitelistAddCmd = collectionTx("add <collection> <address>...", "Append accounts to the whitelist", 2,
	func(ctx context.Context, e *env, from, coll chain.Address, args []string) (string, error) {
		addrs, err := parseAddresses(args)
		if err != nil {
			return "", err
		}
		if err := e.engine.AddWhitelist(ctx, from, coll, addrs); err != nil {
			return "", err
		}
		return fmt.Sprintf("added %d whitelist slot(s)", len(addrs)), nil
	})

var whitelistRemoveCmd = collectionTx("remove <collection> <index> <address>", "Remove the whitelist slot at index", 3,
	func(ctx context.Context, e *env, from, coll chain.Address, args []string) (string, error) {
		index, err := parseUint("index", args[0])
		if err != nil {
			return "", err
		}
		expected, err := parseAddress(args[1])
		if err != nil {
			return "", err
		}
		if err := e.engine.RemoveWhitelist(ctx, from, coll, index, expected); err != nil {
			return "", err
		}
		return fmt.Sprintf("removed slot %d (%s)", index, expected), nil
	})

var (
	whitelistOffset uint64
	whitelistLimit  uint64
)

var whitelistListCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "List whitelist slots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		return withEnv(cmd, func(_ context.Context, e *env) error {
			c, err := e.engine.Collection(coll)
			if err != nil {
				return err
			}
			limit := whitelistLimit
			if limit == 0 {
				limit = c.GetWhitelistCount()
			}
			dto := presentation.FromWhitelistPage(c, whitelistOffset, c.GetAllWhitelist(whitelistOffset, limit))
			return output(cmd, dto, func(io.Writer, *presentation.Formatter) error {
				for i, entry := range dto.Entries {
					printf(cmd, "%d: %s\n", dto.Offset+uint64(i), entry)
				}
				printf(cmd, "%d slot(s)\n", dto.Count)
				return nil
			})
		})
	},
}

var whitelistStatusCmd = &cobra.Command{
	Use:   "status <collection> <address>",
	Short: "Show whether an account is whitelisted and how many slots it holds",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		addr, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		return withEnv(cmd, func(_ context.Context, e *env) error {
			c, err := e.engine.Collection(coll)
			if err != nil {
				return err
			}
			result := struct {
				Address   string  `json:"address"`
				Member    bool    `json:"member"`
				Allowance uint64  `json:"allowance"`
				Index     *uint64 `json:"index,omitempty"`
			}{
				Address:   addr.String(),
				Member:    c.IsWhitelistWallet(addr),
				Allowance: c.GetWhitelistAllowanceLeft(addr),
			}
			if index, err := c.GetWhitelistIndex(addr); err == nil {
				result.Index = &index
			}
			return output(cmd, result, func(io.Writer, *presentation.Formatter) error {
				if !result.Member {
					printf(cmd, "%s is not whitelisted\n", addr)
					return nil
				}
				printf(cmd, "%s holds %d slot(s), first at index %d\n", addr, result.Allowance, *result.Index)
				return nil
			})
		})
	},
}

func init() {
	whitelistAddCmd.Args = cobra.MinimumNArgs(2)
	whitelistListCmd.Flags().Uint64Var(&whitelistOffset, "offset", 0, "first slot to list")
	whitelistListCmd.Flags().Uint64Var(&whitelistLimit, "limit", 0, "number of slots to list (0 = all)")

	whitelistCmd.AddCommand(whitelistAddCmd, whitelistRemoveCmd, whitelistListCmd, whitelistStatusCmd)
	rootCmd.AddCommand(whitelistCmd)
}
