package cmd

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/engine"
	"github.com/zjrosen/dixel/internal/presentation"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a factory and its first collection implementation",
	Long: `Deploy publishes the next collection implementation and a factory bound to
it, owned by --from. The new factory becomes the default for commands that
take an optional --factory.

Fee settings come from the factory section of the config file.

Examples:
  dixel deploy --from deployer
  dixel deploy --from deployer --json | jq -r .factory`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := sender()
		if err != nil {
			return err
		}
		beneficiary := from
		if cfg.Factory.Beneficiary != "" {
			if beneficiary, err = parseAddress(cfg.Factory.Beneficiary); err != nil {
				return err
			}
		}
		var creationFee uint64
		if cfg.Factory.CreationFee != "" {
			if creationFee, err = chain.ParseAmount(cfg.Factory.CreationFee); err != nil {
				return err
			}
		}

		return withEnv(cmd, func(ctx context.Context, e *env) error {
			d, err := e.engine.Deploy(ctx, engine.DeployParams{
				Deployer:    from,
				Beneficiary: beneficiary,
				CreationFee: creationFee,
				MintingFee:  cfg.Factory.MintingFee,
				ExternalURL: cfg.ExternalURL,
			})
			if err != nil {
				return err
			}
			result := struct {
				Factory        string                         `json:"factory"`
				Implementation presentation.ImplementationDTO `json:"implementation"`
			}{d.Factory.String(), presentation.FromImplementation(d.Implementation)}
			return output(cmd, result, func(w io.Writer, _ *presentation.Formatter) error {
				printf(cmd, "factory:        %s\n", d.Factory)
				printf(cmd, "implementation: %s (V%d)\n", d.Implementation.Address, d.Implementation.Version)
				return nil
			})
		})
	},
}

var faucetCmd = &cobra.Command{
	Use:   "faucet <address> <amount>",
	Short: "Credit an account for local testing",
	Long: `Faucet mints balance out of nothing. Amounts are wei, or carry a unit.

Examples:
  dixel faucet alice 1ether
  dixel faucet 0x5aeda56215b167893e80b4fe645ba6d5bab767de 250000gwei`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		amount, err := chain.ParseAmount(args[1])
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			if err := e.engine.Faucet(ctx, addr, amount); err != nil {
				return err
			}
			return printBalance(cmd, e, addr)
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Show an account balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		return withEnv(cmd, func(_ context.Context, e *env) error {
			return printBalance(cmd, e, addr)
		})
	},
}

func printBalance(cmd *cobra.Command, e *env, addr chain.Address) error {
	bal := e.engine.Balance(addr)
	result := struct {
		Address string `json:"address"`
		Balance string `json:"balance"`
		Nonce   uint64 `json:"nonce"`
	}{addr.String(), strconv.FormatUint(bal, 10), e.engine.Runtime().Accounts().NonceOf(addr)}
	return output(cmd, result, func(io.Writer, *presentation.Formatter) error {
		printf(cmd, "%s  %s\n", addr, chain.FormatEther(bal))
		return nil
	})
}

func init() {
	rootCmd.AddCommand(deployCmd, faucetCmd, balanceCmd)
}
