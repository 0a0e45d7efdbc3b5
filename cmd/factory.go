package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/presentation"
)

var factoryFlag string

var factoryCmd = &cobra.Command{
	Use:   "factory",
	Short: "Inspect and administer a collection factory",
	Long: `Factory commands act on --factory, or on the default factory (the one
most recently deployed) when the flag is omitted. Settings changes must be
sent by the factory owner.`,
}

var factoryInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show factory settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, err := factoryArg(factoryFlag)
		if err != nil {
			return err
		}
		return withEnv(cmd, func(_ context.Context, e *env) error {
			f, err := e.engine.Factory(addr)
			if err != nil {
				return err
			}
			dto := presentation.FromFactory(f, f.Address() == e.engine.DefaultFactory())
			return output(cmd, dto, func(_ io.Writer, fm *presentation.Formatter) error {
				return fm.FormatFactory(dto)
			})
		})
	},
}

var factoryImplementationsCmd = &cobra.Command{
	Use:   "implementations",
	Short: "List published collection implementations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnv(cmd, func(_ context.Context, e *env) error {
			impls := e.engine.Implementations()
			dtos := make([]presentation.ImplementationDTO, len(impls))
			for i, impl := range impls {
				dtos[i] = presentation.FromImplementation(impl)
			}
			return output(cmd, dtos, func(io.Writer, *presentation.Formatter) error {
				for _, d := range dtos {
					printf(cmd, "V%d  %s  %s\n", d.Version, d.Address, d.ExternalURL)
				}
				return nil
			})
		})
	},
}

var publishExternalURL string

var factoryPublishCmd = &cobra.Command{
	Use:   "publish-implementation",
	Short: "Publish the next collection implementation version",
	Long: `Publish the next implementation version. Existing factories keep creating
collections with their current implementation until the owner runs
'dixel factory set-implementation'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := sender()
		if err != nil {
			return err
		}
		url := publishExternalURL
		if url == "" {
			url = cfg.ExternalURL
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			impl, err := e.engine.PublishImplementation(ctx, from, url)
			if err != nil {
				return err
			}
			dto := presentation.FromImplementation(impl)
			return output(cmd, dto, func(io.Writer, *presentation.Formatter) error {
				printf(cmd, "published V%d at %s\n", impl.Version, impl.Address)
				return nil
			})
		})
	},
}

// factorySetter builds an owner-only factory command taking one argument.
func factorySetter(use, short string, apply func(ctx context.Context, e *env, from, factory chain.Address, arg string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := sender()
			if err != nil {
				return err
			}
			addr, err := factoryArg(factoryFlag)
			if err != nil {
				return err
			}
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				f, err := e.engine.Factory(addr)
				if err != nil {
					return err
				}
				if err := apply(ctx, e, from, f.Address(), args[0]); err != nil {
					return err
				}
				dto := presentation.FromFactory(f, f.Address() == e.engine.DefaultFactory())
				return output(cmd, dto, func(_ io.Writer, fm *presentation.Formatter) error {
					return fm.FormatFactory(dto)
				})
			})
		},
	}
}

var factorySetImplementationCmd = factorySetter("set-implementation <implementation>",
	"Bind new collections to a published implementation",
	func(ctx context.Context, e *env, from, factory chain.Address, arg string) error {
		impl, err := parseAddress(arg)
		if err != nil {
			return err
		}
		return e.engine.UpdateImplementation(ctx, from, factory, impl)
	})

var factorySetBeneficiaryCmd = factorySetter("set-beneficiary <address>",
	"Change the account receiving creation and minting fees",
	func(ctx context.Context, e *env, from, factory chain.Address, arg string) error {
		addr, err := parseAddress(arg)
		if err != nil {
			return err
		}
		return e.engine.UpdateBeneficiary(ctx, from, factory, addr)
	})

var factorySetCreationFeeCmd = factorySetter("set-creation-fee <amount>",
	"Change the fee paid to create a collection",
	func(ctx context.Context, e *env, from, factory chain.Address, arg string) error {
		amount, err := chain.ParseAmount(arg)
		if err != nil {
			return err
		}
		return e.engine.UpdateCreationFee(ctx, from, factory, amount)
	})

var factorySetMintingFeeCmd = factorySetter("set-minting-fee <fraction>",
	"Change the platform share of every mint, out of 10000",
	func(ctx context.Context, e *env, from, factory chain.Address, arg string) error {
		fraction, err := parseUint("fraction", arg)
		if err != nil {
			return err
		}
		return e.engine.UpdateMintingFee(ctx, from, factory, fraction)
	})

var factoryAddCollectionCmd = factorySetter("add-collection <collection>",
	"Index an existing collection in this factory",
	func(ctx context.Context, e *env, from, factory chain.Address, arg string) error {
		addr, err := collectionArg(arg)
		if err != nil {
			return err
		}
		return e.engine.AddCollection(ctx, from, factory, addr)
	})

var factoryTransferOwnershipCmd = factorySetter("transfer-ownership <address>",
	"Hand the factory to a new owner",
	func(ctx context.Context, e *env, from, factory chain.Address, arg string) error {
		owner, err := parseAddress(arg)
		if err != nil {
			return err
		}
		return e.engine.TransferFactoryOwnership(ctx, from, factory, owner)
	})

var migrateSource string

var migrateCmd = &cobra.Command{
	Use:   "migrate --from-factory <address>",
	Short: "Copy the collection index of an older factory",
	Long: `Migrate adds every collection indexed by --from-factory to --factory (or the
default factory), skipping the ones already present. It is a single
transaction and safe to repeat. The sender must own the target factory.

Example:
  dixel deploy --from deployer
  dixel migrate --from deployer --from-factory 0x...old`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := sender()
		if err != nil {
			return err
		}
		source, err := parseAddress(migrateSource)
		if err != nil {
			return err
		}
		target, err := factoryArg(factoryFlag)
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			if target.IsZero() {
				target = e.engine.DefaultFactory()
			}
			added, err := e.engine.Migrate(ctx, from, source, target)
			if err != nil {
				return err
			}
			result := struct {
				Added int `json:"added"`
			}{added}
			return output(cmd, result, func(io.Writer, *presentation.Formatter) error {
				printf(cmd, "added %d collections to %s\n", added, target)
				return nil
			})
		})
	},
}

var (
	listOffset uint64
	listLimit  uint64
	listHidden bool
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Browse the collections of a factory",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections in creation order",
	Long: `List prints one line per collection: "index: name - address - V<version>".
Hidden collections are skipped unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, err := factoryArg(factoryFlag)
		if err != nil {
			return err
		}
		return withEnv(cmd, func(_ context.Context, e *env) error {
			f, err := e.engine.Factory(addr)
			if err != nil {
				return err
			}
			limit := listLimit
			if limit == 0 {
				limit = f.CollectionCount()
			}
			items := make([]presentation.ListingDTO, 0, limit)
			for i, caddr := range f.GetCollections(listOffset, limit) {
				c, err := e.engine.Collection(caddr)
				if err != nil {
					return err
				}
				ld := c.ListData()
				if ld.Hidden && !listHidden {
					continue
				}
				items = append(items, presentation.FromListData(listOffset+uint64(i), ld))
			}
			return output(cmd, items, func(_ io.Writer, fm *presentation.Formatter) error {
				return fm.FormatListing(items)
			})
		})
	},
}

func init() {
	factoryCmd.PersistentFlags().StringVar(&factoryFlag, "factory", "", "factory address (default: the default factory)")
	migrateCmd.Flags().StringVar(&factoryFlag, "factory", "", "target factory (default: the default factory)")
	collectionsCmd.PersistentFlags().StringVar(&factoryFlag, "factory", "", "factory address (default: the default factory)")

	factoryPublishCmd.Flags().StringVar(&publishExternalURL, "external-url", "", "site linked from documents (default: external_url)")
	migrateCmd.Flags().StringVar(&migrateSource, "from-factory", "", "factory to copy collections from")
	_ = migrateCmd.MarkFlagRequired("from-factory")

	collectionsListCmd.Flags().Uint64Var(&listOffset, "offset", 0, "index of the first collection")
	collectionsListCmd.Flags().Uint64Var(&listLimit, "limit", 0, "maximum number of collections (0 = all)")
	collectionsListCmd.Flags().BoolVar(&listHidden, "all", false, "include hidden collections")

	factoryCmd.AddCommand(
		factoryInfoCmd,
		factoryImplementationsCmd,
		factoryPublishCmd,
		factorySetImplementationCmd,
		factorySetBeneficiaryCmd,
		factorySetCreationFeeCmd,
		factorySetMintingFeeCmd,
		factoryAddCollectionCmd,
		factoryTransferOwnershipCmd,
	)
	collectionsCmd.AddCommand(collectionsListCmd)
	rootCmd.AddCommand(factoryCmd, migrateCmd, collectionsCmd)
}
