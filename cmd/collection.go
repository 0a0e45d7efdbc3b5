package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dixel/internal/artwork"
	"github.com/zjrosen/dixel/internal/chain"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/engine"
	"github.com/zjrosen/dixel/internal/pixel"
	"github.com/zjrosen/dixel/internal/presentation"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Create collections and mint, burn and trade editions",
}

var (
	createArtwork     string
	createName        string
	createSymbol      string
	createDescription string
	createMeta        metaFlags
)

var collectionCreateCmd = &cobra.Command{
	Use:   "create --artwork <file|builtin:name>",
	Short: "Create a collection through a factory",
	Long: `Create a collection from an artwork file. The artwork supplies the canvas,
the palette of edition 0 and, optionally, the name and sale settings; flags
override the file. The creation fee is sent automatically unless --value is
given.

Built-in artworks: ` + fmt.Sprint(artwork.Builtins()) + `

Examples:
  dixel collection create --from creator --artwork builtin:heart
  dixel collection create --from creator --artwork ./shape.yaml --name "Shape" \
      --symbol SHP --max-supply 500 --minting-cost 0.01ether`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		from, err := sender()
		if err != nil {
			return err
		}
		art, err := artwork.Load(createArtwork)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("name") {
			art.Name = createName
		}
		if cmd.Flags().Changed("symbol") {
			art.Symbol = createSymbol
		}
		if cmd.Flags().Changed("description") {
			art.Description = createDescription
		}
		meta, err := createMeta.apply(cmd, art.Meta)
		if err != nil {
			return err
		}
		factoryAddr, err := factoryArg(factoryFlag)
		if err != nil {
			return err
		}

		return withEnv(cmd, func(ctx context.Context, e *env) error {
			f, err := e.engine.Factory(factoryAddr)
			if err != nil {
				return err
			}
			value := f.CreationFee()
			if valueFlag != "" {
				if value, err = sentValue(); err != nil {
					return err
				}
			}
			addr, err := e.engine.Create(ctx, engine.CreateParams{
				From:        from,
				Factory:     f.Address(),
				Value:       value,
				Name:        art.Name,
				Symbol:      art.Symbol,
				Description: art.Description,
				Meta:        meta,
				Palette:     art.Palette,
				Canvas:      art.Canvas,
			})
			if err != nil {
				return err
			}
			c, err := e.engine.Collection(addr)
			if err != nil {
				return err
			}
			dto := presentation.FromCollection(c)
			return output(cmd, dto, func(io.Writer, *presentation.Formatter) error {
				printf(cmd, "created %s (%s) at %s\n", dto.Name, dto.Symbol, dto.Address)
				return nil
			})
		})
	},
}

var infoPreview bool

var collectionInfoCmd = &cobra.Command{
	Use:   "info <collection>",
	Short: "Describe a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		return withEnv(cmd, func(_ context.Context, e *env) error {
			c, err := e.engine.Collection(addr)
			if err != nil {
				return err
			}
			dto := presentation.FromCollection(c)
			return output(cmd, dto, func(w io.Writer, _ *presentation.Formatter) error {
				out, err := presentation.RenderSummary(dto, 80)
				if err != nil {
					return err
				}
				if _, err := io.WriteString(w, out); err != nil {
					return err
				}
				if !infoPreview {
					return nil
				}
				canvas := c.Canvas()
				preview := newPreview(w)
				_, err = fmt.Fprintf(w, "\n%s\n%s", preview.Render(&canvas, c.ListData().CoverPalette), preview.Swatches(&canvas, c.ListData().CoverPalette))
				return err
			})
		})
	},
}

var (
	mintTo      string
	mintPalette string
	mintFrom    string
)

// mintPaletteFor resolves the palette of a new edition: --palette, then the
// palette of the --palette-from artwork, then the cover palette.
func mintPaletteFor(c *collection.Collection) (pixel.Palette, error) {
	switch {
	case mintPalette != "":
		return artwork.ParsePaletteList(mintPalette)
	case mintFrom != "":
		art, err := artwork.Load(mintFrom)
		if err != nil {
			return pixel.Palette{}, err
		}
		return art.Palette, nil
	default:
		return c.ListData().CoverPalette, nil
	}
}

// mintArgs resolves the collection, recipient, palette and payment of a mint.
func mintArgs(e *env, collArg string, from chain.Address) (chain.Address, chain.Address, pixel.Palette, uint64, error) {
	var palette pixel.Palette
	addr, err := collectionArg(collArg)
	if err != nil {
		return addr, from, palette, 0, err
	}
	c, err := e.engine.Collection(addr)
	if err != nil {
		return addr, from, palette, 0, err
	}
	to := from
	if mintTo != "" {
		if to, err = parseAddress(mintTo); err != nil {
			return addr, to, palette, 0, err
		}
	}
	if palette, err = mintPaletteFor(c); err != nil {
		return addr, to, palette, 0, err
	}
	value := c.Meta().MintingCost
	if valueFlag != "" {
		if value, err = sentValue(); err != nil {
			return addr, to, palette, 0, err
		}
	}
	return addr, to, palette, value, nil
}

func printMinted(cmd *cobra.Command, coll chain.Address, id uint64, to chain.Address) error {
	result := struct {
		Collection string `json:"collection"`
		TokenID    uint64 `json:"token_id"`
		Owner      string `json:"owner"`
	}{coll.String(), id, to.String()}
	return output(cmd, result, func(io.Writer, *presentation.Formatter) error {
		printf(cmd, "minted #%d to %s\n", id, to)
		return nil
	})
}

var collectionMintCmd = &cobra.Command{
	Use:   "mint <collection>",
	Short: "Mint an edition on a public sale",
	Long: `Mint an edition with its own palette. The minting cost is sent
automatically unless --value is given.

Examples:
  dixel collection mint 0x... --from alice
  dixel collection mint 0x... --from alice --palette "#fdf6e3,#2a9d8f,#264653"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := sender()
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			coll, to, palette, value, err := mintArgs(e, args[0], from)
			if err != nil {
				return err
			}
			id, err := e.engine.Mint(ctx, from, coll, value, to, palette)
			if err != nil {
				return err
			}
			return printMinted(cmd, coll, id, to)
		})
	},
}

var mintIndex string

var collectionMintPrivateCmd = &cobra.Command{
	Use:   "mint-private <collection>",
	Short: "Mint an edition with a whitelist slot",
	Long: `Mint on a whitelist-only sale, consuming one whitelist slot of the sender.
The slot index defaults to the sender's first slot.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := sender()
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			coll, to, palette, value, err := mintArgs(e, args[0], from)
			if err != nil {
				return err
			}
			c, err := e.engine.Collection(coll)
			if err != nil {
				return err
			}
			var index uint64
			if mintIndex != "" {
				if index, err = parseUint("index", mintIndex); err != nil {
					return err
				}
			} else if index, err = c.GetWhitelistIndex(from); err != nil {
				return err
			}
			id, err := e.engine.MintPrivate(ctx, from, coll, value, index, to, palette)
			if err != nil {
				return err
			}
			return printMinted(cmd, coll, id, to)
		})
	},
}

// collectionTx builds a command that sends one transaction to a collection
// and reports done.
func collectionTx(use, short string, nargs int, run func(ctx context.Context, e *env, from, coll chain.Address, args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := sender()
			if err != nil {
				return err
			}
			coll, err := collectionArg(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				msg, err := run(ctx, e, from, coll, args[1:])
				if err != nil {
					return err
				}
				result := struct {
					Collection string `json:"collection"`
					Result     string `json:"result"`
				}{coll.String(), msg}
				return output(cmd, result, func(io.Writer, *presentation.Formatter) error {
					printf(cmd, "%s\n", msg)
					return nil
				})
			})
		},
	}
}

var collectionBurnCmd = collectionTx("burn <collection> <token-id>", "Burn an edition", 2,
	func(ctx context.Context, e *env, from, coll chain.Address, args []string) (string, error) {
		id, err := parseUint("token id", args[0])
		if err != nil {
			return "", err
		}
		if err := e.engine.Burn(ctx, from, coll, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("burned #%d", id), nil
	})

var collectionApproveCmd = collectionTx("approve <collection> <spender> <token-id>", "Approve an account to transfer one edition", 3,
	func(ctx context.Context, e *env, from, coll chain.Address, args []string) (string, error) {
		spender, err := parseAddress(args[0])
		if err != nil {
			return "", err
		}
		id, err := parseUint("token id", args[1])
		if err != nil {
			return "", err
		}
		if err := e.engine.Approve(ctx, from, coll, spender, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("approved %s for #%d", spender, id), nil
	})

var collectionSetApprovalForAllCmd = collectionTx("set-approval-for-all <collection> <operator> <true|false>", "Allow an operator to manage all of the sender's editions", 3,
	func(ctx context.Context, e *env, from, coll chain.Address, args []string) (string, error) {
		operator, err := parseAddress(args[0])
		if err != nil {
			return "", err
		}
		var approved bool
		switch args[1] {
		case "true":
			approved = true
		case "false":
		default:
			return "", fmt.Errorf("invalid approval %q, want true or false", args[1])
		}
		if err := e.engine.SetApprovalForAll(ctx, from, coll, operator, approved); err != nil {
			return "", err
		}
		return fmt.Sprintf("operator %s approved=%t", operator, approved), nil
	})

var collectionTransferCmd = collectionTx("transfer <collection> <to> <token-id>", "Transfer an edition", 3,
	func(ctx context.Context, e *env, from, coll chain.Address, args []string) (string, error) {
		to, err := parseAddress(args[0])
		if err != nil {
			return "", err
		}
		id, err := parseUint("token id", args[1])
		if err != nil {
			return "", err
		}
		c, err := e.engine.Collection(coll)
		if err != nil {
			return "", err
		}
		owner, err := c.OwnerOf(id)
		if err != nil {
			return "", err
		}
		if err := e.engine.TransferFrom(ctx, from, coll, owner, to, id); err != nil {
			return "", err
		}
		return fmt.Sprintf("transferred #%d to %s", id, to), nil
	})

var collectionTransferOwnershipCmd = collectionTx("transfer-ownership <collection> <new-owner>", "Hand the collection and its royalties to a new owner", 2,
	func(ctx context.Context, e *env, from, coll chain.Address, args []string) (string, error) {
		owner, err := parseAddress(args[0])
		if err != nil {
			return "", err
		}
		if err := e.engine.TransferOwnership(ctx, from, coll, owner); err != nil {
			return "", err
		}
		return fmt.Sprintf("owner is now %s", owner), nil
	})

var collectionUpdateDescriptionCmd = collectionTx("update-description <collection> <description>", "Replace the collection description", 2,
	func(ctx context.Context, e *env, from, coll chain.Address, args []string) (string, error) {
		if err := e.engine.UpdateDescription(ctx, from, coll, args[0]); err != nil {
			return "", err
		}
		return "description updated", nil
	})

var updateMeta metaFlags

var collectionUpdateMetadataCmd = &cobra.Command{
	Use:   "update-metadata <collection>",
	Short: "Change the sale settings of a collection",
	Long: `Change the sale settings. Settings not given keep their current value, and
the changed lines are printed as a diff.

Example:
  dixel collection update-metadata 0x... --from creator --whitelist-only --royalty 300`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := sender()
		if err != nil {
			return err
		}
		coll, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		return withEnv(cmd, func(ctx context.Context, e *env) error {
			c, err := e.engine.Collection(coll)
			if err != nil {
				return err
			}
			before := presentation.FromCollection(c)
			meta, err := updateMeta.apply(cmd, c.Meta())
			if err != nil {
				return err
			}
			if err := e.engine.UpdateMetadata(ctx, from, coll, engine.MetadataUpdate{
				WhitelistOnly:     meta.WhitelistOnly,
				Hidden:            meta.Hidden,
				RoyaltyFraction:   meta.RoyaltyFraction,
				MintingBeginsFrom: meta.MintingBeginsFrom,
				MintingCost:       meta.MintingCost,
			}); err != nil {
				return err
			}
			after := presentation.FromCollection(c)
			return output(cmd, after, func(w io.Writer, _ *presentation.Formatter) error {
				diff := presentation.DiffMetadata(before, after)
				if diff == "" {
					diff = "no changes\n"
				}
				_, err := io.WriteString(w, diff)
				return err
			})
		})
	},
}

var collectionRoyaltyCmd = &cobra.Command{
	Use:   "royalty <collection> <sale-price>",
	Short: "Show the royalty owed on a sale",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		price, err := chain.ParseAmount(args[1])
		if err != nil {
			return err
		}
		return withEnv(cmd, func(_ context.Context, e *env) error {
			c, err := e.engine.Collection(coll)
			if err != nil {
				return err
			}
			receiver, amount, err := c.RoyaltyInfo(0, price)
			if err != nil {
				return err
			}
			result := struct {
				Receiver string `json:"receiver"`
				Amount   string `json:"amount"`
			}{receiver.String(), fmt.Sprint(amount)}
			return output(cmd, result, func(io.Writer, *presentation.Formatter) error {
				printf(cmd, "%s to %s\n", chain.FormatEther(amount), receiver)
				return nil
			})
		})
	},
}

var collectionOwnerOfCmd = &cobra.Command{
	Use:   "owner-of <collection> <token-id>",
	Short: "Show the owner and approval of an edition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		coll, err := collectionArg(args[0])
		if err != nil {
			return err
		}
		id, err := parseUint("token id", args[1])
		if err != nil {
			return err
		}
		return withEnv(cmd, func(_ context.Context, e *env) error {
			c, err := e.engine.Collection(coll)
			if err != nil {
				return err
			}
			owner, err := c.OwnerOf(id)
			if err != nil {
				return err
			}
			approved, err := c.GetApproved(id)
			if err != nil {
				return err
			}
			result := struct {
				TokenID  uint64 `json:"token_id"`
				Owner    string `json:"owner"`
				Approved string `json:"approved,omitempty"`
			}{TokenID: id, Owner: owner.String()}
			if !approved.IsZero() {
				result.Approved = approved.String()
			}
			return output(cmd, result, func(io.Writer, *presentation.Formatter) error {
				printf(cmd, "#%d owned by %s\n", id, owner)
				if result.Approved != "" {
					printf(cmd, "approved: %s\n", result.Approved)
				}
				return nil
			})
		})
	},
}

func init() {
	collectionCreateCmd.Flags().StringVar(&createArtwork, "artwork", "", "artwork file, or builtin:<name>")
	collectionCreateCmd.Flags().StringVar(&createName, "name", "", "collection name (overrides the artwork)")
	collectionCreateCmd.Flags().StringVar(&createSymbol, "symbol", "", "collection symbol (overrides the artwork)")
	collectionCreateCmd.Flags().StringVar(&createDescription, "description", "", "collection description (overrides the artwork)")
	collectionCreateCmd.Flags().StringVar(&factoryFlag, "factory", "", "factory address (default: the default factory)")
	createMeta.register(collectionCreateCmd, true)
	_ = collectionCreateCmd.MarkFlagRequired("artwork")

	for _, c := range []*cobra.Command{collectionMintCmd, collectionMintPrivateCmd} {
		c.Flags().StringVar(&mintTo, "to", "", "recipient (default: the sender)")
		c.Flags().StringVar(&mintPalette, "palette", "", "comma separated hex colors of the new edition")
		c.Flags().StringVar(&mintFrom, "palette-from", "", "use the palette of an artwork file or builtin:<name>")
	}
	collectionMintPrivateCmd.Flags().StringVar(&mintIndex, "index", "", "whitelist slot to consume (default: the sender's first)")

	collectionInfoCmd.Flags().BoolVar(&infoPreview, "preview", false, "draw the cover edition below the summary")

	updateMeta.register(collectionUpdateMetadataCmd, false)

	collectionCmd.AddCommand(
		collectionCreateCmd,
		collectionInfoCmd,
		collectionMintCmd,
		collectionMintPrivateCmd,
		collectionBurnCmd,
		collectionUpdateMetadataCmd,
		collectionUpdateDescriptionCmd,
		collectionApproveCmd,
		collectionSetApprovalForAllCmd,
		collectionTransferCmd,
		collectionTransferOwnershipCmd,
		collectionRoyaltyCmd,
		collectionOwnerOfCmd,
	)
	rootCmd.AddCommand(collectionCmd)
}
