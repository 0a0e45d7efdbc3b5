package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/dixel/internal/artwork"
	"github.com/zjrosen/dixel/internal/collection"
	"github.com/zjrosen/dixel/internal/presentation"
	"github.com/zjrosen/dixel/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render editions and metadata documents",
}

var (
	renderOut    string
	renderDecode bool
	renderASCII  bool
)

func newPreview(w io.Writer) *presentation.Preview {
	if renderASCII {
		return presentation.NewPreviewWithProfile(w, termenv.Ascii)
	}
	return presentation.NewPreview(w)
}

// editionArgs resolves "<collection> [token-id]", defaulting to edition 0.
func editionArgs(e *env, args []string) (*collection.Collection, uint64, error) {
	coll, err := collectionArg(args[0])
	if err != nil {
		return nil, 0, err
	}
	c, err := e.engine.Collection(coll)
	if err != nil {
		return nil, 0, err
	}
	var id uint64
	if len(args) > 1 {
		if id, err = parseUint("token id", args[1]); err != nil {
			return nil, 0, err
		}
	}
	return c, id, nil
}

// writeRendered writes body to --out, or to stdout.
func writeRendered(cmd *cobra.Command, body string) error {
	if renderOut != "" {
		if err := os.WriteFile(renderOut, []byte(body), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", renderOut, err)
		}
		printf(cmd, "wrote %s\n", renderOut)
		return nil
	}
	_, err := io.WriteString(cmd.OutOrStdout(), body)
	return err
}

// documentBody returns a metadata URI, or its pretty-printed JSON with --decode.
func documentBody(uri string) (string, error) {
	if !renderDecode {
		return uri + "\n", nil
	}
	_, body, err := render.DecodeDataURI(uri)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err != nil {
		return "", err
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

var renderSVGCmd = &cobra.Command{
	Use:   "svg <collection> [token-id]",
	Short: "Write the SVG image of an edition",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(_ context.Context, e *env) error {
			c, id, err := editionArgs(e, args)
			if err != nil {
				return err
			}
			svg, err := c.RenderImage(id)
			if err != nil {
				return err
			}
			return writeRendered(cmd, svg+"\n")
		})
	},
}

var renderTokenURICmd = &cobra.Command{
	Use:   "token-uri <collection> [token-id]",
	Short: "Print the metadata URI of an edition",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(_ context.Context, e *env) error {
			c, id, err := editionArgs(e, args)
			if err != nil {
				return err
			}
			uri, err := c.TokenURI(id)
			if err != nil {
				return err
			}
			body, err := documentBody(uri)
			if err != nil {
				return err
			}
			return writeRendered(cmd, body)
		})
	},
}

var renderContractURICmd = &cobra.Command{
	Use:   "contract-uri <collection>",
	Short: "Print the collection metadata URI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(_ context.Context, e *env) error {
			c, _, err := editionArgs(e, args)
			if err != nil {
				return err
			}
			uri, err := c.ContractURI()
			if err != nil {
				return err
			}
			body, err := documentBody(uri)
			if err != nil {
				return err
			}
			return writeRendered(cmd, body)
		})
	},
}

var renderPreviewCmd = &cobra.Command{
	Use:   "preview <collection> [token-id]",
	Short: "Draw an edition in the terminal",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(_ context.Context, e *env) error {
			c, id, err := editionArgs(e, args)
			if err != nil {
				return err
			}
			if !c.Exists(id) {
				return collection.ErrTokenNotFound
			}
			canvas := c.Canvas()
			palette := c.PaletteOf(id)
			preview := newPreview(cmd.OutOrStdout())
			printf(cmd, "%s%s", preview.Render(&canvas, palette), preview.Swatches(&canvas, palette))
			return nil
		})
	},
}

var renderCanvasCmd = &cobra.Command{
	Use:   "canvas <collection>",
	Short: "Export the canvas as artwork glyph rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(_ context.Context, e *env) error {
			c, _, err := editionArgs(e, args)
			if err != nil {
				return err
			}
			canvas := c.Canvas()
			return writeRendered(cmd, artwork.FormatCanvas(&canvas))
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{renderSVGCmd, renderTokenURICmd, renderContractURICmd, renderCanvasCmd} {
		c.Flags().StringVarP(&renderOut, "out", "o", "", "write to a file instead of stdout")
	}
	renderTokenURICmd.Flags().BoolVar(&renderDecode, "decode", false, "print the decoded JSON document")
	renderPreviewCmd.Flags().BoolVar(&renderASCII, "ascii", false, "print palette slot glyphs instead of colors")
	renderContractURICmd.Flags().BoolVar(&renderDecode, "decode", false, "print the decoded JSON document")

	renderCmd.AddCommand(renderSVGCmd, renderTokenURICmd, renderContractURICmd, renderPreviewCmd, renderCanvasCmd)
	rootCmd.AddCommand(renderCmd)
}
