// File: cmd/clipboard.go
package cmd

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/ui-differ/internal/observability"
	"github.com/xkilldash9x/ui-differ/internal/pipeline"
	"github.com/xkilldash9x/ui-differ/internal/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newClipboardCmd creates the `clipboard` command group.
func newClipboardCmd() *cobra.Command {
	clipboardCmd := &cobra.Command{
		Use:   "clipboard",
		Short: "Convert between design files and the plugin clipboard format",
	}
	clipboardCmd.AddCommand(newClipboardEncodeCmd())
	clipboardCmd.AddCommand(newClipboardDecodeCmd())
	return clipboardCmd
}

func newClipboardEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <design>",
		Short: "Normalize a design and print it as clipboard text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			design, err := transport.LoadDesign(args[0])
			if err != nil {
				return err
			}
			p := pipeline.New(cfg, observability.GetLogger())
			nodes, err := p.DesignTree(ctx, "clipboard", pipeline.Input{
				Design:           design.Scene,
				DesignNodes:      design.Nodes,
				DesignNormalized: design.Normalized,
			})
			if err != nil {
				return err
			}

			text, err := transport.EncodeClipboard(nodes)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
}

func newClipboardDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Print clipboard text as a JSON node list",
		Long:  `Reads clipboard text from the file, or from stdin when the file is omitted or "-".`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				text, err = io.ReadAll(cmd.InOrStdin())
			} else {
				text, err = transport.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			nodes, err := transport.DecodeClipboard(string(text))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(nodes)
		},
	}
}
