package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xob0t/GoHide/pkg/stego"
)

func newRevealCmd(a *app) *cobra.Command {
	var in, typ string
	cmd := &cobra.Command{
		Use:   "reveal",
		Short: "Recover a hidden message",
		Long: `Recover a hidden message. The text is printed on stdout; the exit status
is zero whether or not a message was found.`,
		Example: `  gohide reveal -i secret.png
  gohide reveal -i secret.avi --order column`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			media, err := mediaFor(typ, in)
			if err != nil {
				return err
			}
			text, found, err := stego.RevealFile(cmd.Context(), media, in, a.stegoOptions())
			if err != nil {
				return err
			}
			if !found {
				pterm.Warning.Printfln("No hidden message found in %s", in)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "File to inspect")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "Carrier type: image, audio or video (default from extension)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
