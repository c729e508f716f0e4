package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xob0t/GoHide/pkg/stego"
)

func newCapacityCmd(a *app) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "capacity <file>...",
		Short: "Show how many characters each carrier can hold",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := pterm.TableData{{"File", "Type", "Bits", "Max chars"}}
			for _, path := range args {
				media, err := mediaFor(typ, path)
				if err != nil {
					return err
				}
				c, err := stego.CapacityFile(media, path)
				if err != nil {
					return err
				}
				if a.flags.Quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\t%d\n", path, c.Media, c.Bits, c.MaxChars)
					continue
				}
				rows = append(rows, []string{path, string(c.Media), strconv.Itoa(c.Bits), strconv.Itoa(c.MaxChars)})
			}
			if a.flags.Quiet {
				return nil
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "Carrier type for every file (default from extension)")
	return cmd
}
