package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"smiv/internal/detect"
	"smiv/internal/loader"
)

// newInfoCmd builds the headless classifier: it prints each file's detected
// kind and metadata summary without opening a window.
func newInfoCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <files...>",
		Short: "Classify files and print their metadata",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			load, _ := cmd.Flags().GetBool("load")
			ld := loader.New(opts.cfg, opts.log)

			for _, path := range args {
				res := detect.File(path)
				fmt.Printf("%s: %s\n", path, res.Kind)
				if res.Summary != "" {
					fmt.Println(res.Summary)
				}

				if load && res.Kind != detect.Unknown {
					vol, err := ld.Load(path, res.Kind)
					if err != nil {
						fmt.Printf("load failed: %v\n", err)
						continue
					}
					fmt.Printf("shape: %s\n", vol.String())
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().Bool("load", false, "also decode each file and print its volume shape")
	return cmd
}
