package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"smiv/internal/viewer"
)

// newExportCmd renders one slice headlessly and writes it as a PNG, with
// the same windowing, preprocessing and overlay options the GUI offers.
func newExportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Render one slice to a PNG without opening a window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				return fmt.Errorf("an output path is required (--out view.png)")
			}

			ctrl, err := viewer.New(args, opts.cfg, opts.log, nil)
			if err != nil {
				return err
			}
			if err := ctrl.LoadCurrent(); err != nil {
				return err
			}

			if z, _ := cmd.Flags().GetInt("z"); z >= 0 {
				ctrl.SetZ(z)
			}
			if t, _ := cmd.Flags().GetInt("t"); t >= 0 {
				ctrl.SetT(t)
			}

			if cmd.Flags().Changed("wl-center") || cmd.Flags().Changed("wl-width") {
				center, _ := cmd.Flags().GetFloat64("wl-center")
				width, _ := cmd.Flags().GetFloat64("wl-width")
				ctrl.SetWLEnabled(true)
				ctrl.Preproc.WL.Center = center
				ctrl.Preproc.WL.Width = width
			}
			if auto, _ := cmd.Flags().GetBool("auto-wl"); auto {
				ctrl.AutoWindowLevel()
			}

			ctrl.Preproc.HistEq, _ = cmd.Flags().GetBool("hist-eq")
			ctrl.Preproc.Colormap, _ = cmd.Flags().GetBool("colormap")

			if mask, _ := cmd.Flags().GetString("mask"); mask != "" {
				if err := ctrl.LoadMask(mask); err != nil {
					return err
				}
				if alpha, _ := cmd.Flags().GetInt("alpha"); alpha >= 0 {
					ctrl.OverlayAlpha = alpha
				}
				ctrl.OverlayOutline, _ = cmd.Flags().GetBool("outline")
			}

			if _, err := ctrl.Render(0, 0); err != nil {
				return err
			}
			if err := ctrl.ExportPNG(out); err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringP("out", "o", "", "output PNG path")
	f.Int("z", -1, "depth index (default: middle slice)")
	f.Int("t", -1, "time index (default: middle frame)")
	f.Float64("wl-center", 40, "window center; enables window/level when set")
	f.Float64("wl-width", 400, "window width; enables window/level when set")
	f.Bool("auto-wl", false, "derive window/level from slice percentiles")
	f.Bool("hist-eq", false, "apply histogram equalization")
	f.Bool("colormap", false, "apply the pseudocolor mapping")
	f.String("mask", "", "segmentation mask to overlay")
	f.Int("alpha", -1, "overlay opacity in percent")
	f.Bool("outline", false, "draw the overlay as outlines only")

	return cmd
}
