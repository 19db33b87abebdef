package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePins/pkg/config"
	"github.com/OpenTraceLab/OpenTracePins/pkg/def"
	"github.com/OpenTraceLab/OpenTracePins/pkg/layout"
)

var (
	portsStrict   bool
	portsLayer    string
	portsGDSLayer string
)

var portsCmd = &cobra.Command{
	Use:   "ports <def-file>",
	Short: "List the pins extracted from a DEF file",
	Long: `List every pin of the DEF file that would be drawn: name, net,
direction, use, center and size in microns, orientation in degrees and the
GDS layer. Skipped candidate blocks are listed after the table.

The layer and strict settings come from the project file unless overridden.`,
	Args: cobra.ExactArgs(1),
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
	portsCmd.Flags().BoolVar(&portsStrict, "strict", false, "fail on the first skipped pin block")
	portsCmd.Flags().StringVar(&portsLayer, "layer", "", "routing layer to extract (default from project file, else met4)")
	portsCmd.Flags().StringVar(&portsGDSLayer, "gds-layer", "", "GDS layer/datatype of the routing layer, e.g. 71/20")
}

func runPorts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("strict") {
		cfg.DEF.Strict = portsStrict
	}
	if flags.Changed("layer") {
		cfg.DEF.Layer = portsLayer
	}
	if flags.Changed("gds-layer") {
		if cfg.Layers.Metal, err = config.ParseLayer(portsGDSLayer); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	res, err := def.ParseFile(args[0], cfg.DEFOptions()...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if verbose {
		h := res.Header
		fmt.Fprintf(out, "Design: %s\n", h.Design)
		fmt.Fprintf(out, "Units:  %d DBU per micron\n", h.Units.DBUPerMicron)
		if h.HasDie {
			fmt.Fprintf(out, "Die:    (%d %d) (%d %d)\n", h.DieArea.X1, h.DieArea.Y1, h.DieArea.X2, h.DieArea.Y2)
		}
		fmt.Fprintln(out)
	}

	layer := cfg.LayerSet().Metal
	rows := [][]string{{"NAME", "NET", "DIR", "USE", "CENTER (um)", "SIZE (um)", "ORIENT", "LAYER", "LINE"}}
	for _, rec := range res.Ports {
		port, _ := layout.ResolvePort(rec, res.Header.Units, layer)
		rows = append(rows, []string{
			port.Name,
			port.Net,
			port.Direction.String(),
			port.Use.String(),
			fmt.Sprintf("%g, %g", port.Center.X, port.Center.Y),
			fmt.Sprintf("%g x %g", port.Width, port.Height),
			fmt.Sprintf("%s (%g)", rec.Orientation, port.Orientation),
			port.Layer.String(),
			fmt.Sprintf("%d", rec.Line),
		})
	}
	printTable(out, rows)

	fmt.Fprintf(out, "\n%s %s\n", okMark, res.Stats)
	for _, skip := range res.Stats.Skipped {
		fmt.Fprintf(out, "%s skipped %s\n", warnMark, skip)
	}
	return nil
}

// printTable left-aligns columns by display width so pin names with wide
// runes stay aligned.
func printTable(w io.Writer, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		var sb strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]+2))
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
}
