package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePins/pkg/layout"
)

var stripesCmd = &cobra.Command{
	Use:   "stripes",
	Short: "Show the power stripe table and its geometry",
	RunE:  runStripes,
}

func init() {
	rootCmd.AddCommand(stripesCmd)
}

func runStripes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stripes := cfg.StripeConfig()
	layers := cfg.LayerSet()
	fmt.Printf("Stripe width %g um, y %g to %g um, layer %s\n\n",
		stripes.Width, stripes.YMin, stripes.YMax, layers.Metal)

	rows := [][]string{{"NET", "USE", "X RANGE (um)", "CENTER (um)", "LAYER"}}
	for _, g := range layout.GenerateStripes(stripes, layers) {
		p := g.Port
		rows = append(rows, []string{
			p.Name,
			p.Use.String(),
			fmt.Sprintf("%g .. %g", g.Polygon.Points[0].X, g.Polygon.Points[1].X),
			fmt.Sprintf("%g, %g", p.Center.X, p.Center.Y),
			p.Layer.String(),
		})
	}
	printTable(cmd.OutOrStdout(), rows)
	return nil
}
