package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePins/pkg/config"
	"github.com/OpenTraceLab/OpenTracePins/pkg/def"
	"github.com/OpenTraceLab/OpenTracePins/pkg/export"
	"github.com/OpenTraceLab/OpenTracePins/pkg/layout"
)

var (
	buildOut     string
	buildFormats []string
	buildStrict  bool
	buildLayer   string
	buildGDS     string
	buildJobs    int
	buildCell    string
)

var buildCmd = &cobra.Command{
	Use:   "build [def-file...]",
	Short: "Draw power stripes and DEF pins and write the layout",
	Long: `Build the top-level cell: every stripe of the stripe table, then the
pins of each DEF file in argument order. DEF files given on the command
line replace the paths listed in the project file.

A port name used twice (by two files, or by a pin and a stripe) aborts the
build before anything is written.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "output directory")
	buildCmd.Flags().StringSliceVarP(&buildFormats, "format", "f", nil, "output formats (gds, svg, ports)")
	buildCmd.Flags().BoolVar(&buildStrict, "strict", false, "fail on the first skipped pin block")
	buildCmd.Flags().StringVar(&buildLayer, "layer", "", "routing layer to extract (default met4)")
	buildCmd.Flags().StringVar(&buildGDS, "gds-layer", "", "GDS layer/datatype for the routing layer, e.g. 71/20 (default from project file, else 65/20)")
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "DEF files read in parallel (default GOMAXPROCS)")
	buildCmd.Flags().StringVar(&buildCell, "cell", "", "top-level cell name")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.OutputDir = buildOut
	}
	if flags.Changed("format") {
		cfg.Formats = buildFormats
	}
	if flags.Changed("strict") {
		cfg.DEF.Strict = buildStrict
	}
	if flags.Changed("layer") {
		cfg.DEF.Layer = buildLayer
	}
	if flags.Changed("gds-layer") {
		if cfg.Layers.Metal, err = config.ParseLayer(buildGDS); err != nil {
			return err
		}
	}
	if flags.Changed("jobs") {
		cfg.DEF.Jobs = buildJobs
	}
	if flags.Changed("cell") {
		cfg.Cell = buildCell
	}
	if len(args) > 0 {
		cfg.DEF.Paths = args
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Resolve sinks up front so a typo fails before any parsing
	sinks, err := export.ByName(cfg.Formats)
	if err != nil {
		return err
	}

	builder := cfg.Builder()
	for _, s := range builder.Stripes.Stripes {
		fmt.Printf("Drawing power stripe %s at x=%g um\n", s.Net, s.X)
	}

	m, results, err := builder.Build(cmd.Context(), cfg.Cell, cfg.DEF.Paths)
	for _, res := range results {
		printResult(res)
	}
	if err != nil {
		var conflict *layout.ConflictError
		if errors.As(err, &conflict) {
			return fmt.Errorf("build aborted, nothing written: %w", err)
		}
		return err
	}

	fmt.Printf("%s Cell %s: %d ports, %d polygons, %d labels\n",
		okMark, m.Cell, m.PortCount(), len(m.Polygons), len(m.Labels))

	for _, sink := range sinks {
		art, err := export.WriteFile(sink, m, cfg.OutputDir)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s saved to %s (%d bytes)\n", okMark, strings.ToUpper(art.Format), art.Path, art.Size)
	}
	return nil
}

// printResult reports one DEF file's extraction counts. Skipped blocks are
// listed only with --verbose.
func printResult(res *def.Result) {
	mark := okMark
	if len(res.Stats.Skipped) > 0 {
		mark = warnMark
	}
	name := res.Path
	if res.Header.Design != "" {
		name = fmt.Sprintf("%s (%s)", res.Path, res.Header.Design)
	}
	fmt.Printf("%s %s: %s\n", mark, name, res.Stats)

	if verbose {
		for _, skip := range res.Stats.Skipped {
			fmt.Printf("    skipped %s\n", skip)
		}
	}
}
