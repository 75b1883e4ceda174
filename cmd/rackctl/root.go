package main

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chazu/minerack/internal/config"
	"github.com/chazu/minerack/pkg/layout"
)

// errRejected is returned after the findings have been printed, so main only
// has to set the exit status.
var errRejected = errors.New("configuration rejected")

// options carries the global flags and the loaded configuration to every
// subcommand.
type options struct {
	cfg *config.Config
	log *logrus.Logger

	json    bool
	variant string
	rack    layout.RackConfig
	clamp   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{rack: layout.DefaultConfig()}

	root := &cobra.Command{
		Use:   "rackctl",
		Short: "Plan ASIC mining racks",
		Long: `rackctl computes parametric layouts of ASIC mining racks, checks them and
serves them to a browser renderer.

Environment Variables:
  MINERACK_VARIANT       Default variant (default: workshop)
  MINERACK_LOG_LEVEL     Log level, or "off" (default: info)
  MINERACK_LISTEN_ADDR   Address for serve (default: :8080)
  MINERACK_MESH_CELLS    Marching-cubes resolution ceiling (default: 128)
  MINERACK_EVAL_TIMEOUT  DSL evaluation timeout (default: 5s)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.log = config.NewLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
	}

	def := layout.DefaultConfig()
	pf := root.PersistentFlags()
	pf.BoolVar(&opts.json, "json", false, "Output JSON instead of human-readable text")
	pf.StringVar(&opts.variant, "variant", "", "Layout variant (overrides MINERACK_VARIANT)")
	pf.IntVar(&opts.rack.Levels, "levels", def.Levels, "Shelf tiers per rack")
	pf.IntVar(&opts.rack.MachinesPerLevel, "machines", def.MachinesPerLevel, "Machines per tier")
	pf.Float64Var(&opts.rack.ShelfDepth, "depth", def.ShelfDepth, "Shelf depth in metres")
	pf.Float64Var(&opts.rack.ConduitDiameter, "conduit", def.ConduitDiameter, "Conduit diameter in metres")
	pf.Float64Var(&opts.rack.MachineGap, "gap", def.MachineGap, "Gap between machines in metres")
	pf.BoolVar(&opts.clamp, "clamp", false, "Snap parameters into their documented ranges")

	root.AddCommand(
		newLayoutCmd(opts),
		newValidateCmd(opts),
		newEvalCmd(opts),
		newVariantsCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// selection resolves the variant and rack the flags ask for.
func (o *options) selection() (layout.Variant, layout.RackConfig, error) {
	v := layout.VariantWorkshop
	if o.cfg != nil {
		v = o.cfg.Variant
	}
	if o.variant != "" {
		parsed, err := layout.ParseVariant(o.variant)
		if err != nil {
			return 0, layout.RackConfig{}, err
		}
		v = parsed
	}

	rack := o.rack
	if o.clamp {
		rack = layout.Clamp(rack)
	}
	return v, rack, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
