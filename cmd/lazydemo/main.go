package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	lazy "github.com/pumped-fn/lazy-go"
	"github.com/pumped-fn/lazy-go/extensions"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "lazydemo",
		Short:         "Exercise the lazy slot substrate on a small scene",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML registry config")

	root.AddCommand(
		newScenarioCmd(opts),
		newTreeCmd(opts),
		newStatsCmd(opts),
	)
	return root
}

// setup builds a registry from the config flag, with logging and metrics
// extensions attached.
func (o *options) setup(cmd *cobra.Command) (*model, *prometheus.Registry, error) {
	cfg := lazy.DefaultConfig()
	if o.configPath != "" {
		loaded, err := lazy.LoadConfigFile(o.configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	promReg := prometheus.NewRegistry()
	logger := cfg.NewLogger(cmd.ErrOrStderr())
	reg := lazy.NewRegistry(
		lazy.WithConfig(cfg),
		lazy.WithLogger(logger),
		lazy.WithExtension(extensions.NewLoggingExtension(nil)),
		lazy.WithExtension(extensions.NewMetricsExtension(promReg, "lazydemo")),
		lazy.WithExtension(extensions.NewGraphDebugExtension(extensions.NewHumanHandler(cmd.ErrOrStderr(), cfg.Level()))),
	)
	m, err := newModel(reg)
	if err != nil {
		return nil, nil, err
	}
	return m, promReg, nil
}

func newScenarioCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "scenario [radius|children|sharing]",
		Short:     "Run one scenario and print every step",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"radius", "children", "sharing"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch args[0] {
			case "radius":
				return runRadius(out, m)
			case "children":
				return runChildren(out, m)
			case "sharing":
				return runSharing(out, m)
			}
			return fmt.Errorf("unknown scenario %q", args[0])
		},
	}
}

func newTreeCmd(opts *options) *cobra.Command {
	var circles int
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the dependency tree of a group of circles",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			g, err := buildGroup(m, circles)
			if err != nil {
				return err
			}
			if _, err := m.total.Get(g); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), extensions.RenderTree(g))
			return nil
		},
	}
	cmd.Flags().IntVar(&circles, "circles", 3, "number of circles in the group")
	return cmd
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Run every scenario and print pool and metric counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, promReg, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			for _, run := range []func(w writer, m *model) error{runRadius, runChildren, runSharing} {
				if err := run(io.Discard, m); err != nil {
					return err
				}
			}
			return printStats(cmd.OutOrStdout(), m, promReg)
		},
	}
}
