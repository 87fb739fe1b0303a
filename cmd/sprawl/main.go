package main

import (
	"os"

	"github.com/spf13/cobra"

	"sprawl/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sprawl",
		Short: "Deterministic streamed open-world engine",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(genCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(initCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the engine config: the project's world.yaml when a
// path is given, built-in defaults otherwise.
func loadConfig(projectPath string) (*config.Config, error) {
	if projectPath == "" {
		return config.Default(), nil
	}
	return config.LoadProject(projectPath)
}

func runCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [project-path]",
		Short: "Run the headless world simulation with a wandering observer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			return runWorld(cfg, opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "world seed")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 600, "ticks to simulate (0 runs forever)")
	cmd.Flags().IntVar(&opts.hz, "hz", 30, "tick rate")
	cmd.Flags().IntVar(&opts.observerPort, "observer", 0, "serve the debug observer on this port (0 disables)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "zap log level")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "console log encoding")
	return cmd
}

func genCmd() *cobra.Command {
	var opts genOptions

	cmd := &cobra.Command{
		Use:   "gen [cell-x] [cell-z]",
		Short: "Generate one cell twice, verify determinism and dump its content",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.projectPath)
			if err != nil {
				return err
			}
			return runGen(cfg, opts, args[0], args[1])
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "world seed")
	cmd.Flags().StringVarP(&opts.projectPath, "project", "P", "", "project directory with world.yaml")
	return cmd
}

func serveCmd() *cobra.Command {
	var opts runOptions
	var port int

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Run the simulation with the debug observer attached",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			opts.ticks = 0
			opts.observerPort = port
			return runWorld(cfg, opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "world seed")
	cmd.Flags().IntVar(&opts.hz, "hz", 30, "tick rate")
	cmd.Flags().IntVarP(&port, "port", "p", 3000, "observer HTTP port")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "zap log level")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "console log encoding")
	return cmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [project-path]",
		Short: "Write a world.yaml with the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return writeDefaultProject(args[0])
		},
	}
}
