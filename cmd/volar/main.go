package main

import (
	"fmt"
	"os"

	"github.com/rottenpen/volar/internal/config"
	"github.com/rottenpen/volar/internal/server"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

var (
	flagVersion bool
	flagLogfile string
	flagVerbose int
	flagConfig  string
	flagDebug   bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "volar",
	Short:         "Language server routing requests to per-project engines",
	Long:          "Volar speaks LSP over stdin/stdout and forwards every request to the engine of the project owning the document.",
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&flagVersion, "version", false, "print the version of the program")
	rootCmd.Flags().StringVar(&flagLogfile, "logfile", "", "path to log file (default: stderr)")
	rootCmd.Flags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "YAML settings file applied before initializationOptions")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "log every JSON-RPC message")
}

func run(cmd *cobra.Command, args []string) error {
	// Version tag
	if flagVersion {
		fmt.Printf("volar LSP server version %s\n", Version)
		return nil
	}

	// Logging
	var logfile *string
	if flagLogfile != "" {
		logfile = &flagLogfile
	}
	commonlog.Configure(1+flagVerbose, logfile)

	// Settings
	cfg := config.Default()
	if flagConfig != "" {
		f, err := os.Open(flagConfig)
		if err != nil {
			return fmt.Errorf("opening %s: %w", flagConfig, err)
		}
		cfg, err = config.LoadFromYAML(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", flagConfig, err)
		}
	}

	server.Version = Version
	s := server.New(server.Options{Config: cfg, Debug: flagDebug})
	return s.RunStdio()
}
