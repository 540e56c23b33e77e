package cli

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-rolledit/config"
	"go-rolledit/debug"
)

var (
	configPath string
	verbose    bool
	debugLog   bool

	cfg *config.Config
	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "rolledit",
	Short: "Piano-roll MIDI editor",
	Long: `rolledit edits Standard MIDI Files in a terminal piano roll with
mergeable undo/redo, batch groups and save points.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetOutput(os.Stderr)
		log.SetLevel(logrus.WarnLevel)
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}

		if debugLog {
			if err := debug.Enable(""); err != nil {
				log.WithError(err).Warn("debug log unavailable")
			}
		}

		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		log.WithField("path", cfg.Path()).Debug("config loaded")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		debug.Disable()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/go-rolledit/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug-log", false, "write the category debug log to ~/.config/go-rolledit/debug.log")
}

// Execute runs the root command
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
