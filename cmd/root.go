package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/autobrr/tqv/pkg/config"
	"github.com/autobrr/tqv/pkg/logger"
	"github.com/autobrr/tqv/pkg/stringutils"
)

var (
	// Global flags
	flagLogLevel     = 0
	flagConfigFile   = "config.yaml"
	flagConfigFolder = defaultConfigFolder()
	flagLogFile      = "activity.log"
	flagDryRun       bool
	flagFilterName   string

	// Global vars
	log         *logrus.Entry
	initialized bool
)

var rootCmd = &cobra.Command{
	Use:   "tqv",
	Short: "A CLI torrent queue viewer",
	Long: `A CLI application that lists the torrents of a client as display records,
validates record listings and pauses, resumes or removes torrents by id or by filter.
`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Parse persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFolder, "config-dir", flagConfigFolder, "Config folder")
	rootCmd.PersistentFlags().StringVarP(&flagConfigFile, "config", "c", flagConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVarP(&flagLogFile, "log", "l", flagLogFile, "Log file")
	rootCmd.PersistentFlags().CountVarP(&flagLogLevel, "verbose", "v", "Verbose level")

	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Dry run mode")
}

func defaultConfigFolder() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tqv")
	}

	return "."
}

func configPath(name string) string {
	if filepath.IsAbs(name) || flagConfigFolder == "" {
		return name
	}

	return filepath.Join(flagConfigFolder, name)
}

func initCore(showAppInfo bool) {
	// Init Logging
	if err := logger.Init(logger.Config{
		Verbosity: flagLogLevel,
		File:      configPath(flagLogFile),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed initializing logger: %v\n", err)
		os.Exit(1)
	}

	log = logger.GetLogger("app")

	// Init Config
	if err := config.Init(configPath(flagConfigFile)); err != nil {
		log.WithError(err).Fatal("Failed initializing config")
	}

	// Show App Info
	if showAppInfo {
		showUsing()
	}
}

func showUsing() {
	// show app info
	log.Infof("Using %s = %q", stringutils.LeftJust("LOG", " ", 10), configPath(flagLogFile))
	config.ShowUsing()
	log.Info("------------------")
}
