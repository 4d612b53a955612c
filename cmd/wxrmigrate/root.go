package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wxrmigrate/wxrcore/configuration"
	"github.com/wxrmigrate/wxrcore/version"
)

var showVersion bool

func init() {
	RootCmd.AddCommand(IngestCmd)
	RootCmd.AddCommand(RewriteCmd)
	RootCmd.AddCommand(ServeCmd)
	RootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show the version and exit")
}

// RootCmd is the main command for the wxrmigrate binary.
var RootCmd = &cobra.Command{
	Use:   "wxrmigrate",
	Short: "`wxrmigrate` streams and rewrites WordPress eXtended RSS exports",
	Long:  "`wxrmigrate` streams and rewrites WordPress eXtended RSS exports",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			version.PrintVersion()
			return
		}
		// nolint:errcheck
		cmd.Usage()
	},
}

// loadConfiguration opens and parses the configuration file named by
// configPath.
func loadConfiguration(configPath string) (*configuration.Configuration, error) {
	fp, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	config, err := configuration.Parse(fp)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %v", configPath, err)
	}
	return config, nil
}

// configureLogging applies config.Log to the global logrus logger.
func configureLogging(config *configuration.Configuration) error {
	logrus.SetLevel(logLevel(config.Log.Level))
	logrus.SetReportCaller(config.Log.ReportCaller)

	formatter := config.Log.Formatter
	if formatter == "" {
		formatter = "text"
	}

	switch formatter {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339Nano})
	default:
		return fmt.Errorf("unsupported logging formatter: %q", formatter)
	}

	logrus.Debugf("using %q logging formatter", formatter)
	return nil
}

func logLevel(level configuration.Loglevel) logrus.Level {
	l, err := logrus.ParseLevel(string(level))
	if err != nil {
		l = logrus.InfoLevel
		logrus.Warnf("error parsing level %q: %v, using %q", level, err, l)
	}
	return l
}
