package main

import (
	"fmt"
	"net/http"
	"os"

	gometrics "github.com/docker/go-metrics"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ServeCmd runs a small debug HTTP server exposing a health check and, if
// configured, a Prometheus metrics endpoint. It carries no migration
// traffic itself; `ingest`/`rewrite` are one-shot CLI operations.
var ServeCmd = &cobra.Command{
	Use:   "serve <config>",
	Short: "`serve` runs wxrmigrate's debug HTTP interface",
	Long:  "`serve` runs wxrmigrate's debug HTTP interface (healthz and, if enabled, Prometheus metrics)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func runServe(configPath string) error {
	config, err := loadConfiguration(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := configureLogging(config); err != nil {
		return err
	}

	if config.HTTP.Debug.Addr == "" {
		return fmt.Errorf("serve requires http.debug.addr in the configuration file")
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
	})

	if config.HTTP.Debug.Prometheus.Enabled {
		path := config.HTTP.Debug.Prometheus.Path
		if path == "" {
			path = "/metrics"
		}
		logrus.Infof("providing prometheus metrics on %s", path)
		router.Handle(path, gometrics.Handler())
	}

	handler := handlers.CombinedLoggingHandler(os.Stdout, router)

	logrus.Infof("debug server listening on %v", config.HTTP.Debug.Addr)
	return http.ListenAndServe(config.HTTP.Debug.Addr, handler)
}
