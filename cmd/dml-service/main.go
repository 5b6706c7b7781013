// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matrixorigin/dmlproc/pkg/logutil"
	v2 "github.com/matrixorigin/dmlproc/pkg/util/metric/v2"
)

var (
	configFile = flag.String("cfg", "./dml.toml", "toml configuration used to start dml-service")
	keep       = flag.Bool("keep", false, "keep serving metrics after the statements ran")
)

func main() {
	flag.Parse()

	cfg, err := parseConfigFromFile(*configFile)
	if err != nil {
		panic(fmt.Sprintf("failed to parse config from %s, error: %s", *configFile, err.Error()))
	}
	setupLogger(cfg)
	if failed := run(cfg); failed > 0 {
		os.Exit(1)
	}
}

// run loads the tables, runs the statements and returns how many of
// them failed.
func run(cfg *Config) int {
	logger := logutil.GetGlobalLogger().Named("dml-service")
	server := startMetricsServer(cfg, logger)

	n, err := newNode(cfg, logger)
	if err != nil {
		panic(err)
	}
	defer n.close()

	ctx := context.Background()
	if err := n.loadTables(ctx); err != nil {
		panic(err)
	}
	failed := 0
	for _, res := range n.runStatements(ctx) {
		if !res.Code.Succeeded() {
			failed++
		}
	}
	if failed > 0 {
		logger.Error("statements failed", zap.Int("failed", failed))
	}

	if server != nil {
		if *keep {
			waitSignalToStop()
		}
		if err := server.Close(); err != nil {
			logger.Error("close metrics server", zap.Error(err))
		}
	}
	return failed
}

func setupLogger(cfg *Config) {
	logutil.SetupMOLogger(&cfg.Log)
}

func startMetricsServer(cfg *Config, logger *zap.Logger) *http.Server {
	if cfg.Metrics.ListenAddress == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(v2.GetPrometheusGatherer(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.Metrics.ListenAddress, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics server started", zap.String("address", cfg.Metrics.ListenAddress))
	return server
}

func waitSignalToStop() {
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGTERM, syscall.SIGINT)
	<-sigchan
}
