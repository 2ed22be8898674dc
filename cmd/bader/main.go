// main.go: bader server entrypoint
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/agilira/bader"
	"github.com/agilira/bader/prom"
	"github.com/agilira/bader/resp"
)

// logrusLogger adapts logrus to the bader.Logger keyvals interface.
type logrusLogger struct {
	l *logrus.Logger
}

func (a *logrusLogger) fields(keyvals []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		fields[key] = keyvals[i+1]
	}
	return fields
}

func (a *logrusLogger) Debug(msg string, keyvals ...interface{}) {
	a.l.WithFields(a.fields(keyvals)).Debug(msg)
}

func (a *logrusLogger) Info(msg string, keyvals ...interface{}) {
	a.l.WithFields(a.fields(keyvals)).Info(msg)
}

func (a *logrusLogger) Warn(msg string, keyvals ...interface{}) {
	a.l.WithFields(a.fields(keyvals)).Warn(msg)
}

func (a *logrusLogger) Error(msg string, keyvals ...interface{}) {
	a.l.WithFields(a.fields(keyvals)).Error(msg)
}

func main() {
	var (
		addr        = flag.String("addr", defaultAddr(), "listen address (host:port)")
		sampleSize  = flag.Int("sample-size", envInt("BADER_SAMPLE_SIZE", bader.DefaultSampleSize), "evictor keys sampled per round")
		threshold   = flag.Float64("threshold", envFloat("BADER_THRESHOLD", bader.DefaultThreshold), "evictor expired-fraction threshold (0,1)")
		frequency   = flag.Duration("frequency", envDuration("BADER_FREQUENCY", bader.DefaultFrequency), "evictor tick period")
		metricsAddr = flag.String("metrics-addr", os.Getenv("BADER_METRICS_ADDR"), "Prometheus /metrics listen address (empty = disabled)")
		configFile  = flag.String("config", os.Getenv("BADER_CONFIG_FILE"), "config file watched for evictor hot reload (empty = disabled)")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(envString("BADER_LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	}
	logger := &logrusLogger{l: log}

	config := bader.Config{
		Addr:       *addr,
		SampleSize: *sampleSize,
		Threshold:  *threshold,
		Frequency:  *frequency,
		Logger:     logger,
	}

	reg := prometheus.NewRegistry()
	if *metricsAddr != "" {
		collector, err := prom.NewCollector(reg)
		if err != nil {
			log.WithError(err).Fatal("metrics collector setup failed")
		}
		config.MetricsCollector = collector
	}

	store := bader.NewStore(config)
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("store close failed")
		}
	}()

	evictor, err := bader.NewEvictor(store, config)
	if err != nil {
		log.WithError(err).Fatal("invalid evictor configuration")
	}

	server, err := resp.NewServer(store, evictor, config)
	if err != nil {
		log.WithError(err).Fatal("invalid server configuration")
	}

	if *metricsAddr != "" {
		if err := prom.RegisterKeyspaceSize(reg, store); err != nil {
			log.WithError(err).Fatal("keyspace gauge setup failed")
		}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.WithField("addr", *metricsAddr).Info("metrics endpoint listening")
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.WithError(err).Error("metrics endpoint failed")
			}
		}()
	}

	if *configFile != "" {
		hot, err := bader.NewHotConfig(evictor, bader.HotConfigOptions{
			ConfigPath: *configFile,
			Logger:     logger,
		})
		if err != nil {
			log.WithError(err).Fatal("hot reload setup failed")
		}
		if err := hot.Start(); err != nil {
			log.WithError(err).Fatal("hot reload start failed")
		}
		defer func() {
			if err := hot.Stop(); err != nil {
				log.WithError(err).Warn("hot reload stop failed")
			}
		}()
		log.WithField("path", *configFile).Info("watching config file")
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		if err := server.Close(); err != nil {
			log.WithError(err).Warn("server close failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"version":     bader.Version,
		"addr":        config.Addr,
		"sample_size": config.SampleSize,
		"threshold":   config.Threshold,
		"frequency":   config.Frequency.String(),
	}).Info("bader starting")

	if err := server.ListenAndServe(); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}

// defaultAddr resolves the listen address: BADER_ADDR wins, then PORT
// (port only), then the package default.
func defaultAddr() string {
	if addr := os.Getenv("BADER_ADDR"); addr != "" {
		return addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return bader.DefaultAddr
}

func envString(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(name string, fallback float64) float64 {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
