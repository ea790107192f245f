package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"ittapi/config"
	"ittapi/internal/sys"
	"ittapi/itt"
	"ittapi/logger"
	"ittapi/output"
	"ittapi/systeminfo"
	"ittapi/tracing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	defer startTracing(cfg.TraceFile)()

	if cfg.TraceFlight {
		if err := tracing.StartFlightRecorder(cfg.TraceFlightMaxBytes, cfg.TraceFlightMinAge); err != nil {
			logger.Warnf("Failed to start flight recorder: %v", err)
		} else {
			defer func() {
				if err := tracing.WriteFlightRecorder(cfg.TraceFlightFile); err != nil {
					logger.Warnf("Failed to write flight recorder: %v", err)
				}
				tracing.StopFlightRecorder()
			}()
		}
	}

	if err := run(context.Background(), cfg); err != nil {
		logger.Errorf("Probe failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) (err error) {
	metrics := output.Metrics{
		StartTime: time.Now().Format(time.RFC3339),
	}

	writer, err := output.New(cfg, &metrics)
	if err != nil {
		return fmt.Errorf("initialize output: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	if cfg.CollectSystemInfo {
		if err := writer.WriteHost(systeminfo.GetSystemInfo()); err != nil {
			logger.Warnf("Failed to write host record: %v", err)
		}
	}

	backend := loadBackend(cfg.CollectorPath)
	if err := writer.WriteBackend(backend); err != nil {
		logger.Warnf("Failed to write backend record: %v", err)
	}

	ctx, endTask := tracing.StartTask(ctx, "ittprobe.create-domains")
	defer endTask()
	for _, name := range cfg.Domains {
		result := createDomain(ctx, name, backend.Loaded)
		if err := writer.WriteDomain(result); err != nil {
			logger.Warnf("Failed to write domain record: %v", err)
		}
	}

	metrics.EndTime = time.Now().Format(time.RFC3339)
	logger.Infof("Created %d of %d domains.", metrics.DomainsCreated, len(cfg.Domains))
	return nil
}

// startTracing begins runtime tracing when the binary was built with it and
// returns the function that stops it.
func startTracing(path string) (stop func()) {
	if !tracing.Enabled {
		logger.Debug("Runtime tracing not compiled in; build with -tags trace")
		return func() {}
	}
	if err := tracing.Start(path); err != nil {
		logger.Warnf("Failed to start trace: %v", err)
		return func() {}
	}
	logger.Infof("Writing runtime trace to %s", path)
	return tracing.Stop
}

// loadBackend installs the collector named on the command line, or reports on
// the one picked up from the environment.
func loadBackend(collectorPath string) output.Backend {
	backend := output.Backend{EntryPoint: sys.EntryPoint()}

	if collectorPath != "" {
		backend.Collector = collectorPath
		t, err := sys.Open(collectorPath)
		if err != nil {
			logger.Warnf("Collector unavailable, domains will be inert: %v", err)
			sys.Install(nil)
			backend.Error = err.Error()
			return backend
		}
		sys.Install(t)
		backend.Loaded = true
		logger.Infof("Loaded ITT collector %s", collectorPath)
		return backend
	}

	st := sys.CurrentStatus()
	backend.Collector = st.Path
	backend.Loaded = st.Loaded
	if st.Err != nil {
		backend.Error = st.Err.Error()
		if errors.Is(st.Err, sys.ErrNoCollector) {
			logger.Infof("No ITT collector configured (%s unset); domains will be inert", sys.CollectorEnvVar())
		} else {
			logger.Warnf("Collector unavailable, domains will be inert: %v", st.Err)
		}
	} else {
		logger.Infof("Loaded ITT collector %s", st.Path)
	}
	return backend
}

// createDomain creates one domain and converts a rejected name into a failed
// record instead of aborting the probe.
func createDomain(ctx context.Context, name string, loaded bool) (result output.Domain) {
	result = output.Domain{Name: name}
	defer tracing.StartRegion(ctx, "itt.NewDomain")()

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok || !errors.Is(err, itt.ErrInvalidName) {
				panic(r)
			}
			logger.WithFields(map[string]interface{}{"domain": name}).Warnf("Domain rejected: %v", err)
			result.Created = false
			result.Error = err.Error()
		}
	}()

	itt.NewDomain(name)
	tracing.Log(ctx, "itt.domain", name)
	logger.WithFields(map[string]interface{}{"domain": name}).Debug("Domain created")
	result.Created = true
	result.Inert = !loaded
	return result
}
