// Command producer is a demo load generator that drives a partitioned
// producer router against a real Pulsar cluster: it loads configuration,
// ensures the topic exists with the right partition count, constructs one
// actor per partition, and publishes synthetic payloads at a configurable
// rate until interrupted, printing a final metrics snapshot on exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pulsar-local-lab/partition-producer/internal/config"
	"github.com/pulsar-local-lab/partition-producer/internal/generator"
	"github.com/pulsar-local-lab/partition-producer/internal/metrics"
	"github.com/pulsar-local-lab/partition-producer/internal/router"
	"github.com/pulsar-local-lab/partition-producer/internal/topic"
	"github.com/pulsar-local-lab/partition-producer/internal/transport/pulsarconn"
	"github.com/pulsar-local-lab/partition-producer/pkg/ratelimit"
)

const (
	appName    = "Pulsar Partitioned Producer"
	appVersion = "1.0.0"
)

var (
	configFile = flag.String("config", "", "Path to configuration file (JSON)")
	profile    = flag.String("profile", "default", "Named profile (default, low-latency, high-throughput, burst, sustained)")
	serviceURL = flag.String("service-url", "", "Pulsar broker service URL (overrides config)")
	adminURL   = flag.String("admin-url", "", "Pulsar admin API URL (overrides config)")
	topicFlag  = flag.String("topic", "", "Pulsar topic name (overrides config)")
	partitions = flag.Int("partitions", -1, "Number of partitions (overrides config, -1=use config)")
	showHelp   = flag.Bool("help", false, "Show help message")
	listProfs  = flag.Bool("list-profiles", false, "List available profiles")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", appName, appVersion)
		return
	}
	if *showHelp {
		printUsage()
		return
	}
	if *listProfs {
		listProfiles()
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := loadConfiguration()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	baseTopic, err := topic.Parse(cfg.Pulsar.Topic)
	if err != nil {
		logger.WithError(err).Fatal("invalid topic name")
	}

	if err := pulsarconn.EnsureTopic(cfg.Pulsar.AdminURL, cfg.Pulsar.Topic, cfg.Pulsar.NumPartitions); err != nil {
		logger.WithError(err).Fatal("failed to ensure topic exists")
	}

	lookup := pulsarconn.NewAdminLookup(cfg.Pulsar.AdminURL)
	connMgr := pulsarconn.NewManager(pulsarconn.ClientOptions{})
	collector := metrics.NewCollector(cfg.Metrics.HistogramBuckets)

	r, err := router.New(baseTopic, cfg.Pulsar.NumPartitions, lookup, connMgr, cfg.Actor.ToOptions(), collector)
	if err != nil {
		logger.WithError(err).Fatal("failed to construct router")
	}
	if err := r.Start(ctx); err != nil {
		logger.WithError(err).Fatal("failed to start router")
	}

	runLoadGenerator(ctx, r, cfg, logger)

	_ = r.Stop()
	printFinalStats(collector, logger)

	if cfg.Metrics.ExportEnabled {
		exporter := metrics.NewExporter(cfg.Metrics.ExportPath, true)
		if err := exporter.Export(collector.GetSnapshot()); err != nil {
			logger.WithError(err).Error("failed to export metrics")
		}
	}
}

// runLoadGenerator publishes synthetic payloads through the router until
// ctx is cancelled or the configured duration elapses, optionally shaped
// by a token-bucket rate limiter. Payload synthesis and rate shaping are
// a load-generation convenience; the router/actor core never rate-limits
// on its own.
func runLoadGenerator(ctx context.Context, r *router.Router, cfg *config.Config, logger *logrus.Logger) {
	var runCtx context.Context
	var stop context.CancelFunc
	if cfg.Performance.Duration > 0 {
		runCtx, stop = context.WithTimeout(ctx, cfg.Performance.Duration)
	} else {
		runCtx, stop = context.WithCancel(ctx)
	}
	defer stop()

	pool := generator.NewPayloadPool(cfg.Performance.MessageSize, 1)

	var limiter *ratelimit.Limiter
	if cfg.Performance.RateLimitEnabled && cfg.Performance.TargetThroughput > 0 {
		limiter = ratelimit.NewLimiter(cfg.Performance.TargetThroughput)
		defer limiter.Stop()
	}

	logger.WithFields(logrus.Fields{
		"topic":      cfg.Pulsar.Topic,
		"partitions": cfg.Pulsar.NumPartitions,
		"profile":    *profile,
	}).Info("publishing")

	var seq uint64
	for {
		select {
		case <-runCtx.Done():
			return
		default:
		}

		if limiter != nil {
			if err := limiter.Wait(runCtx); err != nil {
				return
			}
		}

		buf := pool.Get()
		generator.GenerateSequentialPayloadTo(buf, seq)
		seq++

		if _, err := r.Publish(runCtx, "", buf); err != nil {
			logger.WithError(err).Debug("publish failed")
		}
		pool.Put(buf)
	}
}

func loadConfiguration() (*config.Config, error) {
	if *configFile != "" {
		return config.LoadConfig(*configFile, "")
	}
	return config.LoadConfig("", *profile)
}

func applyOverrides(cfg *config.Config) {
	if *serviceURL != "" {
		cfg.Pulsar.ServiceURL = *serviceURL
	}
	if *adminURL != "" {
		cfg.Pulsar.AdminURL = *adminURL
	}
	if *topicFlag != "" {
		cfg.Pulsar.Topic = *topicFlag
	}
	if *partitions >= 0 {
		cfg.Pulsar.NumPartitions = *partitions
	}
}

func printFinalStats(collector *metrics.Collector, logger *logrus.Logger) {
	snapshot := collector.GetSnapshot()
	logger.WithFields(logrus.Fields{
		"duration":      snapshot.Elapsed,
		"messages_sent": snapshot.MessagesSent,
		"bytes_sent":    snapshot.BytesSent,
		"send_rate":     fmt.Sprintf("%.2f msg/s", snapshot.MessageRate()),
		"throughput":    fmt.Sprintf("%.2f MB/s", snapshot.ThroughputMBps()),
		"failures":      snapshot.MessagesFailed,
	}).Info("final statistics")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "%s v%s\n\n", appName, appVersion)
	fmt.Fprintf(os.Stderr, "USAGE:\n  %s [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "OPTIONS:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
	fmt.Fprintf(os.Stderr, "  %s --profile high-throughput\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --config ./configs/custom.json\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s --service-url pulsar://localhost:6650 --topic orders --partitions 8\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "PROFILES:\n")
	for _, p := range config.GetAvailableProfiles() {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", p, config.GetProfileDescription(p))
	}
}

func listProfiles() {
	fmt.Printf("Available profiles:\n\n")
	for _, p := range config.GetAvailableProfiles() {
		fmt.Printf("  %-18s %s\n", p, config.GetProfileDescription(p))
	}
	fmt.Printf("\nUse --profile <name> to select a profile\n")
}
