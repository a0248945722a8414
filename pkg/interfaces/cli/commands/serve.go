package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"

	"github.com/vsinha/bomcost/pkg/application/services/bom"
	"github.com/vsinha/bomcost/pkg/infrastructure/config"
	"github.com/vsinha/bomcost/pkg/infrastructure/events"
	"github.com/vsinha/bomcost/pkg/infrastructure/logger"
	"github.com/vsinha/bomcost/pkg/infrastructure/observability"
	"github.com/vsinha/bomcost/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bomcost/pkg/infrastructure/repositories/gormstore"
	bomhttp "github.com/vsinha/bomcost/pkg/interfaces/http"
	httpH "github.com/vsinha/bomcost/pkg/interfaces/http/handlers"
)

// serveCmd runs the HTTP API over the configured database
type serveCmd struct {
	configPath string
	seedDir    string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the BOM HTTP API" }
func (*serveCmd) Usage() string {
	return `bom serve [-config <file>] [-seed <dir>]

  Settings come from the YAML file, then BOM_* environment variables.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "Path to a YAML config file")
	f.StringVar(&c.seedDir, "seed", "", "Load a CSV scenario into the database before serving")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return usageError(err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return failure(err)
	}
	defer log.Sync()

	if err := c.run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *serveCmd) run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, log, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	store, err := gormstore.Open(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if c.seedDir != "" {
		err := store.InTx(ctx, func(ctx context.Context) error {
			return csv.NewLoader().LoadScenario(ctx, c.seedDir, store)
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", c.seedDir, err)
		}
		log.Info("scenario loaded", "dir", c.seedDir)
	}

	eventStore := events.NewInMemoryEventStore(log)
	audit := events.NewAuditLogger(log.With("component", "audit"))
	if err := eventStore.Subscribe(events.EdgeEventTypes, audit); err != nil {
		return fmt.Errorf("subscribe audit log: %w", err)
	}
	defer eventStore.Unsubscribe(audit)

	svc := bom.NewService(store, store, store, store, bom.Options{
		DefaultMaxDepth:   cfg.BOM.DefaultMaxDepth,
		MaxDepthLimit:     cfg.BOM.MaxDepthLimit,
		ReachabilityLimit: cfg.BOM.ReachabilityLimit,
		Events:            eventStore,
		OnPublishError: func(_ context.Context, event events.Event, err error) {
			log.Warn("audit event not stored", "event_type", event.Type(), "stream", event.StreamID(), "error", err)
		},
	})

	serviceName := ""
	if cfg.Telemetry.Enabled {
		serviceName = cfg.Telemetry.ServiceName
	}
	gin.SetMode(cfg.HTTP.GinMode)
	server := bomhttp.NewServer(bomhttp.RouterConfig{
		BOMHandler:    httpH.NewBOMHandler(svc, log.With("component", "http")),
		HealthHandler: httpH.NewHealthHandler(),
		Logger:        log,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		ServiceName:   serviceName,
	})

	log.Info("listening", "addr", cfg.HTTP.Addr, "db_driver", cfg.DB.Driver)
	return server.Run(ctx, cfg.HTTP.Addr)
}
