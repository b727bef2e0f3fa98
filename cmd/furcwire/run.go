package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/furcwire-project/furcwire/internal/api"
	"github.com/furcwire-project/furcwire/internal/cli"
	"github.com/furcwire-project/furcwire/internal/config"
	"github.com/furcwire-project/furcwire/internal/connector"
	"github.com/furcwire-project/furcwire/internal/db"
	"github.com/furcwire-project/furcwire/internal/events"
	"github.com/furcwire-project/furcwire/internal/protocol"
	"github.com/furcwire-project/furcwire/internal/scheduler"
	"github.com/furcwire-project/furcwire/internal/telemetry"
	"github.com/furcwire-project/furcwire/internal/util"
)

type runOptions struct {
	configDir string
	envFile   string
	console   bool
}

func runCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the game server and serve the event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configDir, "config", "c", config.DefaultConfigDir, "Directory holding config.json")
	cmd.Flags().StringVar(&opts.envFile, "env", ".env", "Dotenv file with credentials")
	cmd.Flags().BoolVar(&opts.console, "console", true, "Read commands from stdin")

	return cmd
}

func run(parent context.Context, opts runOptions) error {
	fmt.Print(banner)
	fmt.Println()

	if err := util.InitLogger(util.DefaultLogConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info().
		Str("version", util.Version).
		Str("platform", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Msg("starting furcwire")

	if err := config.LoadEnv(opts.envFile); err != nil {
		log.Warn().Err(err).Str("file", opts.envFile).Msg("failed to load environment file")
	}

	cfg, err := config.Load(opts.configDir)
	if err != nil {
		return err
	}
	cfg.ApplySecrets()

	app := cfg.GetApplicationData()
	conn := cfg.GetConnection()

	logCfg := util.DefaultLogConfig()
	logCfg.Level = app.Logging.Level
	logCfg.Directory = app.Logging.Directory
	if err := util.InitLogger(logCfg); err != nil {
		log.Warn().Err(err).Msg("failed to reconfigure logger, using defaults")
	}

	validation := config.Validate(cfg)
	for _, w := range validation.Warnings {
		log.Warn().Str("field", w.Field).Msg(w.Message)
	}
	if !validation.IsValid() {
		for _, e := range validation.Errors {
			log.Error().Str("field", e.Field).Msg(e.Message)
		}
		return fmt.Errorf("configuration validation failed, please fix the errors above")
	}

	sysInfo := util.GetSystemInfo()
	log.Info().
		Str("hostname", sysInfo.Hostname).
		Str("os", sysInfo.OS).
		Int("cores", sysInfo.CPUCores).
		Uint64("memory_mb", sysInfo.TotalMemory).
		Msg("system information")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metrics *telemetry.Metrics
	clientOpts := connector.Options{
		Addr:             conn.Addr(),
		HandshakeTimeout: conn.HandshakeTimeout(),
		WriteTimeout:     conn.WriteTimeout(),
	}
	if app.Metrics.Enabled {
		metrics = telemetry.NewMetrics()
		clientOpts.OnStateChange = metrics.ObserveState
	}

	client := connector.NewClient(clientOpts)
	bus := client.Bus()

	policy, err := events.ParseFailurePolicy(app.Bus.FailurePolicy)
	if err != nil {
		return err
	}
	bus.SetFailurePolicy(policy)

	for _, b := range conn.TileBindings {
		kind, err := protocol.ParseTileKind(b.Kind)
		if err == nil {
			err = client.Dispatcher().BindTileSync(b.Opcode, kind)
		}
		if err != nil {
			return fmt.Errorf("tile binding %d: %w", b.Opcode, err)
		}
		log.Info().Int("opcode", b.Opcode).Str("kind", b.Kind).Msg("tile layer bound")
	}

	if metrics != nil {
		metrics.Attach(bus)
	}

	var journal *db.CaptureJournal
	if app.Capture.Enabled {
		journal, err = db.NewCaptureJournal(app.Capture.Path, client.SessionID)
		if err != nil {
			log.Warn().Err(err).Msg("capture journal unavailable, undecoded traffic will not be recorded")
		} else {
			defer journal.Close()
			journal.Attach(bus)
			log.Info().Str("path", app.Capture.Path).Msg("capture journal open")
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return superviseSession(gctx, client, conn)
	})

	if app.API.Enabled {
		deps := api.Dependencies{
			Client:    client,
			Bus:       bus,
			Catalogue: client.Dispatcher().Entries,
		}
		if journal != nil {
			deps.Captures = journal
		}
		if metrics != nil {
			deps.Metrics = metrics.Handler()
		}
		apiServer := api.NewServer(app.API, app.Logging.Level, deps)
		g.Go(func() error {
			if err := apiServer.Start(gctx); err != nil {
				log.Warn().Err(err).Msg("control API stopped (non-fatal)")
			}
			return nil
		})
	}

	if app.MQTT.Enabled {
		mqttHandler, err := telemetry.NewMQTTHandler(app.MQTT, bus, client, client.SessionID)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize MQTT, telemetry disabled")
		} else {
			g.Go(func() error {
				if err := mqttHandler.Start(gctx); err != nil {
					log.Warn().Err(err).Msg("MQTT telemetry failed")
				}
				return nil
			})
		}
	}

	var pruner scheduler.Pruner
	if journal != nil {
		pruner = journal
	}
	sched := scheduler.NewScheduler(app.Capture, pruner, client)
	g.Go(func() error {
		sched.Start(gctx)
		return nil
	})

	if opts.console {
		var captures cli.CaptureReader
		if journal != nil {
			captures = journal
		}
		console := cli.NewCLI(client, captures, cancel, os.Stdin, os.Stdout)
		g.Go(func() error {
			console.Start(gctx)
			return nil
		})
	}

	err = g.Wait()
	client.Disconnect()
	bus.Stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("furcwire stopped")
	return nil
}

// superviseSession connects, logs in and runs the read loop. When the
// session ends it reconnects after the configured delay; a zero delay ends
// the program with the first session.
func superviseSession(ctx context.Context, client *connector.Client, conn config.ConnectionConfig) error {
	delay := conn.ReconnectDelay()
	for {
		err := runSession(ctx, client, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if delay == 0 {
			return err
		}

		log.Warn().Err(err).
			Str("reason", client.Reason().String()).
			Dur("retry_in", delay).
			Msg("session ended, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func runSession(ctx context.Context, client *connector.Client, conn config.ConnectionConfig) error {
	motd, err := client.Connect(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("session", client.SessionID()).Int("motd_bytes", len(motd)).Msg("connected to game server")

	if conn.AutoLogin {
		if err := client.Login(conn.Credential.Credential()); err != nil {
			client.Disconnect()
			return fmt.Errorf("login: %w", err)
		}
		log.Info().Str("name", conn.Credential.Name).Msg("login sent")
	}

	return client.Run(ctx)
}
