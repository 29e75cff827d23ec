package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/hostagent2mqtt/internal/adapter/actor"
	"github.com/berfenger/hostagent2mqtt/internal/adapter/host"
	"github.com/berfenger/hostagent2mqtt/internal/adapter/pulse"
	"github.com/berfenger/hostagent2mqtt/internal/audio"
	"github.com/berfenger/hostagent2mqtt/internal/config"
	"github.com/berfenger/hostagent2mqtt/internal/core/actor"
	"github.com/berfenger/hostagent2mqtt/internal/core/registry"
	"github.com/berfenger/hostagent2mqtt/internal/server"
	"github.com/berfenger/hostagent2mqtt/internal/util/actorutil"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig(os.Args[1:])
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	// audio backend and change notifications
	audioCtx, stopAudio := context.WithCancel(context.Background())
	defer stopAudio()
	audioService, listener, err := initAudio(audioCtx, cfg, logger)
	if err != nil {
		logger.Error("audio notifications unavailable", zap.String("backend", cfg.Audio.Backend), zap.Error(err))
	}

	// entities
	h := host.New(logger)
	sources := registry.Sources{
		Counters:  h,
		Users:     h,
		Services:  h,
		Storage:   h,
		Network:   h,
		Displays:  h,
		Webcam:    h,
		Processes: h,
		Keys:      h,
		Browser:   h,
		Desktops:  h,
	}
	if audioService != nil {
		sources.Audio = audioService
	}
	reg, err := registry.New(cfg.Entities, sources, logger)
	if err != nil {
		logger.Error("invalid entities", zap.String("file", cfg.EntitiesFile), zap.Error(err))
		os.Exit(1)
	}
	if listener != nil {
		for _, a := range reg.AudioSensors() {
			detach := a.Attach(listener)
			defer detach()
		}
		listener.Start(audioCtx)
	}

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, reg, mqttActorProvider(cfg, reg.Domains(), logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		logger.Error("could not start master actor", zap.Error(err))
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	// let the MQTT actor publish its offline availability
	if err := ctx.StopFuture(pid).Wait(); err != nil {
		logger.Warn("master actor did not stop cleanly", zap.Error(err))
	}
	as.Shutdown()
}

// initAudio builds the configured audio backend. The listener is nil when the
// backend emits no change notifications.
func initAudio(ctx context.Context, cfg *config.Config, logger *zap.Logger) (registry.AudioService, *audio.Listener, error) {
	switch cfg.Audio.Backend {
	case config.AUDIO_BACKEND_PULSE:
		client := audio.NewNotificationClient(cfg.Audio.EventBuffer)
		manager := audio.NewManager(pulse.NewBackend(nil), logger)
		if err := pulse.Subscribe(ctx, client, logger); err != nil {
			// still usable, only without early refreshes
			return manager, nil, err
		}
		return manager, audio.NewListener(client, logger), nil
	case config.AUDIO_BACKEND_MEMORY:
		client := audio.NewNotificationClient(cfg.Audio.EventBuffer)
		return audio.NewManager(audio.NewMemoryBackend(client), logger), audio.NewListener(client, logger), nil
	default:
		return nil, nil, nil
	}
}

func initConfig(args []string) (*config.Config, error) {

	flags := pflag.NewFlagSet("hostagent2mqtt", pflag.ContinueOnError)
	configFile := flags.String("config", os.Getenv("CONFIG_FILE"), "YAML config file")
	flags.String("entities", "", "YAML file with the configured sensors and commands")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	// alias PORT => HOSTAGENT_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("HOSTAGENT_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("hostagent")
	viper.AutomaticEnv()
	if f := flags.Lookup("entities"); f.Changed {
		if err := viper.BindPFlag("entities_file", f); err != nil {
			return nil, err
		}
	}

	// if defined, try to load config from yaml file
	if cfgFile := *configFile; cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.EntitiesFile != "" {
		entities, err := config.LoadEntities(cfg.EntitiesFile)
		if err != nil {
			return nil, err
		}
		cfg.Entities = entities
	}

	return &cfg, nil
}

func mqttActorProvider(cfg *config.Config, domains []string, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, domains, logger)
	}
}

func setConfigDefaults() {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "hostagent"
	}
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("device.name", hostname)
	viper.SetDefault("mqtt.host", "localhost")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.discovery_prefix", "homeassistant")
	viper.SetDefault("mqtt.discovery_enable", true)
	viper.SetDefault("audio.backend", config.AUDIO_BACKEND_NONE)
	viper.SetDefault("audio.event_buffer", 64)
	viper.SetDefault("entities_file", "")
	viper.SetDefault("prune_stale", false)
	viper.SetDefault("port", 8080)
	viper.SetDefault("http_log", false)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
