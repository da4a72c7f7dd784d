package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hearthd/internal/common/fsutil"
	"hearthd/internal/config"
	"hearthd/internal/contextengine"
	"hearthd/internal/httpapi"
	"hearthd/internal/license"
	"hearthd/internal/orchestrator"
	"hearthd/internal/registry"
	"hearthd/internal/voice"
)

func newServeCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, cfgPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgPath, "config", envOr("HEARTHD_CONFIG", ""), "Config file (.yaml/.json/.toml)")
	f.String("addr", envOr("HEARTHD_ADDR", ":8787"), "HTTP listen address")
	f.String("models-dir", envOr("HEARTHD_MODELS_DIR", "~/models/hearth"), "Directory to scan for *.gguf model files")
	f.String("grammars-dir", envOr("HEARTHD_GRAMMARS_DIR", "grammars"), "Directory holding .gbnf grammar files")
	f.String("default-model", envOr("HEARTHD_DEFAULT_MODEL", "mistral-7b-quantized"), "Model used when a request names none")
	f.String("license-key", os.Getenv(license.EnvKey), "License key (defaults "+license.EnvKey+")")
	f.Int("idle-timeout", 300, "Seconds before an unlocked slot goes cold")
	f.Int("collapse-grace", 5, "Seconds to wait for the worker on graceful collapse")
	f.Int("generate-timeout", 120, "Seconds before a generate call is presumed wedged")
	f.Int("sweep-interval", 60, "Seconds between idle sweeps")
	f.String("context-db", "", "Path of the series-bible sqlite database")
	f.String("voice-cache-dir", "", "Directory for the TTS wav cache")
	f.Int("voice-cache-mb", 0, "Voice cache size cap in MB")
	f.Int("voice-cache-files", 0, "Voice cache file count cap")
	f.String("log-level", envOr("HEARTHD_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	f.StringSlice("cors-origins", nil, "Browser origins allowed for CORS; empty disables CORS")

	return cmd
}

// resolveConfig merges the config file (if any) under explicit flags:
// a flag the operator set wins over the file, the file wins over flag
// defaults.
func resolveConfig(cmd *cobra.Command, cfgPath string) (config.Config, error) {
	var cfg config.Config
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	f := cmd.Flags()
	stringInto := func(name string, dst *string) {
		if v, _ := f.GetString(name); f.Changed(name) || *dst == "" {
			*dst = v
		}
	}
	intInto := func(name string, dst *int) {
		if v, _ := f.GetInt(name); f.Changed(name) || *dst == 0 {
			*dst = v
		}
	}
	stringInto("addr", &cfg.Addr)
	stringInto("models-dir", &cfg.ModelsDir)
	stringInto("grammars-dir", &cfg.GrammarsDir)
	stringInto("default-model", &cfg.DefaultModel)
	stringInto("license-key", &cfg.LicenseKey)
	intInto("idle-timeout", &cfg.IdleTimeoutS)
	intInto("collapse-grace", &cfg.CollapseGraceS)
	intInto("generate-timeout", &cfg.GenTimeoutS)
	intInto("sweep-interval", &cfg.SweepIntervalS)
	stringInto("context-db", &cfg.ContextDBPath)
	stringInto("voice-cache-dir", &cfg.VoiceCacheDir)
	intInto("voice-cache-mb", &cfg.VoiceCacheMB)
	intInto("voice-cache-files", &cfg.VoiceCacheFiles)
	stringInto("log-level", &cfg.LogLevel)
	if v, _ := f.GetStringSlice("cors-origins"); f.Changed("cors-origins") || len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = v
	}

	if cfg.ContextDBPath == "" {
		cfg.ContextDBPath = filepath.Join(defaultDataDir(), "context.db")
	}
	if cfg.VoiceCacheDir == "" {
		cfg.VoiceCacheDir = filepath.Join(defaultDataDir(), "voice-cache")
	}
	var err error
	if cfg.ContextDBPath, err = fsutil.ExpandHome(cfg.ContextDBPath); err != nil {
		return cfg, err
	}
	if cfg.VoiceCacheDir, err = fsutil.ExpandHome(cfg.VoiceCacheDir); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func serve(cfg config.Config) error {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()

	models, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		log.Warn().Err(err).Str("dir", cfg.ModelsDir).Msg("model scan failed, registry is empty")
	}
	log.Info().Int("models", len(models)).Str("dir", cfg.ModelsDir).Msg("registry loaded")

	lic := license.New(cfg.LicenseKey)
	log.Info().Str("tier", string(lic.Tier())).Msg("license resolved")

	defaultPath := registry.PathFor(models, cfg.DefaultModel)
	orch := orchestrator.New(orchestrator.Config{
		License: lic,
		SpawnWorker: orchestrator.NewExecFactory(orchestrator.ExecConfig{
			ModelPath:   defaultPath,
			GrammarsDir: cfg.GrammarsDir,
		}),
		ResolvePath: func(name string) string { return registry.PathFor(models, name) },
		EstimateMB: func(name string) int {
			return registry.EstimateMB(name, registry.PathFor(models, name))
		},
		IdleTimeout:   time.Duration(cfg.IdleTimeoutS) * time.Second,
		CollapseGrace: time.Duration(cfg.CollapseGraceS) * time.Second,
		Logger:        log.With().Str("component", "orchestrator").Logger(),
	})

	if err := os.MkdirAll(filepath.Dir(cfg.ContextDBPath), 0o755); err != nil {
		return err
	}
	store, err := contextengine.Open(contextengine.Config{
		Path:    cfg.ContextDBPath,
		Leaser:  orch,
		License: lic,
		Logger:  log.With().Str("component", "context").Logger(),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	voiceEng, err := voice.New(voice.Config{
		CacheDir:      cfg.VoiceCacheDir,
		MaxCacheMB:    cfg.VoiceCacheMB,
		MaxCacheFiles: cfg.VoiceCacheFiles,
		Leaser:        orch,
		Logger:        log.With().Str("component", "voice").Logger(),
	})
	if err != nil {
		return err
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	if len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
			[]string{"Content-Type", "Authorization"})
		log.Info().Strs("origins", cfg.CORSOrigins).Msg("CORS enabled")
	}

	orch.StartSweeper(baseCtx, time.Duration(cfg.SweepIntervalS)*time.Second)

	mux := httpapi.NewMux(httpapi.Config{
		Orchestrator: orch,
		Models:       models,
		License:      lic,
		Context:      store,
		Voice:        voiceEng,
		DefaultModel: cfg.DefaultModel,
		GenTimeout:   time.Duration(cfg.GenTimeoutS) * time.Second,
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("hearthd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	// Return the machine to its idle footprint before exit.
	orch.CollapseToZero(false)
	voiceEng.Collapse()
	return nil
}
