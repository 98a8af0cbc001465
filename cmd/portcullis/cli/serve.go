package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/portcullisgw/portcullis/internal/authz"
	"github.com/portcullisgw/portcullis/internal/config"
	"github.com/portcullisgw/portcullis/internal/metrics"
	"github.com/portcullisgw/portcullis/internal/model"
	"github.com/portcullisgw/portcullis/internal/server"
	"github.com/portcullisgw/portcullis/internal/service"
	"github.com/portcullisgw/portcullis/internal/telemetry"
	"github.com/portcullisgw/portcullis/internal/tufin"
)

const banner = `
 ___  ___  ___ _____ ___ _   _ _    _    ___ ___
| _ \/ _ \| _ \_   _/ __| | | | |  | |  |_ _/ __|
|  _/ (_) |   / | || (__| |_| | |__| |__ | |\__ \
|_|  \___/|_|_\ |_| \___|\___/|____|____|___|___/
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Portcullis gateway",
		Long: `Start the HTTP gateway in front of Tufin SecureTrack and SecureChange.
Every request passes rate limiting, API key authentication, and role
authorization before anything is forwarded upstream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, dev)

	// 1. The proxy surface cannot run without upstream credentials
	if err := cfg.RequireTufin(); err != nil {
		return fmt.Errorf("tufin upstream not configured: %w", err)
	}

	// 2. Open the API key store
	store, err := openKeyStore(cfg)
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	defer store.Close()
	logger.Info("key store initialized", "driver", cfg.Store.Driver)

	// 3. Seed admin accounts from config
	admins := service.NewAdminRegistry()
	for _, seed := range cfg.Auth.Admins {
		if _, err := admins.SeedAdmin(seed.Email, seed.Name, seed.PasswordHash); err != nil {
			logger.Warn("skipping admin seed", "email", seed.Email, "error", err)
		}
	}
	if admins.Len() == 0 {
		logger.Warn("no admin account configured - add one under auth.admins (see: portcullis admin hash)")
	}

	// 4. Seed bootstrap API keys from env/file
	ctx := context.Background()
	bootKeys := config.LoadBootstrapKeys(logger, cfg.Bootstrap.KeysFile)
	if len(bootKeys) > 0 {
		inserted := config.SeedKeys(ctx, store, bootKeys, logger)
		logger.Info("bootstrap keys processed", "provided", len(bootKeys), "inserted", inserted)
	}

	// 5. Auth service (API keys + admin sessions)
	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "portcullis-dev-secret-change-me"
		logger.Warn("auth.jwt_secret is not set - admin sessions use an insecure development secret")
	}
	authSvc := service.NewAuthService(store, jwtSecret, cfg.Auth.JWTExpiryDuration())

	// 6. Upstream client with metrics instrumentation
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	upstream := tufin.Instrument(newTufinClient(cfg), m)
	logger.Info("upstream client ready",
		"securetrack", cfg.Tufin.SecureTrackURL,
		"securechange", cfg.Tufin.SecureChangeURL,
		"ssl_verify", cfg.Tufin.VerifyTLS())

	// 7. Build the HTTP server; this validates the permission table against
	// every registered operation and fails before any traffic is accepted.
	baseURL := displayBaseURL(cfg)
	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		BaseURL:         baseURL,
		ShutdownTimeout: cfg.Server.ShutdownDuration(),
		CORSOrigins:     cfg.Server.CORS.Origins,
		APIKeyHeader:    cfg.Auth.APIKeyHeader,
		MaxBodySize:     cfg.Server.MaxBodyBytes(),
		RateLimit:       cfg.RateLimit.Requests,
		RateWindow:      cfg.RateLimit.WindowDuration(),
	}
	if cfg.Server.TLS.Enabled {
		srvCfg.TLSCertFile = cfg.Server.TLS.CertFile
		srvCfg.TLSKeyFile = cfg.Server.TLS.KeyFile
	}

	srv, err := server.New(srvCfg, server.Deps{
		Keys:      store,
		AuthSvc:   authSvc,
		Admins:    admins,
		Table:     authz.DefaultTable(),
		Workflows: authz.DefaultWorkflowTable(),
		Tufin:     upstream,
		Metrics:   m,
		Gatherer:  reg,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	// 8. Anonymous usage reporting (settings-store backed opt-out)
	if cfg.Telemetry.ReportingEnabled() {
		settings, _ := store.(telemetry.SettingsStore)
		tracker := telemetry.New(ctx, settings, func() telemetry.Properties {
			keyCount := 0
			if list, err := store.List(context.Background()); err == nil {
				keyCount = len(list)
			}
			return telemetry.Properties{
				Version:     appVersion,
				GoVersion:   runtime.Version(),
				OS:          runtime.GOOS,
				Arch:        runtime.GOARCH,
				StoreDriver: cfg.Store.Driver,
				APIKeys:     keyCount,
				Admins:      admins.Len(),
				Roles:       len(model.Roles()),
				MCPEnabled:  cfg.MCP.Enabled,
			}
		})
		if tracker != nil {
			telemetry.PrintNotice()
			tracker.Start()
			defer tracker.Shutdown()
		}
	}

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("could not write PID file", "path", pidFilePath(), "error", err)
	} else {
		defer removePID()
	}

	fmt.Printf("→ Portcullis %s\n", versionString())
	fmt.Printf("→ Listening on %s\n", baseURL)
	fmt.Printf("→ OpenAPI:    %s/openapi.json\n", baseURL)
	fmt.Printf("→ Health:     %s/healthz\n", baseURL)
	fmt.Printf("→ Upstream:   %s\n", cfg.Tufin.SecureTrackURL)
	fmt.Println()

	return srv.ListenAndServe()
}

// displayBaseURL derives a reachable URL for banner output. A wildcard bind
// address is shown as localhost.
func displayBaseURL(cfg *config.Config) string {
	scheme := "http"
	if cfg.Server.TLS.Enabled {
		scheme = "https"
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, cfg.Server.Port)
}
