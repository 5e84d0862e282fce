package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AmmannChristian/go-tokenproxy/grpcserver"
	"github.com/AmmannChristian/go-tokenproxy/httpclient"
	"github.com/AmmannChristian/go-tokenproxy/httpserver"
	"github.com/AmmannChristian/go-tokenproxy/internal/config"
	"github.com/AmmannChristian/go-tokenproxy/internal/metrics"
	"github.com/AmmannChristian/go-tokenproxy/oauth2client"
)

type rootOptions struct {
	envFile string
	port    string
}

// NewRootCmd builds the tokenproxy command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tokenproxy",
		Short: "eBay access token proxy",
		Long: `tokenproxy keeps eBay client credentials on the server, exchanges them for
an application access token and hands the cached token to callers that present
the shared key in the x-proxy-key header.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(opts.envFile); err != nil {
				return err
			}

			lookup := config.Lookup(os.LookupEnv)
			if opts.port != "" {
				lookup = overrideLookup(lookup, "PORT", opts.port)
			}

			cfg, err := config.Parse(lookup)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cfg.NewLogger())
		},
	}

	cmd.Flags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file merged into the environment (missing file is ignored)")
	cmd.Flags().StringVar(&opts.port, "port", "", "listen port, overrides PORT")

	return cmd
}

func overrideLookup(next config.Lookup, key, value string) config.Lookup {
	return func(k string) (string, bool) {
		if k == key {
			return value, true
		}
		return next(k)
	}
}

// proxy is the wired set of components of one process.
type proxy struct {
	handler http.Handler
	server  *httpserver.Server
	probe   *grpcserver.HealthServer
}

func newProxy(ctx context.Context, cfg *config.Config, logger *logrus.Logger, reg *prometheus.Registry) (*proxy, error) {
	m := metrics.New(reg)

	upstream, err := newUpstreamClient(cfg)
	if err != nil {
		return nil, err
	}

	tokens := oauth2client.NewTokenManager(ctx, cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.Scope,
		oauth2client.WithHTTPClient(upstream),
		oauth2client.WithLogger(logger.WithField("component", "oauth2client")),
		oauth2client.WithMetrics(m),
	)

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Tokens:   tokens,
		ProxyKey: cfg.ProxyKey,
		Logger:   logger.WithField("component", "httpserver"),
		Metrics:  m,
		Gatherer: reg,
	})

	tlsConfig, err := httpserver.LoadTLSConfig(httpserver.TLSFiles{CertFile: cfg.TLSCertFile, KeyFile: cfg.TLSKeyFile})
	if err != nil {
		return nil, err
	}

	p := &proxy{
		handler: router,
		server: httpserver.NewServer(cfg.Addr(), router,
			httpserver.WithServerTLS(tlsConfig),
			httpserver.WithServerLogger(logger),
		),
	}

	if addr := cfg.GRPCHealthAddr(); addr != "" {
		p.probe = grpcserver.NewHealthServer(addr,
			grpcserver.WithHealthTLS(tlsConfig),
			grpcserver.WithHealthLogger(logger.WithField("component", "grpcserver")),
		)
	}

	return p, nil
}

func newUpstreamClient(cfg *config.Config) (*http.Client, error) {
	builder := httpclient.NewBuilder().WithTimeout(cfg.UpstreamTimeout)
	if cfg.UpstreamCAFile != "" {
		builder = builder.WithTLS(cfg.UpstreamCAFile, "", "")
	}

	client, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("upstream client: %w", err)
	}
	return client, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"client_id_length":     len(cfg.ClientID),
		"client_secret_length": len(cfg.ClientSecret),
		"proxy_key_set":        cfg.ProxyKey != "",
	}).Info("credentials loaded")

	p, err := newProxy(ctx, cfg, logger, newRegistry())
	if err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("Token proxy running on port %s", cfg.Port)
		return p.server.Run(ctx)
	})

	if p.probe != nil {
		group.Go(func() error {
			return p.probe.Run(ctx)
		})
	}

	return group.Wait()
}
