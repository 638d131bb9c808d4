package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sagarc03/mayray/access"
	"github.com/sagarc03/mayray/admin"
	"github.com/sagarc03/mayray/config"
	"github.com/sagarc03/mayray/filesystem"
	mayrayhttp "github.com/sagarc03/mayray/http"
	"github.com/sagarc03/mayray/keystore"
	"github.com/sagarc03/mayray/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	Long: `Start the mayray server. With TLS on and no keystore password
configured, the password is read from the terminal.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "localhost", "interface to listen on")
	serveCmd.Flags().Int("port", 8443, "port to listen on")
	serveCmd.Flags().String("tls", "on", "wrap the listener in TLS: on, off")
	serveCmd.Flags().String("keystore", "", "PKCS#12 keystore path (env: MAYRAY_KEYSTORE_PATH)")
	serveCmd.Flags().Int("workers", server.DefaultMaxWorkers, "connections served at the same time")
	serveCmd.Flags().Duration("read-timeout", 0, "limit for reading a request, 0 for none")
	serveCmd.Flags().Duration("shutdown-timeout", server.DefaultShutdownTimeout, "limit for draining connections on shutdown")
	serveCmd.Flags().String("download-root", "./downloadable", "directory whose subdirectories can be downloaded")
	serveCmd.Flags().String("layout", string(access.LayoutAccess), "password layout: access, meta")
	serveCmd.Flags().String("zip-dir", "./zipFiles", "directory for generated archives")
	serveCmd.Flags().String("admin-addr", "", "address for /metrics and /healthz, empty to disable")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger := slog.Default()

	if cfg.TLSEnabled() && cfg.KeyStore.Password == "" {
		password, promptErr := promptKeyStorePassword(cfg.KeyStore.Path)
		if promptErr != nil {
			return promptErr
		}
		cfg.KeyStore.Password = password
	}

	serverCfg, err := cfg.ServerConfig()
	if err != nil {
		return err
	}
	provider, err := keystore.NewProvider(&serverCfg, logger)
	serverCfg.WipePasswords()
	if err != nil {
		return fmt.Errorf("create tls provider: %w", err)
	}

	if err = os.MkdirAll(cfg.Download.Root, 0o750); err != nil {
		return fmt.Errorf("create download root: %w", err)
	}

	registry, err := access.NewRegistry(access.RegistryConfig{
		Root:   cfg.Download.Root,
		Layout: access.Layout(cfg.Download.Layout),
	}, logger)
	if err != nil {
		return fmt.Errorf("create password registry: %w", err)
	}

	gate, err := access.NewGate(cfg.Download.Root, registry, logger)
	if err != nil {
		return fmt.Errorf("create gate: %w", err)
	}

	handler := mayrayhttp.NewHandler(
		&mayrayhttp.HandlerConfig{ZipDir: cfg.Download.ZipDir},
		gate,
		filesystem.NewArchiver(logger),
		logger,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	srv := server.New(server.Config{
		MaxWorkers:      cfg.Server.MaxWorkers,
		ReadTimeout:     cfg.Server.ReadTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, handler.Routes(), logger, server.NewMetrics(reg))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Admin.Addr != "" {
		go func() {
			if adminErr := admin.Serve(ctx, cfg.Admin.Addr, reg, logger); adminErr != nil {
				logger.Error("admin server stopped", "err", adminErr)
			}
		}()
	}

	logger.Info("serving downloads", "root", gate.Root(), "layout", cfg.Download.Layout, "tls", provider.Status())
	if err = srv.ListenAndServe(ctx, serverCfg.Addr(), provider); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// promptKeyStorePassword reads the keystore password from the terminal
// without echoing it.
func promptKeyStorePassword(path string) (string, error) {
	prompt := promptui.Prompt{
		Label: fmt.Sprintf("Password for keystore %s", path),
		Mask:  '*',
	}

	password, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		return "", errors.New("keystore password prompt cancelled")
	}
	if err != nil {
		return "", fmt.Errorf("read keystore password: %w", err)
	}
	return password, nil
}
