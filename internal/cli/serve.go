package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/recall/internal/api"
	"github.com/rcliao/recall/internal/metrics"
	"github.com/rcliao/recall/internal/service"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  "Serve the JSON API under /api/v1, with /healthz and Prometheus metrics on /metrics.",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default from config)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewManager()
	svc, err := service.Open(ctx, cfg, log, m)
	if err != nil {
		exitErr("open store", err)
	}
	defer svc.Close()

	if err := api.NewServer(cfg.Server, svc, log, m).ListenAndServe(ctx); err != nil {
		exitErr("serve", err)
	}
}
