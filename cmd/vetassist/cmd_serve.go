package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rendis/vetassist/internal/panel"
	"github.com/rendis/vetassist/internal/sessions"
	"github.com/rendis/vetassist/internal/store"
	"github.com/rendis/vetassist/internal/streaming"
	"github.com/rendis/vetassist/internal/wizard"
	"github.com/rendis/vetassist/pkg/mcp"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var panelAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve wizard sessions as MCP tools over stdio",
		Long: "Serve runs an MCP stdio server. Logs go to stderr; stdout carries the protocol.\n" +
			"Idle sessions are discarded on the configured sweep schedule.\n" +
			"With --panel, a monitor for live sessions is also served over HTTP.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("panel") {
				opts.cfg.PanelAddr = panelAddr
			}
			return runServe(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&panelAddr, "panel", "", "also serve the HTTP monitor on this address, e.g. 127.0.0.1:8390")
	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	a, err := newApp(opts.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := streaming.NewMemoryHub()
	rec := a.recorder(st)

	sessOpts := append(a.sessionOptions(), wizard.WithObserver(rec.Observe), wizard.WithHub(hub))
	manager := sessions.NewManager(sessions.Config{
		Engine:  a.engine,
		Options: sessOpts,
		TTL:     time.Duration(a.cfg.SessionTTL),
		Logger:  a.logger,
	})
	defer manager.CloseAll()

	sweeper, err := sessions.NewSweeper(manager, a.cfg.SweepSchedule, a.logger)
	if err != nil {
		return err
	}
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	defer sweeper.Stop()

	srv := mcp.NewVetServer(mcp.ServerDeps{
		Sessions: manager,
		Catalog:  a.catalog,
		Planner:  a.planner,
		Images:   a.images,
		History:  st,
		Logger:   a.logger,
	})

	notifier := mcp.NewMCPNotifier(srv.MCPServer(), srv.Registry())
	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		if err := mcp.Forward(ctx, hub, notifier, a.logger); err != nil {
			a.logger.Error("event forwarding stopped", slog.Any("error", err))
		}
	}()

	var panelDone chan struct{}
	if a.cfg.PanelAddr != "" {
		p := panel.NewPanelServer(panel.PanelDeps{
			Sessions: manager,
			History:  st,
			Runs:     store.NewEventLog(st),
			Hub:      hub,
			Logger:   a.logger,
		})
		panelDone = make(chan struct{})
		go func() {
			defer close(panelDone)
			if err := p.ListenAndServe(ctx, a.cfg.PanelAddr); err != nil {
				a.logger.Error("panel stopped", slog.Any("error", err))
			}
		}()
	}

	a.logger.Info("vetassist serving on stdio",
		slog.String("db", a.cfg.DBPath),
		slog.Duration("session_ttl", time.Duration(a.cfg.SessionTTL)),
		slog.String("sweep_schedule", a.cfg.SweepSchedule),
	)
	err = srv.Serve(ctx)
	stop()
	<-forwardDone
	if panelDone != nil {
		<-panelDone
	}
	return err
}
