package app

import (
	"context"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/calcpatch/internal/cli"
	apperrors "github.com/agbru/calcpatch/internal/errors"
	"github.com/agbru/calcpatch/internal/lifecycle"
	"github.com/agbru/calcpatch/internal/logging"
	"github.com/agbru/calcpatch/internal/server"
	"github.com/agbru/calcpatch/internal/sysmon"
)

// Run enables the patch and keeps it live until ctx is done or a
// termination signal arrives, serving metrics if Config.MetricsAddr is
// set. The patch is disabled before Run returns.
func (a *Application) Run(ctx context.Context) int {
	if code := a.Manager.Init(ctx); code != apperrors.ExitSuccess {
		return code
	}
	defer a.Manager.Exit(context.Background())
	cli.DisplayStatus(a.Out, a.Manager.State().String(), a.Manager.Strategy().Name(), a.Set.Len())

	ctx, stop := signal.NotifyContext(ctx, terminationSignals...)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if a.Config.MetricsAddr != "" {
		if err := a.Metrics.RegisterHost(sysmon.Sample); err != nil {
			a.Logger.Warn("host metrics unavailable", logging.Err(err))
		}
		srv := server.New(a.Metrics.Handler(), a.Logger, server.WithReadiness(func() bool {
			return a.Manager.State() == lifecycle.Active
		}))
		g.Go(func() error { return srv.ListenAndServe(gctx, a.Config.MetricsAddr) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		a.Logger.Error("metrics server failed", err)
		cli.DisplayError(a.ErrWriter, err)
		return apperrors.ExitErrorGeneric
	}
	if cause := context.Cause(ctx); cause != nil {
		a.Logger.Info("shutting down", logging.String("reason", cause.Error()))
	}
	return apperrors.ExitSuccess
}
