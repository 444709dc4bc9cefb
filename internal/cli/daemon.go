package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/apperror"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/contextutil"
)

var daemonInterval time.Duration

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Keep local attendance state reconciled in the background",
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 5*time.Minute, "Reconcile interval")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	engine, id, err := a.engine(ctx)
	if err != nil {
		fmt.Println(apperror.UserMessage(err, apperror.ContextLogin))
		return err
	}

	ctx = contextutil.WithEmployeeID(ctx, id.EmployeeID)
	ctx = contextutil.WithLogger(ctx, a.logger.With(zap.String("component", "daemon")))

	a.location.StartBackgroundAcquisition(ctx)

	reconcile := func() error {
		_, err := engine.Reconcile(ctx, id.EmployeeID)
		if err != nil {
			// an expired session cannot recover without a new login
			if apperror.IsSessionExpired(err) {
				return err
			}
			a.logger.Warn("periodic reconcile failed", zap.Error(err))
			return nil
		}
		a.location.TriggerBackgroundRefresh()
		a.logger.Info("periodic reconcile done",
			zap.String("employee_id", id.EmployeeID),
			zap.String("state", string(engine.State())),
		)
		return nil
	}

	if err := reconcile(); err != nil {
		fmt.Println(apperror.UserMessage(err, apperror.ContextAttendance))
		return err
	}

	ticker := time.NewTicker(daemonInterval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("daemon running", zap.Duration("interval", daemonInterval))
	for {
		select {
		case <-ticker.C:
			if err := reconcile(); err != nil {
				fmt.Println(apperror.UserMessage(err, apperror.ContextAttendance))
				return err
			}
		case sig := <-quit:
			a.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
