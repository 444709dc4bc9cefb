package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/attendance"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/apperror"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/contextutil"
)

var checkInCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record a check-in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd.Context(), attendance.ActionCheckIn)
	},
}

var checkOutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Record a check-out",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd.Context(), attendance.ActionCheckOut)
	},
}

// runAction reconciles first so the action is validated against the server's
// view, then submits.
func runAction(ctx context.Context, action attendance.Action) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	engine, id, err := a.engine(ctx)
	if err != nil {
		fmt.Println(apperror.UserMessage(err, apperror.ContextLogin))
		return err
	}
	ctx = contextutil.WithEmployeeID(ctx, id.EmployeeID)

	// location acquisition and reconcile overlap
	a.location.StartBackgroundAcquisition(ctx)

	if _, err := engine.Reconcile(ctx, id.EmployeeID); err != nil {
		fmt.Println(apperror.UserMessage(err, apperror.ContextAttendance))
		return err
	}

	var rec *attendance.Record
	switch action {
	case attendance.ActionCheckIn:
		rec, err = engine.CheckIn(ctx)
	case attendance.ActionCheckOut:
		rec, err = engine.CheckOut(ctx)
	}
	if err != nil {
		fmt.Println(apperror.UserMessage(err, apperror.ContextAttendance))
		return err
	}

	printRecord(rec)
	return nil
}
