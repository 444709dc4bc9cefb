package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/attendance"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/apperror"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/contextutil"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"sync"},
	Short:   "Reconcile and show the current attendance state",
	RunE:    runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	rec, err := engine.Reconcile(ctx, id.EmployeeID)
	if err != nil {
		fmt.Println(apperror.UserMessage(err, apperror.ContextAttendance))
		return err
	}

	fmt.Printf("Signed in as %s (%s)\n", displayName(id.EmployeeName, id.EmployeeID), id.DomainName)
	printRecord(rec)
	return nil
}

func printRecord(rec *attendance.Record) {
	if rec == nil || rec.LastAction == attendance.ActionUnknown {
		fmt.Println("No attendance recorded today.")
		return
	}
	switch rec.LastAction {
	case attendance.ActionCheckIn:
		fmt.Printf("Checked in at %s\n", timestampOrDash(rec.CheckInTime))
	case attendance.ActionCheckOut:
		fmt.Printf("Checked out at %s (in at %s)\n",
			timestampOrDash(rec.CheckOutTime), timestampOrDash(rec.CheckInTime))
	}
}

func timestampOrDash(ts *string) string {
	if ts == nil || *ts == "" {
		return "-"
	}
	return *ts
}
