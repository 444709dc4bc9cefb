package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/session"
	"github.com/TTHRMAnalytics/hrms-client-quick-mobile/internal/shared/apperror"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to a workspace",
	RunE:  runLogin,
}

func init() {
	loginCmd.Flags().String("email", "", "Account email (prompted when omitted)")
	loginCmd.Flags().String("workspace", "", "Workspace domain (prompted when the account has several)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	reader := bufio.NewReader(os.Stdin)

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		saved := a.session.SavedEmail(ctx)
		if saved != "" {
			fmt.Printf("Email [%s]: ", saved)
		} else {
			fmt.Print("Email: ")
		}
		line, _ := reader.ReadString('\n')
		email = strings.TrimSpace(line)
		if email == "" {
			email = saved
		}
	}
	if email == "" {
		return errors.New("email is required")
	}

	workspaces, err := a.session.Workspaces(ctx, email)
	if err != nil {
		fmt.Println(apperror.UserMessage(err, apperror.ContextWorkspace))
		return err
	}
	if len(workspaces) == 0 {
		fmt.Println("No workspaces found for this account.")
		return errors.New("no workspaces")
	}

	ws, err := chooseWorkspace(cmd, reader, workspaces)
	if err != nil {
		return err
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return err
	}

	id, err := a.session.SignIn(ctx, email, string(passwordBytes), ws)
	if err != nil {
		fmt.Println(apperror.UserMessage(err, apperror.ContextLogin))
		return err
	}

	fmt.Printf("Signed in to %s as %s.\n", ws.DomainName, displayName(id.EmployeeName, id.EmployeeID))

	// warm the location cache so the first check-in does not wait
	a.location.StartBackgroundAcquisition(ctx)

	engine, _, err := a.engine(ctx)
	if err != nil {
		return err
	}
	if rec, err := engine.Reconcile(ctx, id.EmployeeID); err == nil {
		printRecord(rec)
	}
	return nil
}

func chooseWorkspace(cmd *cobra.Command, reader *bufio.Reader, workspaces []session.Workspace) (session.Workspace, error) {
	if flagged, _ := cmd.Flags().GetString("workspace"); flagged != "" {
		for _, ws := range workspaces {
			if strings.EqualFold(ws.DomainName, flagged) {
				return ws, nil
			}
		}
		return session.Workspace{}, fmt.Errorf("workspace %q not available for this account", flagged)
	}
	if len(workspaces) == 1 {
		return workspaces[0], nil
	}

	fmt.Println("Workspaces:")
	for i, ws := range workspaces {
		name := ws.CompanyName
		if name == "" {
			name = ws.DomainName
		}
		fmt.Printf("  %d) %s (%s)\n", i+1, name, ws.DomainName)
	}
	fmt.Print("Choose workspace: ")
	line, _ := reader.ReadString('\n')
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 1 || idx > len(workspaces) {
		return session.Workspace{}, errors.New("invalid workspace selection")
	}
	return workspaces[idx-1], nil
}

func displayName(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
