package cli

import (
	"fmt"

	"github.com/harun/edupilot/pkg/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the stored session",
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the stored session is still signed in",
	Args:  cobra.NoArgs,
	RunE:  runSessionStatus,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored session",
	Args:  cobra.NoArgs,
	RunE:  runSessionClear,
}

func init() {
	sessionCmd.AddCommand(sessionStatusCmd, sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	var st *session.Status
	err = a.withManager(cmd.Context(), func(mgr *session.Manager) error {
		st, err = mgr.Status(cmd.Context())
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Path: %s\n", st.Path)
	if !st.Present {
		fmt.Fprintln(out, "Status: none")
		return nil
	}
	fmt.Fprintf(out, "Saved: %s\n", st.ModTime.Format("2006-01-02 15:04:05"))
	if st.Valid {
		fmt.Fprintln(out, "Status: valid")
	} else {
		fmt.Fprintln(out, "Status: expired")
	}
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.store.Remove(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Session cleared")
	return nil
}
