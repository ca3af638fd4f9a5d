package cli

import (
	"context"
	"fmt"

	"github.com/harun/edupilot/internal/config"
	"github.com/harun/edupilot/pkg/keepalive"
	"github.com/harun/edupilot/pkg/session"
	"github.com/spf13/cobra"
)

var keepaliveOnce bool

var keepaliveCmd = &cobra.Command{
	Use:   "keepalive",
	Short: "Revalidate the stored session on a schedule",
	Long: `Check the stored session on the keepalive.schedule cron expression and
sign in again when it has expired. Changes to the schedule in the config
file are picked up without a restart.`,
	Args: cobra.NoArgs,
	RunE: runKeepalive,
}

func init() {
	keepaliveCmd.Flags().BoolVar(&keepaliveOnce, "once", false, "check once and exit")
	rootCmd.AddCommand(keepaliveCmd)
}

// managerProber probes the session on a fresh engine per check
type managerProber struct {
	app *app
}

func (p managerProber) Status(ctx context.Context) (*session.Status, error) {
	defer p.app.writeMetrics()

	var st *session.Status
	err := p.app.withManager(ctx, func(mgr *session.Manager) error {
		var err error
		st, err = mgr.Status(ctx)
		return err
	})
	return st, err
}

func runKeepalive(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := keepalive.New(keepalive.Config{
		Schedule: a.cfg.Keepalive.Schedule,
		Prober:   managerProber{app: a},
		Login:    a.login,
		Timeout:  a.cfg.KeepaliveTimeout(),
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if keepaliveOnce {
		res, err := sched.Check(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "present=%t valid=%t refreshed=%t\n", res.Present, res.Valid, res.Refreshed)
		return nil
	}

	configPath := config.NewLoader(cfgFile).GetConfigPath()
	watcher, err := keepalive.WatchConfig(configPath, a.logger, func() {
		cfg, err := config.Load(cfgFile)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			a.logger.Warn().Err(err).Msg("Ignoring config change")
			return
		}
		if err := sched.Reschedule(cfg.Keepalive.Schedule); err != nil {
			a.logger.Warn().Err(err).Msg("Keeping previous schedule")
		}
	})
	if err != nil {
		a.logger.Warn().Err(err).Msg("Config hot reload disabled")
	} else {
		defer watcher.Stop()
	}

	sched.Start()
	defer sched.Stop()

	fmt.Fprintf(out, "Keep-alive running (%s), next check %s\n", sched.Schedule(), sched.Next().Format("2006-01-02 15:04"))
	<-cmd.Context().Done()
	return nil
}
