package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SimpleDioney/Amostras/internal/escalation"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/transport"
)

var sweepLogOnly bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one escalation sweep now",
	Long: `Promotes late samples to overdue and sends the reminders the daily schedule
would send. With --log-only the messages are written to the log instead of
being sent; the database is still updated.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepLogOnly, "log-only", false, "log messages instead of sending them")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	ctx := context.Background()
	database, cfgStore, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	var sender transport.Sender = transport.LogSender{}
	if !sweepLogOnly {
		sender = transport.NewWPPClient(transport.WPPConfig{
			BaseURL:       cfg.Transport.BaseURL,
			Session:       cfg.Transport.Session,
			Token:         cfg.Transport.Token,
			RatePerSecond: cfg.Transport.RatePerSecond,
			Burst:         cfg.Transport.Burst,
		})
	}

	sched := escalation.New(ledger.NewStore(database), cfgStore, sender, loc, cfg.CronExpr())
	res, err := sched.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("promoted=%d standard=%d tier1=%d tier2=%d escalations=%d follow_ups=%d failed=%d\n",
		res.Promoted, res.Standard, res.Tier1, res.Tier2, res.Escalations, res.FollowUps, res.Failed)
	return nil
}
