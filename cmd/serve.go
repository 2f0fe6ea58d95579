package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SimpleDioney/Amostras/internal/audit"
	"github.com/SimpleDioney/Amostras/internal/conversation"
	"github.com/SimpleDioney/Amostras/internal/correction"
	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/escalation"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/logger"
	"github.com/SimpleDioney/Amostras/internal/report"
	"github.com/SimpleDioney/Amostras/internal/server"
	"github.com/SimpleDioney/Amostras/internal/session"
	"github.com/SimpleDioney/Amostras/internal/transport"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat bot, the escalation scheduler and the HTTP API",
	Long: `Starts the webhook receiver for WPPConnect events, the conversation engine,
the daily escalation sweep, and the read-only API with /healthz and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.HTTP.Port = servePort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		database, cfgStore, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		dir := directory.NewStore(database)
		samples := ledger.NewStore(database)
		sessions := session.NewStore(database)
		trail := audit.NewStore(database)

		sender := transport.NewWPPClient(transport.WPPConfig{
			BaseURL:       cfg.Transport.BaseURL,
			Session:       cfg.Transport.Session,
			Token:         cfg.Transport.Token,
			RatePerSecond: cfg.Transport.RatePerSecond,
			Burst:         cfg.Transport.Burst,
		})

		dispatcher := report.NewDispatcher(sender, dir, cfgStore)
		// Reports outlive the event that armed the window, so they get
		// their own context.
		corrections := correction.NewManager(database, func(_ context.Context, participantID string, s ledger.Sample) {
			sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			dispatcher.SendFinalReport(sendCtx, participantID, s)
		})
		defer corrections.Stop()

		engine := conversation.NewEngine(conversation.Deps{
			DB:          database,
			Directory:   dir,
			Samples:     samples,
			Sessions:    sessions,
			Settings:    cfgStore,
			Corrections: corrections,
			Sender:      sender,
			Location:    loc,
			Audit:       trail,
		})

		gateway := transport.NewGateway(engine, sender, cfg.Transport.QueueSize)
		go gateway.Run(ctx)

		sched := escalation.New(samples, cfgStore, sender, loc, cfg.CronExpr())
		cancelSched, err := sched.Start(ctx)
		if err != nil {
			return fmt.Errorf("starting escalation scheduler: %w", err)
		}
		defer cancelSched()

		srv := server.New(server.Config{Port: cfg.HTTP.Port, AllowAll: cfg.HTTP.AllowAll}, database)
		r := srv.Router()
		transport.RegisterRoutes(r, transport.NewWebhookHandler(gateway, cfg.Transport.WebhookSecret))
		directory.RegisterRoutes(r, dir)
		ledger.RegisterRoutes(r, samples)
		audit.RegisterRoutes(r, trail)

		go func() {
			<-ctx.Done()
			logger.Info("shutting_down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server_shutdown_failed", "error", err)
			}
		}()

		logger.Info("amostras_starting",
			"version", Version,
			"port", cfg.HTTP.Port,
			"database", cfg.Database,
			"timezone", loc.String(),
			"cron", cfg.CronExpr(),
			"wppconnect", cfg.Transport.BaseURL)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on (overrides http.port)")
	rootCmd.AddCommand(serveCmd)
}
