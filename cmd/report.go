package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SimpleDioney/Amostras/internal/directory"
	"github.com/SimpleDioney/Amostras/internal/ledger"
	"github.com/SimpleDioney/Amostras/internal/progress"
	"github.com/SimpleDioney/Amostras/internal/report"
)

var (
	reportOut    string
	reportStatus string
	reportAgent  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Sample reports",
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export samples to an xlsx spreadsheet",
	Long:  `Writes the same spreadsheet admins receive in the chat. Filter by status and by agent number.`,
	RunE:  runReportExport,
}

func init() {
	reportExportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output file (default Report_<subject>.xlsx)")
	reportExportCmd.Flags().StringVar(&reportStatus, "status", "", "only samples with this status")
	reportExportCmd.Flags().StringVar(&reportAgent, "agent", "", "only samples of the agent with this number")
	reportCmd.AddCommand(reportExportCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	ctx := context.Background()
	database, _, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	filter := ledger.Filter{Status: ledger.Status(reportStatus)}
	subject := "All_Samples"
	if reportStatus != "" {
		if !filter.Status.Valid() {
			return fmt.Errorf("invalid status %q", reportStatus)
		}
		subject = reportStatus
	}
	if reportAgent != "" {
		agent, err := directory.NewStore(database).Get(ctx, directory.Address(reportAgent))
		if err != nil {
			return err
		}
		if agent == nil {
			return fmt.Errorf("no user with number %s", reportAgent)
		}
		filter.OwnerID = agent.ID
		subject = agent.Name
	}

	rows, err := ledger.NewStore(database).ReportRows(ctx, filter)
	if err != nil {
		return err
	}

	out := reportOut
	if out == "" {
		out = report.FileName(subject)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	bar := progress.NewReporter()
	bar.Start(len(rows), "Exporting samples")
	err = report.Export(f, rows, report.Options{Location: loc, OnRow: bar.Step})
	bar.Finish()
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("Wrote %d samples to %s\n", len(rows), out)
	return nil
}
