package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"match-reconciliation-backend/internal/repository"
	"match-reconciliation-backend/internal/sheet"
)

const operatorName = "cli"

var (
	statsFrom    string
	statsTo      string
	resetConfirm bool
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a merged .xlsx or .csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := sheet.FormatFromFilename(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer f.Close()

		rows, parseErrors, err := sheet.Read(f, format)
		if err != nil {
			return err
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		result, err := svc.Import(cmd.Context(), args[0], rows)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		b := result.Batch
		fmt.Fprintf(out, "batch %s: %d rows\n", b.ID, b.TotalRows)
		fmt.Fprintf(out, "  new bank records:  %d\n", b.NewBankCount)
		fmt.Fprintf(out, "  new sales records: %d\n", b.NewSalesCount)
		fmt.Fprintf(out, "  confirmed:         %d\n", b.ConfirmedCount)
		fmt.Fprintf(out, "  pending:           %d\n", b.PendingCount)
		fmt.Fprintf(out, "  no match:          %d\n", b.NoMatchCount)
		fmt.Fprintf(out, "  skipped:           %d\n", b.SkippedCount)
		for _, e := range parseErrors {
			fmt.Fprintf(out, "  line %d: %s\n", e.Line, e.Error)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  line %d: %s\n", e.Line, e.Error)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write the reconciliation state to a .xlsx or .csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := sheet.FormatFromFilename(args[0])
		if err != nil {
			return err
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		rows, err := svc.Export(cmd.Context())
		if err != nil {
			return err
		}

		f, err := os.Create(args[0])
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		if format == sheet.FormatCSV {
			err = sheet.WriteCSV(f, rows)
		} else {
			err = sheet.WriteXLSX(f, rows)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return errors.Wrapf(err, "write %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d rows to %s\n", len(rows), args[0])
		return nil
	},
}

var approveAllCmd = &cobra.Command{
	Use:   "approve-all",
	Short: "Confirm every pending match",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		n, err := svc.ApproveAll(cmd.Context(), operatorName)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "approved %d matches\n", n)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print ledger and match counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dates, err := parseRange(statsFrom, statsTo)
		if err != nil {
			return err
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		s, err := svc.Stats(cmd.Context(), dates)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bank records:      %d (%d unmatched)\n", s.TotalBank, s.UnmatchedBank)
		fmt.Fprintf(out, "sales records:     %d (%d unmatched)\n", s.TotalSales, s.UnmatchedSales)
		fmt.Fprintf(out, "confirmed matches: %d\n", s.Confirmed)
		fmt.Fprintf(out, "pending matches:   %d\n", s.Pending)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every match and ledger record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirm {
			return errors.New("refusing to reset without --yes")
		}
		svc, err := newService()
		if err != nil {
			return err
		}
		if err := svc.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "database reset")
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsFrom, "from", "", "start date (YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "end date (YYYY-MM-DD)")
	resetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "confirm the reset")
}

func parseRange(from, to string) (*repository.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, errors.New("--from and --to must be given together")
	}
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --from")
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --to")
	}
	if end.Before(start) {
		return nil, errors.New("--to is before --from")
	}
	return &repository.DateRange{From: start, To: end}, nil
}
