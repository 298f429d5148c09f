package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"petrolhub/backend/internal/domain"
	"petrolhub/backend/internal/logger"
	"petrolhub/backend/internal/reconciliation"
)

func newShiftCmd() *cobra.Command {
	shift := &cobra.Command{
		Use:   "shift",
		Short: "Shift closing calculations",
	}

	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Compute the closing totals of a shift session file",
		Long: `Reads a shift session (pump readings, shop and wash sales, credits,
expenses and tenders) as JSON and prints the computed totals: revenue per
stream, theoretical cash, variance and the OK/REVIEW status.

Nothing is persisted.`,
		Example: `  stationctl shift close --input session.json
  cat session.json | stationctl shift close --input -
  stationctl shift close --input session.json --fail-on-review`,
		RunE: runShiftClose,
	}
	closeCmd.Flags().String("input", "", "Session JSON file, or - for stdin")
	closeCmd.Flags().Bool("fail-on-review", false, "Exit non-zero when the variance needs review")
	_ = closeCmd.MarkFlagRequired("input")

	shift.AddCommand(closeCmd)
	return shift
}

func runShiftClose(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("stationctl")

	input, _ := cmd.Flags().GetString("input")
	failOnReview, _ := cmd.Flags().GetBool("fail-on-review")

	var session domain.ShiftSession
	if err := readJSON(cmd.InOrStdin(), input, &session); err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	totals := reconciliation.CloseShift(session)
	log.Info().
		Str("session", session.ID).
		Str("status", string(totals.Status)).
		Str("variance", totals.Variance.StringFixed(2)).
		Msg("shift totals computed")

	if err := writeJSON(cmd.OutOrStdout(), totals); err != nil {
		return err
	}
	if failOnReview && totals.Status == domain.ReconciliationReview {
		return fmt.Errorf("cash variance %s is outside tolerance", totals.Variance.StringFixed(2))
	}
	return nil
}

// readJSON decodes the file at path, or stdin when path is "-".
func readJSON(stdin io.Reader, path string, dest any) error {
	var src io.Reader
	if path == "-" {
		src = stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		src = file
	}
	return json.NewDecoder(src).Decode(dest)
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
