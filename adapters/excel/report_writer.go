package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"venturi/domain/decision"
	"venturi/domain/optimize"
	"venturi/domain/session"
	apperrors "venturi/internal/errors"
)

// ReportWriter exports a finished session's aggregates and audit trail to a
// workbook. Reporting only: the engine never reads these files back.
type ReportWriter struct {
	path string
}

// NewReportWriter creates a writer targeting the given .xlsx path
func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path}
}

// Write renders the summary sheet and the deployments sheet
func (w *ReportWriter) Write(summary session.Summary, deployments []optimize.DeploymentRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return apperrors.Wrap(err, "failed to rename summary sheet")
	}

	rows := [][]interface{}{
		{"Session", summary.SessionID.String()},
		{"Started", summary.StartedAt.String()},
		{"Ended", summary.EndedAt.String()},
		{"Duration", summary.Duration().String()},
		{"Frames", summary.FramesTotal},
		{"Degraded frames", summary.FramesDegraded},
		{"Mean quality", summary.MeanQuality},
		{"Mean confidence", summary.MeanConfidence},
		{"Deployments", summary.Deployments},
		{"Rollbacks", summary.Rollbacks},
	}
	for _, label := range decision.LabelOrder {
		rows = append(rows, []interface{}{fmt.Sprintf("Label %s", label), summary.LabelCounts[label]})
	}
	if summary.TerminalError != "" {
		rows = append(rows, []interface{}{"Terminal error", summary.TerminalError})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return apperrors.Wrap(err, "failed to compute cell name")
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return apperrors.Wrap(err, "failed to write summary row")
		}
	}

	const deploySheet = "Deployments"
	if _, err := f.NewSheet(deploySheet); err != nil {
		return apperrors.Wrap(err, "failed to create deployments sheet")
	}
	header := []interface{}{"ID", "Target", "Gate", "Previous", "Proposed", "Deployed at", "Rollback at", "Effectiveness", "Outcome"}
	if err := f.SetSheetRow(deploySheet, "A1", &header); err != nil {
		return apperrors.Wrap(err, "failed to write deployments header")
	}
	for i, rec := range deployments {
		rollback := ""
		if rec.RollbackAt != nil {
			rollback = rec.RollbackAt.String()
		}
		row := []interface{}{
			rec.ID.String(),
			string(rec.Candidate.Target),
			rec.Candidate.Gate.String(),
			rec.PreviousValue,
			rec.Candidate.ProposedValue,
			rec.DeployedAt.String(),
			rollback,
			rec.ObservedEffectiveness,
			string(rec.Outcome),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.Wrap(err, "failed to compute cell name")
		}
		if err := f.SetSheetRow(deploySheet, cell, &row); err != nil {
			return apperrors.Wrap(err, "failed to write deployment row")
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return apperrors.Wrapf(err, "failed to save report to %s", w.path)
	}
	return nil
}
