// Package excel exports experiment results as xlsx workbooks.
package excel

import (
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/xuri/excelize/v2"

	"vitals/domain/experiment"
)

// resultsSheet is the single sheet written per export.
const resultsSheet = "Results"

// ResultsExporter writes experiment results workbooks for operators who
// want to review an experiment outside the API.
type ResultsExporter struct{}

// NewResultsExporter creates an exporter.
func NewResultsExporter() *ResultsExporter {
	return &ResultsExporter{}
}

// Export writes one experiment's results as an xlsx workbook to w.
func (e *ResultsExporter) Export(exp *experiment.Experiment, results *experiment.Results, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	rows := [][]interface{}{
		{"Experiment", exp.Name},
		{"Status", string(exp.Status)},
		{"Total samples", results.TotalSamples},
		{"Winner", results.Winner.String()},
		{"Confidence", results.Confidence},
		{"P-value", results.PValue},
		{"Effect size", results.EffectSize},
		{"Significant", results.Significant},
		{"Mode", string(results.Mode)},
		{},
		{"Variant", "Score", "Users", "Conversions", "Conversion rate"},
	}
	for _, v := range results.Variants {
		rows = append(rows, []interface{}{
			v.Name, v.Score, v.UsersSeen, v.Conversions, v.ConversionRate,
		})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Per-variant performance means"})
	for _, v := range results.Variants {
		metrics := make([]string, 0, len(v.Performance))
		for m := range v.Performance {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)
		for _, m := range metrics {
			rows = append(rows, []interface{}{v.Name, m, v.Performance[m]})
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	log.Printf("[Excel] exported results for experiment %s (%d variants)", exp.ID, len(results.Variants))
	return nil
}
