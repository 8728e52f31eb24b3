// Package export writes ranked job lists to spreadsheet files.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"github.com/jonathan/job-agent/internal/similarity"
	"github.com/jonathan/job-agent/internal/types"
)

// Sheet names
const (
	SummarySheet = "Summary"
	JobsSheet    = "Ranked Jobs"
)

// Query describes the search that produced the exported jobs
type Query struct {
	JobTitle       string
	Location       string
	ExpandedTitles []string
}

var jobHeaders = []string{"Rank", "Title", "Company", "Location", "Match Score", "Resume Tip", "URL"}

// ExportJobs writes the ranked jobs to an .xlsx file, adding the extension if missing.
// It returns the path actually written.
func ExportJobs(jobs []types.Posting, query Query, outputPath string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return "", errors.Wrap(err, "failed to rename sheet")
	}
	if _, err := f.NewSheet(JobsSheet); err != nil {
		return "", errors.Wrap(err, "failed to create jobs sheet")
	}

	if err := writeSummary(f, jobs, query); err != nil {
		return "", errors.Wrap(err, "failed to create summary sheet")
	}
	if err := writeJobs(f, jobs); err != nil {
		return "", errors.Wrap(err, "failed to create jobs sheet")
	}

	if err := f.SaveAs(outputPath); err != nil {
		return "", errors.Wrapf(err, "failed to save %s", outputPath)
	}
	return outputPath, nil
}

func writeSummary(f *excelize.File, jobs []types.Posting, query Query) error {
	sheet := SummarySheet
	if err := f.SetColWidth(sheet, "A", "A", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", 60); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, "A1", "Job Search Report"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", header); err != nil {
		return err
	}

	var low int
	var total float64
	for _, job := range jobs {
		total += job.Score()
		if similarity.IsLowMatch(job) {
			low++
		}
	}
	average := "-"
	if len(jobs) > 0 {
		average = fmt.Sprintf("%.2f", total/float64(len(jobs)))
	}

	rows := [][2]any{
		{"Job Title:", query.JobTitle},
		{"Location:", query.Location},
		{"Searched Titles:", strings.Join(query.ExpandedTitles, ", ")},
		{"Generated:", time.Now().Format("2006-01-02 15:04:05")},
		{"Jobs Found:", len(jobs)},
		{"Low Matches:", low},
		{"Average Score:", average},
	}
	for i, r := range rows {
		row := i + 3
		a := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(sheet, a, r[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, a, a, label); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeJobs(f *excelize.File, jobs []types.Posting) error {
	sheet := JobsSheet
	widths := []float64{8, 35, 22, 18, 12, 50, 50}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}
	good, err := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return err
	}
	low, err := f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return err
	}

	for i, h := range jobHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, header); err != nil {
			return err
		}
	}

	for i, job := range jobs {
		row := i + 2
		score := any("")
		if job.Scored() {
			score = job.Score()
		}
		values := []any{i + 1, job.Title, job.Company, job.Location, score, job.Suggestions, job.URL}
		first, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, first, &values); err != nil {
			return err
		}

		style := good
		if similarity.IsLowMatch(job) {
			style = low
		}
		last, _ := excelize.CoordinatesToCellName(len(jobHeaders), row)
		if err := f.SetCellStyle(sheet, first, last, style); err != nil {
			return err
		}
		if job.URL != "" {
			if err := f.SetCellHyperLink(sheet, last, job.URL, "External"); err != nil {
				return err
			}
		}
	}

	if len(jobs) > 0 {
		ref := fmt.Sprintf("A1:G%d", len(jobs)+1)
		if err := f.AutoFilter(sheet, ref, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
