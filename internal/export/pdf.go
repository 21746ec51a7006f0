// pdf.go — One-page PDF report of a recorded session.
// Draws the captured bounding boxes and pointer trails plus a session
// table, for sharing a session summary without the replay tool.
package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/annotrail/annotrail/internal/recording"
	"github.com/annotrail/annotrail/internal/timeline"
	"github.com/annotrail/annotrail/internal/util"
)

// pdfScale maps canvas pixels to report millimeters.
const pdfScale = 4.0

// WriteReport writes the PDF session report for a recording to w.
func WriteReport(w io.Writer, rec *recording.Recording) error {
	if rec == nil {
		return fmt.Errorf("export_no_recording: Nothing to export")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	title := rec.ID
	if rec.Name != "" {
		title = rec.Name
	}
	pdf.CellFormat(0, 10, fmt.Sprintf("Annotation session: %s", title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Recorded %s, duration %s, %d events",
		rec.CreatedAt, util.FormatMs(rec.Duration), rec.ActionCount()), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	drawAnnotations(pdf, rec.Actions)

	pdf.Ln(4)
	writeSessionTable(pdf, GroupSessions(rec.Actions, rec.Duration))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export_pdf_failed: %w", err)
	}
	return nil
}

// drawAnnotations renders the captured boxes and pointer trails.
func drawAnnotations(pdf *gofpdf.Fpdf, actions []timeline.Action) {
	originY := pdf.GetY()

	pdf.SetDrawColor(200, 30, 30)
	pdf.SetLineWidth(0.4)
	var boxOrigin *timeline.Point
	for _, a := range timeline.New(actions).Actions() {
		switch a.Type {
		case timeline.ActionBoxStart:
			if a.Data.Point != nil {
				p := *a.Data.Point
				boxOrigin = &p
			}
		case timeline.ActionBoxEnd:
			if boxOrigin != nil && a.Data.Point != nil {
				x, y, w, h := normalizeRect(*boxOrigin, *a.Data.Point)
				pdf.Rect(10+x/pdfScale, originY+y/pdfScale, w/pdfScale, h/pdfScale, "D")
				boxOrigin = nil
			}
		}
	}

	pdf.SetDrawColor(30, 30, 200)
	pdf.SetLineWidth(0.2)
	var prev *timeline.Point
	for _, a := range timeline.New(actions).Actions() {
		switch a.Type {
		case timeline.ActionPointerMove:
			if a.Data.Point == nil {
				continue
			}
			if prev != nil {
				pdf.Line(10+prev.X/pdfScale, originY+prev.Y/pdfScale,
					10+a.Data.Point.X/pdfScale, originY+a.Data.Point.Y/pdfScale)
			}
			p := *a.Data.Point
			prev = &p
		case timeline.ActionToolDeactivated:
			prev = nil // break the trail between activations
		}
	}

	pdf.SetY(originY + 70)
}

func normalizeRect(origin, corner timeline.Point) (x, y, w, h float64) {
	x, w = origin.X, corner.X-origin.X
	if w < 0 {
		x, w = corner.X, -w
	}
	y, h = origin.Y, corner.Y-origin.Y
	if h < 0 {
		y, h = corner.Y, -h
	}
	return x, y, w, h
}

// writeSessionTable renders one row per grouped session.
func writeSessionTable(pdf *gofpdf.Fpdf, sessions []Session) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(15, 6, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Tool", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Start", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 6, "End", "1", 0, "R", false, 0, "")
	pdf.CellFormat(25, 6, "Events", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, s := range sessions {
		tool := s.Tool
		if tool == "" {
			tool = "(none)"
		}
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", s.Index), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, tool, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, util.FormatMs(s.StartTimeOffset), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, util.FormatMs(s.EndTimeOffset), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", len(s.Actions)), "1", 1, "R", false, 0, "")
	}
}
