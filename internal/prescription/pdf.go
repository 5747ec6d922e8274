package prescription

import (
	"bytes"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hackgods/telehealth-scheduling/internal/appointment"
	"github.com/hackgods/telehealth-scheduling/internal/directory"
)

func renderPDF(p *Prescription, appt *appointment.Appointment, doctor *directory.Doctor, patient *directory.Patient) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 70, 140)
	pdf.CellFormat(0, 10, "Prescription", "", 1, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	addDetail(pdf, "Doctor", tr(doctor.Name))
	if doctor.Speciality != "" {
		addDetail(pdf, "Speciality", tr(doctor.Speciality))
	}
	addDetail(pdf, "Patient", tr(patient.Name))
	addDetail(pdf, "Date", strings.ReplaceAll(appt.Date, "_", "/"))
	addDetail(pdf, "Time", appt.Time)
	addDetail(pdf, "Consultation", string(appt.Mode))
	addDetail(pdf, "Attachment", tr(p.File.Name))

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, tr(p.Report), "", "L", false)

	pdf.SetY(pdf.GetY() + 12)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, "Issued "+p.CreatedAt.Format("2 Jan 2006 15:04 MST")+" - SHA-256 "+p.File.Hash[:min(12, len(p.File.Hash))], "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addDetail(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(40, 8, label, "1", 0, "", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, value, "1", 1, "", false, 0, "")
}
