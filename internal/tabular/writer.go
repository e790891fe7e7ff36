package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/eligibility"
	"github.com/roach88/remindsync/internal/normalize"
)

// partitionHeader is the column layout of a partition CSV, the import format
// of the contact API's bulk upload.
var partitionHeader = []string{"First Name", "Phone Number", "Fecha Num", "Fecha Text", "Hora", "Doctor", "Location"}

// PartitionFileName returns the CSV file name for a partition on the target
// date, e.g. "Recordatorios Sabino 6 de Ene.csv".
func PartitionFileName(partition string, target time.Time) string {
	return fmt.Sprintf("Recordatorios %s %d de %s.csv",
		normalize.TitleName(partition), target.Day(), normalize.MonthAbbrev(target.Month()))
}

// newBOMWriter returns a CSV writer whose output starts with a UTF-8 byte
// order mark. The returned closer must be closed after the CSV writer is
// flushed.
func newBOMWriter(w io.Writer) (*csv.Writer, io.Closer) {
	tw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	return csv.NewWriter(tw), tw
}

// WritePartitionCSV writes contacts to w as UTF-8 CSV with a BOM.
func WritePartitionCSV(w io.Writer, contacts []domain.ReminderContact) error {
	cw, closer := newBOMWriter(w)

	records := make([][]string, 0, len(contacts)+1)
	records = append(records, partitionHeader)
	for _, c := range contacts {
		records = append(records, []string{c.FirstName, c.Phone, c.DateNumeric, c.DateLong, c.Time, c.Doctor, c.Location})
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write partition csv: %w", err)
	}
	return closer.Close()
}

// WritePartitionFiles writes one CSV per non-empty partition into dir and
// returns the paths written, in partition order.
func WritePartitionFiles(dir string, partitions []domain.Partition, target time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	for _, p := range partitions {
		if len(p.Contacts) == 0 {
			continue
		}
		path := filepath.Join(dir, PartitionFileName(p.Name, target))
		if err := writeFile(path, func(w io.Writer) error {
			return WritePartitionCSV(w, p.Contacts)
		}); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteAudit writes every evaluated row with its joined reference data, the
// five check results and the final Usar flag, as UTF-8 CSV with a BOM.
func WriteAudit(w io.Writer, evals []eligibility.Evaluation, cols Columns) error {
	cw, closer := newBOMWriter(w)

	header := append(cols.names(),
		"Nombre Profesional", "Direccion Centro",
		"Verif1_Agenda", "Verif2_Acto", "Verif3_Centro", "Verif4_Repetido", "Verif5_Mañana", "Usar",
		"Telefono Normalizado", "Fila")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write audit header: %w", err)
	}

	for _, e := range evals {
		r, v := e.Row, e.Verdict
		rec := []string{
			r.PatientName, r.Phone, r.StatusCode, r.ProcedureID, r.SiteID, r.DoctorCode, r.ScheduledStart,
			e.DoctorName, e.SiteAddress,
			yesNo(v.StatusEligible), yesNo(v.ProcedureEligible), yesNo(v.SiteEligible),
			yesNo(v.NotDuplicate), yesNo(v.TargetDateMatch), yesNo(v.Use),
			e.Phone, strconv.Itoa(r.Index),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write audit row %d: %w", r.Index, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write audit: %w", err)
	}
	return closer.Close()
}

// WriteAuditFile writes the audit table to path.
func WriteAuditFile(path string, evals []eligibility.Evaluation, cols Columns) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create audit dir: %w", err)
		}
	}
	return writeFile(path, func(w io.Writer) error {
		return WriteAudit(w, evals, cols)
	})
}

func yesNo(b bool) string {
	if b {
		return "Si"
	}
	return "No"
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
