package eligibility

import (
	"errors"
	"fmt"
	"strings"
)

// MissingDoctor identifies a selected row whose doctor code has no mapping.
type MissingDoctor struct {
	Row        int    `json:"row"`
	DoctorCode string `json:"doctor_code"`
}

// IntegrityError reports that the reference tables cannot resolve every
// selected row. It aborts the whole run: no contact may be synchronized.
type IntegrityError struct {
	Missing []MissingDoctor
}

func (e *IntegrityError) Error() string {
	codes := make([]string, 0, len(e.Missing))
	seen := make(map[string]struct{})
	for _, m := range e.Missing {
		if _, ok := seen[m.DoctorCode]; ok {
			continue
		}
		seen[m.DoctorCode] = struct{}{}
		codes = append(codes, fmt.Sprintf("%q", m.DoctorCode))
	}
	return fmt.Sprintf("reference integrity: %d selected row(s) without doctor mapping (codes %s)",
		len(e.Missing), strings.Join(codes, ", "))
}

// IsIntegrityError reports whether err is, or wraps, an IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// CheckIntegrity verifies that every selected evaluation has a doctor display
// name. It returns an *IntegrityError listing every offending row.
func CheckIntegrity(evals []Evaluation) error {
	var missing []MissingDoctor
	for _, e := range evals {
		if e.Verdict.Use && !e.DoctorKnown {
			missing = append(missing, MissingDoctor{Row: e.Row.Index, DoctorCode: e.Row.DoctorCode})
		}
	}
	if len(missing) > 0 {
		return &IntegrityError{Missing: missing}
	}
	return nil
}
