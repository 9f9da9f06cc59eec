// Package reminder builds the reminder set stored with an application.
//
// Reconciliation is replace-all: the stored set is discarded on every update
// and rebuilt from the caller's list, so clients must resend every reminder
// they want to keep. Reminder ids do not survive an update.
package reminder

import (
	"strings"

	"github.com/garnizeh/jobtrack/pkg/models"
)

// Input is a reminder as supplied by a caller.
type Input struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

// Reconcile keeps the inputs that have a non-blank title and a parseable
// date, in input order. Everything else is dropped without error.
func Reconcile(inputs []Input) []models.Reminder {
	out := make([]models.Reminder, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.Title) == "" || in.Date == "" {
			continue
		}
		d, err := models.ParseDate(in.Date)
		if err != nil {
			continue
		}

		out = append(out, models.Reminder{Title: in.Title, Date: d, Completed: in.Completed})
	}
	return out
}
