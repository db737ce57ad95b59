package duty

import (
	"time"

	"github.com/trezcool/darasa/core"
)

// Key is the natural key of a Record.
type Key struct {
	CohortID string
	Date     time.Time // canonical UTC midnight
}

func NewKey(cohortID string, date time.Time) Key {
	return Key{CohortID: cohortID, Date: core.Midnight(date)}
}

func (k Key) String() string {
	return k.CohortID + "|" + core.FormatDate(k.Date)
}

// Record is the set of students on duty for a cohort on a date.
type Record struct {
	CohortID    string    `json:"cohort_id"`
	Date        time.Time `json:"date"`
	AssigneeIDs []string  `json:"assignee_ids"` // sorted, distinct, never empty
	AssignedBy  string    `json:"assigned_by"`
	UpdatedAt   time.Time `json:"updated_at"`

	// read-only labels, in AssigneeIDs order
	AssigneeNames []string `json:"assignee_names,omitempty"`
}

func (r Record) Key() Key {
	return NewKey(r.CohortID, r.Date)
}

// Has reports whether studentID is on duty.
func (r Record) Has(studentID string) bool {
	for _, id := range r.AssigneeIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
