package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	DescriptionMinLen = 200
	DescriptionMaxLen = 500
)

type Job struct {
	ID          string         `db:"id" json:"id"`
	Role        string         `db:"role" json:"role"`
	Company     string         `db:"company" json:"company"`
	Date        time.Time      `db:"date" json:"date"`
	Locations   pq.StringArray `db:"locations" json:"locations"`
	Description string         `db:"description" json:"description"`
	Remote      bool           `db:"remote" json:"remote"`
	EmployerID  string         `db:"employer_id" json:"employerId"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// JobView is a job annotated for the caller.
type JobView struct {
	Job
	IsSaved   bool `json:"isSaved"`
	IsApplied bool `json:"isApplied"`
}
