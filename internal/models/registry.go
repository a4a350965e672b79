package models

import (
	"time"

	"github.com/lib/pq"
)

type RegistryKind string

const (
	SavedRegistry   RegistryKind = "saved"
	AppliedRegistry RegistryKind = "applied"
)

// Registry is the per-user ordered list of job ids behind SavedJobs and AppliedJobs.
type Registry struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user"`
	Jobs      pq.StringArray `db:"jobs" json:"jobs"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

func (r *Registry) Contains(jobID string) bool {
	for _, id := range r.Jobs {
		if id == jobID {
			return true
		}
	}
	return false
}

// Without returns the job ids with jobID filtered out.
func (r *Registry) Without(jobID string) []string {
	out := make([]string, 0, len(r.Jobs))
	for _, id := range r.Jobs {
		if id != jobID {
			out = append(out, id)
		}
	}
	return out
}

// PopulatedRegistry carries full job documents instead of ids.
type PopulatedRegistry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Jobs      []Job     `json:"jobs"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ApplicantInfo struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
}

type Applicant struct {
	ApplicationID string        `json:"applicationId"`
	Applicant     ApplicantInfo `json:"applicant"`
	AppliedAt     time.Time     `json:"appliedAt"`
}

// ApplicantRow is the flat join of an applied list with its owner.
type ApplicantRow struct {
	RegistryID string    `db:"registry_id"`
	UserID     string    `db:"user_id"`
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	Email      string    `db:"email"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type ApplicantsResult struct {
	Applicants []Applicant `json:"applicants"`
	Job        JobSummary  `json:"job"`
	Count      int         `json:"count"`
}

type JobSummary struct {
	ID        string   `json:"id"`
	Role      string   `json:"role"`
	Company   string   `json:"company"`
	Locations []string `json:"locations"`
}
