package models

import (
	"encoding/json"
	"strings"
	"time"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleEmployer Role = "employer"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleEmployer
}

type User struct {
	ID                string     `db:"id" json:"id"`
	Email             string     `db:"email" json:"email"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	Role              Role       `db:"role" json:"type"`
	FirstName         string     `db:"first_name" json:"firstName"`
	LastName          string     `db:"last_name" json:"lastName"`
	Company           *string    `db:"company" json:"company,omitempty"`
	SavedJobsID       *string    `db:"saved_jobs_id" json:"savedJobsId"`
	AppliedJobsID     *string    `db:"applied_jobs_id" json:"appliedJobsId"`
	PasswordChangedAt *time.Time `db:"password_changed_at" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// RegistryID returns the id the user points at for the given list, if any.
func (u *User) RegistryID(kind RegistryKind) *string {
	if kind == AppliedRegistry {
		return u.AppliedJobsID
	}
	return u.SavedJobsID
}

func (u *User) SetRegistryID(kind RegistryKind, id string) {
	if kind == AppliedRegistry {
		u.AppliedJobsID = &id
		return
	}
	u.SavedJobsID = &id
}

func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		FullName string `json:"fullName"`
	}{
		alias:    alias(u),
		FullName: u.FullName(),
	})
}

type UserStats struct {
	SavedJobs   *int `json:"savedJobs,omitempty"`
	AppliedJobs *int `json:"appliedJobs,omitempty"`
	ActiveJobs  *int `json:"activeJobs,omitempty"`
	Applicants  *int `json:"applicants,omitempty"`
}
