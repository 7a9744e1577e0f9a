package model

import (
	"time"

	"github.com/lib/pq"
)

type JobseekerProfile struct {
	ID        string         `db:"id" json:"id"`
	AccountID string         `db:"account_id" json:"accountId"`
	FirstName string         `db:"first_name" json:"firstName"`
	LastName  string         `db:"last_name" json:"lastName"`
	Phone     *string        `db:"phone" json:"phone,omitempty"`
	Headline  *string        `db:"headline" json:"headline,omitempty"`
	Skills    pq.StringArray `db:"skills" json:"skills"`
	Location  *string        `db:"location" json:"location,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}

type CreateJobseekerProfileParams struct {
	AccountID string
	FirstName string
	LastName  string
	Phone     *string
	Headline  *string
	Skills    []string
	Location  *string
}

type CompanyProfile struct {
	ID          string    `db:"id" json:"id"`
	AccountID   string    `db:"account_id" json:"accountId"`
	CompanyName string    `db:"company_name" json:"companyName"`
	Website     *string   `db:"website" json:"website,omitempty"`
	Industry    *string   `db:"industry" json:"industry,omitempty"`
	Size        *string   `db:"size" json:"size,omitempty"`
	Location    *string   `db:"location" json:"location,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateCompanyProfileParams struct {
	AccountID   string
	CompanyName string
	Website     *string
	Industry    *string
	Size        *string
	Location    *string
	Description *string
}
