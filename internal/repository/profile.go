package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/careerdesk/portal-server-go/internal/model"
)

type JobseekerProfileRepository interface {
	FindByAccountID(ctx context.Context, accountID string) (*model.JobseekerProfile, error)
	Create(ctx context.Context, params model.CreateJobseekerProfileParams) (*model.JobseekerProfile, error)
}

type jobseekerProfileRepo struct {
	db *sqlx.DB
}

func NewJobseekerProfileRepository(db *sqlx.DB) JobseekerProfileRepository {
	return &jobseekerProfileRepo{db: db}
}

func (r *jobseekerProfileRepo) FindByAccountID(ctx context.Context, accountID string) (*model.JobseekerProfile, error) {
	var profile model.JobseekerProfile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM jobseeker_profiles WHERE account_id = $1
	`, accountID)
	return HandleNotFound(&profile, err)
}

func (r *jobseekerProfileRepo) Create(ctx context.Context, params model.CreateJobseekerProfileParams) (*model.JobseekerProfile, error) {
	var profile model.JobseekerProfile
	err := r.db.GetContext(ctx, &profile, `
		INSERT INTO jobseeker_profiles (account_id, first_name, last_name, phone, headline, skills, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.AccountID, params.FirstName, params.LastName, params.Phone,
		params.Headline, pq.Array(params.Skills), params.Location)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

type CompanyProfileRepository interface {
	FindByAccountID(ctx context.Context, accountID string) (*model.CompanyProfile, error)
	Create(ctx context.Context, params model.CreateCompanyProfileParams) (*model.CompanyProfile, error)
}

type companyProfileRepo struct {
	db *sqlx.DB
}

func NewCompanyProfileRepository(db *sqlx.DB) CompanyProfileRepository {
	return &companyProfileRepo{db: db}
}

func (r *companyProfileRepo) FindByAccountID(ctx context.Context, accountID string) (*model.CompanyProfile, error) {
	var profile model.CompanyProfile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM company_profiles WHERE account_id = $1
	`, accountID)
	return HandleNotFound(&profile, err)
}

func (r *companyProfileRepo) Create(ctx context.Context, params model.CreateCompanyProfileParams) (*model.CompanyProfile, error) {
	var profile model.CompanyProfile
	err := r.db.GetContext(ctx, &profile, `
		INSERT INTO company_profiles (account_id, company_name, website, industry, size, location, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.AccountID, params.CompanyName, params.Website, params.Industry,
		params.Size, params.Location, params.Description)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
