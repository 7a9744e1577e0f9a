package model

type Role string

const (
	RoleJobseeker Role = "jobseeker"
	RoleCompany   Role = "company"
)

func (r Role) Valid() bool {
	return r == RoleJobseeker || r == RoleCompany
}

// MailTemplate selects the transactional email body the mailer renders.
type MailTemplate string

const (
	MailTemplateVerifyEmail MailTemplate = "verify_email"
	MailTemplateResetCode   MailTemplate = "reset_code"
	MailTemplateWelcome     MailTemplate = "welcome"
)
