package dto

import "github.com/spec-kit/portal-gateway/internal/service"

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Form() service.LoginForm {
	return service.LoginForm{Email: r.Email, Password: r.Password}
}

// SignupRequest payload for new users.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignupRequest) Form() service.SignupForm {
	return service.SignupForm{Email: r.Email, Password: r.Password}
}

// CheckMemberRequest payload; Token is the optional setup link token.
type CheckMemberRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (r CheckMemberRequest) Form() service.CheckMemberForm {
	return service.CheckMemberForm{Email: r.Email, Token: r.Token}
}

// EmailRequest carries a single email address.
type EmailRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest payload; the email comes from the session.
type ResetPasswordRequest struct {
	Code     string `json:"code"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func (r ResetPasswordRequest) Form() service.ResetPasswordForm {
	return service.ResetPasswordForm{Code: r.Code, Password: r.Password, Confirm: r.Confirm}
}

// VerifyEmailRequest carries the token of a verification link.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// SetupProfileRequest payload. OtherAccounts is comma separated.
type SetupProfileRequest struct {
	Token         string `json:"token"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	JobTitle      string `json:"job_title"`
	AmazonSite    string `json:"amazon_site"`
	OtherAccounts string `json:"other_accounts"`
}

func (r SetupProfileRequest) Form() service.SetupProfileForm {
	return service.SetupProfileForm{
		Token:         r.Token,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		JobTitle:      r.JobTitle,
		AmazonSite:    r.AmazonSite,
		OtherAccounts: r.OtherAccounts,
	}
}

// StatusResponse is the body of auth calls that only report an outcome.
type StatusResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}
