package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/debounce"
	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/selection"
	"github.com/spec-kit/portal-gateway/internal/session"
	"github.com/spec-kit/portal-gateway/internal/upstream"
	"github.com/spec-kit/portal-gateway/internal/validation"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util/errorutil"
)

// AuthAPI is the part of the backend the auth flows talk to.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, email, password string) error
	CheckMember(ctx context.Context, email, setupToken string) (*domain.MemberCheck, error)
	VerifyEmail(ctx context.Context, token string) (*domain.Verification, error)
	SetupProfile(ctx context.Context, setup domain.ProfileSetup) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	ResendVerification(ctx context.Context, email string) error
	Logout(ctx context.Context, token string) error
}

// LoginForm is the login payload.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignupForm is the signup payload. Only allowed email domains may sign up.
type SignupForm struct {
	Email    string `json:"email" validate:"required,email,email_domain"`
	Password string `json:"password" validate:"required,min=8"`
}

// CheckMemberForm asks whether an email may continue a reset or setup flow.
type CheckMemberForm struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token"`
}

// ForgotPasswordForm requests a reset code.
type ForgotPasswordForm struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordForm completes a reset with the emailed code.
type ResetPasswordForm struct {
	Code     string `json:"code" validate:"required,min=6,max=10"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"confirm" validate:"required,eqfield=Password"`
}

// VerifyEmailForm carries the token from the verification link.
type VerifyEmailForm struct {
	Token string `json:"token" validate:"required"`
}

// SetupProfileForm completes a verified account. OtherAccounts is the raw
// comma separated input.
type SetupProfileForm struct {
	Token         string `json:"token" validate:"required"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	JobTitle      string `json:"job_title"`
	AmazonSite    string `json:"amazon_site"`
	OtherAccounts string `json:"other_accounts"`
}

// ResendVerificationForm falls back to the pending email when Email is blank.
type ResendVerificationForm struct {
	Email string `json:"email" validate:"omitempty,email"`
}

const (
	msgLoginFailed         = "Login failed"
	msgSignupFailed        = "Signup failed"
	msgEmailRegistered     = "Email already registered"
	msgMemberCheckFailed   = "Could not validate email right now"
	msgResetNotAllowed     = "This email cannot request a reset. Please sign up or contact support."
	msgResetCodeSent       = "If the email exists, a reset code was sent."
	msgResetLinkFailed     = "Could not send reset link. Try again later."
	msgEmailMissing        = "Email is missing. Start from Forgot Password again."
	msgResetDone           = "Password reset successful. Please log in."
	msgResetFailed         = "Could not reset password. Check code and try again."
	msgInvalidLink         = "Invalid or expired link"
	msgProfileSaveFailed   = "Could not save profile"
	msgVerificationResent  = "If the email exists, we've sent a new link."
	msgVerificationNotSent = "Could not resend right now."
	msgSignedOut           = "Signed out."
	msgSignOutFailed       = "Could not sign out. Try again."
)

// AuthService coordinates the sign-in, sign-up and recovery flows of a
// session. Every form is validated before the backend is called.
type AuthService struct {
	api         AuthAPI
	store       session.Store
	tokens      *session.TokenStore
	selection   *selection.State
	notices     *NotificationService
	validator   *validation.Validator
	memberCheck *debounce.Debouncer
	logger      *zap.Logger
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	API       AuthAPI
	Store     session.Store
	Selection *selection.State
	Notices   *NotificationService
	Validator *validation.Validator
	Logger    *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := deps.Validator
	if v == nil {
		v = validation.New(cfg.Auth.AllowedEmailDomains)
	}
	return &AuthService{
		api:         deps.API,
		store:       deps.Store,
		tokens:      session.NewTokenStore(deps.Store),
		selection:   deps.Selection,
		notices:     deps.Notices,
		validator:   v,
		memberCheck: debounce.New(cfg.Suggest.MemberCheckDebounce()),
		logger:      logger,
	}
}

// Login exchanges credentials for a token and stores it in the session.
// The selection of a previous user is forgotten.
func (s *AuthService) Login(ctx context.Context, sid string, form LoginForm) error {
	form.Email = strings.TrimSpace(form.Email)
	if err := s.validator.Struct(form); err != nil {
		return err
	}

	token, err := s.api.Login(ctx, form.Email, form.Password)
	if err != nil {
		return upstreamFailure(err, msgLoginFailed)
	}
	if strings.TrimSpace(token) == "" {
		return apperrors.NewUpstreamError(http.StatusBadGateway, msgLoginFailed, nil)
	}

	if err := s.store.Clear(ctx, sid, session.KeySelectedAccount, session.KeyDisplayName); err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.tokens.Set(ctx, sid, token); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// Signup registers an account and remembers the email for the
// verification screen.
func (s *AuthService) Signup(ctx context.Context, sid string, form SignupForm) error {
	form.Email = strings.TrimSpace(form.Email)
	if err := s.validator.Struct(form); err != nil {
		return err
	}

	if err := s.api.Signup(ctx, form.Email, form.Password); err != nil {
		if upstream.MessageOf(err) == "" && upstream.StatusOf(err) == http.StatusConflict {
			return apperrors.NewConflict(msgEmailRegistered, nil)
		}
		return upstreamFailure(err, msgSignupFailed)
	}

	if err := s.store.Set(ctx, sid, session.KeyPendingEmail, form.Email); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// CheckMember asks the backend whether the email may request a reset. Calls
// are debounced per session; a call overtaken by a newer one fails with
// REQUEST_SUPERSEDED. Backend failures are reported as a not-allowed verdict
// rather than an error.
func (s *AuthService) CheckMember(ctx context.Context, sid string, form CheckMemberForm) (*domain.MemberCheck, error) {
	form.Email = strings.TrimSpace(form.Email)
	if form.Email == "" {
		_ = s.store.Clear(ctx, sid, session.KeyMemberAllowed)
		return &domain.MemberCheck{}, nil
	}
	if err := s.validator.Struct(form); err != nil {
		return nil, err
	}

	var verdict *domain.MemberCheck
	err := s.memberCheck.Do(ctx, sid, func(ctx context.Context) error {
		check, err := s.api.CheckMember(ctx, form.Email, NormalizeToken(form.Token))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			s.logger.Warn("member check failed", zap.Error(err))
			message := upstream.MessageOf(err)
			if message == "" {
				message = msgMemberCheckFailed
			}
			check = &domain.MemberCheck{Message: message}
		}
		verdict = check
		return nil
	})
	if err != nil {
		if errors.Is(err, debounce.ErrSuperseded) {
			return nil, apperrors.NewDomainError(apperrors.CodeSuperseded, "superseded by a newer check", http.StatusConflict, nil)
		}
		return nil, err
	}

	if verdict.Exists && verdict.Allowed {
		err = s.store.Set(ctx, sid, session.KeyMemberAllowed, strings.ToLower(form.Email))
	} else {
		err = s.store.Clear(ctx, sid, session.KeyMemberAllowed)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return verdict, nil
}

// ForgotPassword requests a reset code for an email that passed the member
// check in this session.
func (s *AuthService) ForgotPassword(ctx context.Context, sid string, form ForgotPasswordForm) error {
	form.Email = strings.TrimSpace(form.Email)
	if err := s.validator.Struct(form); err != nil {
		return err
	}

	allowed := session.Lookup(ctx, s.store, sid, session.KeyMemberAllowed)
	if allowed == "" || allowed != strings.ToLower(form.Email) {
		return apperrors.NewForbidden(msgResetNotAllowed)
	}

	if err := s.api.ForgotPassword(ctx, form.Email); err != nil {
		failure := upstreamFailure(err, msgResetLinkFailed)
		s.notices.Error(sid, apperrors.ToDomainError(failure).Message)
		return failure
	}

	if err := s.store.Set(ctx, sid, session.KeyPendingEmail, form.Email); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.notices.ShowAt(sid, domain.ToastSuccess, msgResetCodeSent, domain.BottomCenter)
	return nil
}

// ResetPassword sets a new password for the pending email and forgets it
// afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, sid string, form ResetPasswordForm) error {
	form.Code = strings.TrimSpace(form.Code)
	if err := s.validator.Struct(form); err != nil {
		return err
	}

	email := session.Lookup(ctx, s.store, sid, session.KeyPendingEmail)
	if email == "" {
		s.notices.Error(sid, msgEmailMissing)
		return apperrors.NewValidationError(msgEmailMissing, nil)
	}

	if err := s.api.ResetPassword(ctx, email, form.Code, form.Password); err != nil {
		failure := upstreamFailure(err, msgResetFailed)
		s.notices.Error(sid, apperrors.ToDomainError(failure).Message)
		return failure
	}

	if err := s.store.Clear(ctx, sid, session.KeyPendingEmail, session.KeyMemberAllowed); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.notices.Success(sid, msgResetDone)
	return nil
}

// VerifyEmail redeems the token of a verification link and returns what the
// profile setup step needs.
func (s *AuthService) VerifyEmail(ctx context.Context, form VerifyEmailForm) (*domain.Verification, error) {
	form.Token = NormalizeToken(form.Token)
	if err := s.validator.Struct(form); err != nil {
		return nil, err
	}

	verification, err := s.api.VerifyEmail(ctx, form.Token)
	if err != nil {
		return nil, upstreamFailure(err, msgInvalidLink)
	}
	if verification.SetupToken == "" {
		verification.SetupToken = form.Token
	}
	return verification, nil
}

// SetupProfile stores the profile of a freshly verified account.
func (s *AuthService) SetupProfile(ctx context.Context, sid string, form SetupProfileForm) error {
	if err := s.validator.Struct(form); err != nil {
		return err
	}

	setup := domain.ProfileSetup{
		Token:         strings.TrimSpace(form.Token),
		FirstName:     strings.TrimSpace(form.FirstName),
		LastName:      strings.TrimSpace(form.LastName),
		JobTitle:      strings.TrimSpace(form.JobTitle),
		AmazonSite:    strings.TrimSpace(form.AmazonSite),
		OtherAccounts: domain.SplitList(form.OtherAccounts),
	}
	if err := s.api.SetupProfile(ctx, setup); err != nil {
		return upstreamFailure(err, msgProfileSaveFailed)
	}

	if err := s.store.Clear(ctx, sid, session.KeyPendingEmail); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// ResendVerification mails a new verification link. The outcome is only
// reported as a note; it never fails the request.
func (s *AuthService) ResendVerification(ctx context.Context, sid string, form ResendVerificationForm) (string, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := s.validator.Struct(form); err != nil {
		return "", err
	}
	email := form.Email
	if email == "" {
		email = session.Lookup(ctx, s.store, sid, session.KeyPendingEmail)
	}
	if email == "" {
		return msgVerificationNotSent, nil
	}

	if err := s.api.ResendVerification(ctx, email); err != nil {
		s.logger.Warn("resend verification failed", zap.Error(err))
		return msgVerificationNotSent, nil
	}
	return msgVerificationResent, nil
}

// Logout ends the backend session on a best-effort basis and always clears
// the local credential, the pending email and open selection streams.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	token, ok, err := s.tokens.Get(ctx, sid)
	if err != nil {
		s.logger.Warn("load token for logout", zap.Error(err))
	}

	var remoteErr error
	if ok {
		if remoteErr = s.api.Logout(ctx, token); remoteErr != nil {
			s.logger.Warn("logout request failed", zap.Error(remoteErr))
		}
	}

	clearErr := s.store.Clear(ctx, sid, session.KeyToken, session.KeyPendingEmail, session.KeyMemberAllowed)
	if clearErr != nil {
		s.logger.Error("clear session on logout", zap.Error(clearErr))
		s.notices.Error(sid, msgSignOutFailed)
		return apperrors.NewInternalError(clearErr)
	}

	if s.selection != nil {
		if err := s.selection.End(ctx, sid); err != nil {
			s.logger.Warn("announce session end", zap.Error(err))
		}
	}
	s.notices.Success(sid, msgSignedOut)
	return nil
}

// NormalizeToken repairs tokens mangled by mail clients: it URL decodes,
// trims, then turns inner spaces back into "+".
func NormalizeToken(raw string) string {
	token := raw
	if decoded, err := url.PathUnescape(raw); err == nil {
		token = decoded
	}
	return strings.ReplaceAll(strings.TrimSpace(token), " ", "+")
}

// upstreamFailure turns a backend error into a DomainError, preferring the
// server's own message over fallback.
func upstreamFailure(err error, fallback string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewUnavailable(fallback, err)
	}
	message := upstream.MessageOf(err)
	if message == "" {
		message = fallback
	}
	if status := upstream.StatusOf(err); status != 0 {
		return apperrors.NewUpstreamError(status, message, err)
	}
	return apperrors.NewUnavailable(message, err)
}
