package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/selection"
	"github.com/spec-kit/portal-gateway/internal/upstream"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util/errorutil"
)

// PortalAPI is the part of the backend the dashboard reads and writes.
type PortalAPI interface {
	Me(ctx context.Context, token string) (*domain.Identity, error)
	Profile(ctx context.Context, token string) (*domain.Profile, error)
	Sites(ctx context.Context, token string) ([]domain.UserSite, error)
	UpdateDefaultSite(ctx context.Context, token, site string) error
}

// MetricsAPI fetches the dashboard metrics of one site.
type MetricsAPI interface {
	Fetch(ctx context.Context, siteCode string) (*domain.DashboardPayload, error)
}

const (
	msgMetricsUnavailable = "Dashboard data is temporarily unavailable. Please try again later."
	msgMetricsNotFound    = "No dashboard data was found for this site."
	msgMetricsForbidden   = "You are not authorized to view this site's dashboard."
	msgMetricsNetwork     = "Could not reach the dashboard service. Check your connection and try again."
	msgSiteSaveFailed     = "Could not save your default site. Check your connection and try again."
)

// Dashboard is everything the dashboard page renders.
type Dashboard struct {
	DisplayName  string                  `json:"displayName"`
	JobTitle     string                  `json:"jobTitle,omitempty"`
	Email        string                  `json:"email,omitempty"`
	Sites        []domain.UserSite       `json:"sites"`
	Selection    domain.Selection        `json:"selection"`
	Selector     selection.Selector      `json:"selector"`
	SiteCode     string                  `json:"siteCode"`
	Metrics      domain.DashboardPayload `json:"metrics"`
	MetricsError string                  `json:"metricsError,omitempty"`
}

// SelectResult is the outcome of an account switch. The selection itself
// always sticks; Persisted and MetricsError tell what else went wrong.
type SelectResult struct {
	Selection    domain.Selection        `json:"selection"`
	Selector     selection.Selector      `json:"selector"`
	SiteCode     string                  `json:"siteCode"`
	Persisted    bool                    `json:"persisted"`
	Metrics      domain.DashboardPayload `json:"metrics"`
	MetricsError string                  `json:"metricsError,omitempty"`
	Message      string                  `json:"message"`
}

// DashboardService loads the dashboard and runs account switches.
type DashboardService struct {
	api       PortalAPI
	metrics   MetricsAPI
	selection *selection.State
	notices   *NotificationService
	logger    *zap.Logger
}

// DashboardDependencies encapsulates collaborators of the dashboard service.
type DashboardDependencies struct {
	API       PortalAPI
	Metrics   MetricsAPI
	Selection *selection.State
	Notices   *NotificationService
	Logger    *zap.Logger
}

// NewDashboardService builds the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		api:       deps.API,
		metrics:   deps.Metrics,
		selection: deps.Selection,
		notices:   deps.Notices,
		logger:    logger,
	}
}

type userContext struct {
	identity *domain.Identity
	profile  *domain.Profile
	sites    []domain.UserSite
}

// Load fetches identity, profile and sites, settles the selection and
// fetches the metrics of the selected site. Only a failing session store is
// an error; everything the backend fails to provide degrades to defaults.
func (s *DashboardService) Load(ctx context.Context, principal *auth.Principal) (*Dashboard, error) {
	uc, err := s.fetchUserContext(ctx, principal)
	if err != nil {
		return nil, err
	}

	name := domain.DisplayName(uc.profile, uc.identity)
	options := selection.Options(uc.sites, uc.profile.Accounts())

	current, err := s.selection.Get(ctx, principal.SessionID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	label := current.Label
	if !selection.Contains(options, label) {
		label = selection.DefaultLabel(uc.sites, options)
	}
	if label != current.Label || name != current.DisplayName {
		if err := s.selection.Set(ctx, principal.SessionID, label, name); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}

	code, _ := selection.ResolveSiteCode(label, uc.sites)
	metrics, metricsErr := s.fetchMetrics(ctx, principal.SessionID, code)

	dash := &Dashboard{
		DisplayName:  name,
		Sites:        nonNilSites(uc.sites),
		Selection:    domain.Selection{Label: label, DisplayName: name},
		Selector:     selection.View(options, label),
		SiteCode:     code,
		Metrics:      metrics,
		MetricsError: metricsErr,
	}
	if uc.profile != nil && uc.profile.JobTitle != nil {
		dash.JobTitle = strings.TrimSpace(*uc.profile.JobTitle)
	}
	if uc.identity != nil {
		dash.Email = uc.identity.Email
	}
	return dash, nil
}

// SelectAccount switches the session to label. A label that matches none
// of the known sites is rejected before anything is written. The steps run
// in order: the selection is set and broadcast first and is never rolled back; the
// site code is resolved; the new default is saved upstream; the site list
// is refreshed and the metrics refetched; finally a toast reports the
// outcome.
func (s *DashboardService) SelectAccount(ctx context.Context, principal *auth.Principal, label string) (*SelectResult, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"label": "This field is required"})
	}
	sid := principal.SessionID

	sites := s.sitesBestEffort(ctx, principal.Token)
	if options := selection.Options(sites, nil); len(options) > 0 && !selection.Contains(options, label) {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{"label": "Unknown account"})
	}

	if err := s.selection.Set(ctx, sid, label, ""); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	code, matched := selection.ResolveSiteCode(label, sites)
	if !matched {
		s.logger.Info("site code derived from label", zap.String("label", label), zap.String("site_code", code))
	}

	result := &SelectResult{SiteCode: code, Persisted: true}

	var failure string
	if err := s.api.UpdateDefaultSite(ctx, principal.Token, label); err != nil {
		s.logger.Warn("persist default site failed", zap.Error(err))
		result.Persisted = false
		failure = upstream.MessageOf(err)
		if failure == "" {
			failure = msgSiteSaveFailed
		}
	}

	if refreshed, err := s.api.Sites(ctx, principal.Token); err != nil {
		s.logger.Warn("refresh site list failed", zap.Error(err))
	} else {
		sites = refreshed
	}

	result.Metrics, result.MetricsError = s.loadMetrics(ctx, code)

	current, err := s.selection.Get(ctx, sid)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	result.Selection = domain.Selection{Label: label, DisplayName: current.DisplayName}
	result.Selector = selection.View(selection.Options(sites, []string{label}), label)

	switch {
	case failure != "":
		result.Message = failure
		s.notices.Error(sid, failure)
	case result.MetricsError != "":
		result.Message = result.MetricsError
		s.notices.Error(sid, result.MetricsError)
	default:
		result.Message = fmt.Sprintf("Switched to %s.", label)
		s.notices.Success(sid, result.Message)
	}
	return result, nil
}

// Chrome returns what the navigation chrome needs: the stored selection
// and the account selector built from the current site list. It never
// changes the selection.
func (s *DashboardService) Chrome(ctx context.Context, principal *auth.Principal) (domain.Selection, selection.Selector, error) {
	current, err := s.selection.Get(ctx, principal.SessionID)
	if err != nil {
		return domain.Selection{}, selection.Selector{}, apperrors.NewInternalError(err)
	}
	var fallback []string
	if current.Label != "" {
		fallback = []string{current.Label}
	}
	options := selection.Options(s.sitesBestEffort(ctx, principal.Token), fallback)
	return current, selection.View(options, current.Label), nil
}

func (s *DashboardService) fetchUserContext(ctx context.Context, principal *auth.Principal) (*userContext, error) {
	uc := &userContext{identity: principal.Identity}
	if uc.identity == nil {
		identity, err := s.api.Me(ctx, principal.Token)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperrors.NewUnavailable("request cancelled", ctx.Err())
			}
			s.logger.Warn("fetch identity failed", zap.Error(err))
		}
		uc.identity = identity
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile, err := s.api.Profile(gctx, principal.Token)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if upstream.StatusOf(err) != http.StatusNotFound {
				s.logger.Warn("fetch profile failed", zap.Error(err))
			}
			return nil
		}
		uc.profile = profile
		return nil
	})
	g.Go(func() error {
		sites, err := s.api.Sites(gctx, principal.Token)
		if err != nil {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			s.logger.Warn("fetch sites failed", zap.Error(err))
			return nil
		}
		uc.sites = sites
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewUnavailable("request cancelled", err)
	}
	return uc, nil
}

func (s *DashboardService) sitesBestEffort(ctx context.Context, token string) []domain.UserSite {
	sites, err := s.api.Sites(ctx, token)
	if err != nil {
		s.logger.Warn("fetch sites failed", zap.Error(err))
		return nil
	}
	return sites
}

// fetchMetrics loads metrics and raises an error toast on failure.
func (s *DashboardService) fetchMetrics(ctx context.Context, sid, code string) (domain.DashboardPayload, string) {
	metrics, failure := s.loadMetrics(ctx, code)
	if failure != "" {
		s.notices.Error(sid, failure)
	}
	return metrics, failure
}

// loadMetrics returns the metrics of code, or zeros and a message.
func (s *DashboardService) loadMetrics(ctx context.Context, code string) (domain.DashboardPayload, string) {
	payload, err := s.metrics.Fetch(ctx, code)
	if err != nil {
		s.logger.Warn("fetch dashboard metrics failed", zap.String("site_code", code), zap.Error(err))
		return domain.ZeroDashboard(), ClassifyMetricsError(err)
	}
	return *payload, ""
}

// ClassifyMetricsError maps a metrics fetch failure to the message shown.
func ClassifyMetricsError(err error) string {
	switch upstream.StatusOf(err) {
	case http.StatusInternalServerError:
		return msgMetricsUnavailable
	case http.StatusNotFound:
		return msgMetricsNotFound
	case http.StatusForbidden:
		return msgMetricsForbidden
	}
	return msgMetricsNetwork
}

func nonNilSites(sites []domain.UserSite) []domain.UserSite {
	if sites == nil {
		return []domain.UserSite{}
	}
	return sites
}
