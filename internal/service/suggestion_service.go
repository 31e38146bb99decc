package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/debounce"
	apperrors "github.com/spec-kit/portal-gateway/pkg/util/errorutil"
)

// SuggestAPI looks up site names.
type SuggestAPI interface {
	Suggest(ctx context.Context, q string) ([]string, error)
}

// ErrSuggestionSuperseded is returned when a newer query of the same session
// replaced this one.
var ErrSuggestionSuperseded = apperrors.NewDomainError(apperrors.CodeSuperseded, "superseded by a newer query", http.StatusConflict, nil)

// SuggestionService serves debounced site-name autocompletion.
type SuggestionService struct {
	api       SuggestAPI
	debouncer *debounce.Debouncer
	minChars  int
	logger    *zap.Logger
}

// NewSuggestionService builds the service.
func NewSuggestionService(cfg config.SuggestConfig, api SuggestAPI, logger *zap.Logger) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	minChars := cfg.MinChars
	if minChars < 1 {
		minChars = 1
	}
	return &SuggestionService{
		api:       api,
		debouncer: debounce.New(cfg.Debounce()),
		minChars:  minChars,
		logger:    logger,
	}
}

// Suggest returns the names matching q, at most one lookup in flight per
// session. Short queries and upstream failures yield an empty list.
func (s *SuggestionService) Suggest(ctx context.Context, sid, q string) ([]string, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < s.minChars {
		return []string{}, nil
	}

	items := []string{}
	err := s.debouncer.Do(ctx, sid, func(ctx context.Context) error {
		found, err := s.api.Suggest(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("suggestion lookup failed", zap.String("q", q), zap.Error(err))
			return nil
		}
		for _, item := range found {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return nil
	})
	if errors.Is(err, debounce.ErrSuperseded) {
		return nil, ErrSuggestionSuperseded
	}
	if err != nil {
		return nil, apperrors.NewUnavailable("request cancelled", err)
	}
	return items, nil
}
