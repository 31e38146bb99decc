package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

func TestShowAppliesDefaults(t *testing.T) {
	center := NewCenter(0)
	id := center.Show("sid", Request{Text: " hello "})

	groups := center.List("sid")
	require.Len(t, groups, 1)
	require.Equal(t, domain.TopRight, groups[0].Position)
	toast := groups[0].Toasts[0]
	require.Equal(t, id, toast.ID)
	require.Equal(t, domain.ToastInfo, toast.Kind)
	require.Equal(t, "hello", toast.Text)
	require.Equal(t, DefaultTTL, toast.ExpiresAt.Sub(toast.CreatedAt))
}

func TestListGroupsPerPositionNewestFirst(t *testing.T) {
	center := NewCenter(time.Minute)
	first := center.Show("sid", Request{Text: "one", Position: domain.TopRight})
	bottom := center.Show("sid", Request{Text: "two", Position: domain.BottomCenter})
	third := center.Show("sid", Request{Text: "three", Position: domain.TopRight})
	center.Show("other", Request{Text: "elsewhere"})

	groups := center.List("sid")
	require.Len(t, groups, 2)
	require.Equal(t, domain.TopRight, groups[0].Position)
	require.Equal(t, []string{third, first}, ids(groups[0].Toasts))
	require.Equal(t, domain.BottomCenter, groups[1].Position)
	require.Equal(t, []string{bottom}, ids(groups[1].Toasts))
}

func TestAutoDismissAfterTTL(t *testing.T) {
	center := NewCenter(time.Minute)
	center.Show("sid", Request{Text: "short", TTL: 20 * time.Millisecond})
	keep := center.Show("sid", Request{Text: "long"})

	require.Eventually(t, func() bool {
		groups := center.List("sid")
		return len(groups) == 1 && len(groups[0].Toasts) == 1 && groups[0].Toasts[0].ID == keep
	}, time.Second, 5*time.Millisecond)
}

func TestManualDismiss(t *testing.T) {
	center := NewCenter(time.Minute)
	id := center.Show("sid", Request{Kind: domain.ToastError, Text: "boom"})

	require.True(t, center.Dismiss("sid", id))
	require.False(t, center.Dismiss("sid", id))
	require.Empty(t, center.List("sid"))
}

func TestClear(t *testing.T) {
	center := NewCenter(time.Minute)
	center.Show("sid", Request{Text: "a"})
	center.Show("sid", Request{Text: "b", Position: domain.BottomLeft})

	center.Clear("sid")
	require.Empty(t, center.List("sid"))
}

func ids(toasts []domain.Toast) []string {
	out := make([]string, 0, len(toasts))
	for _, t := range toasts {
		out = append(out, t.ID)
	}
	return out
}
