package selection

import (
	"strings"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

// ViewMode tells the chrome how to render the account selector.
type ViewMode string

const (
	ViewNone   ViewMode = "none"
	ViewStatic ViewMode = "static"
	ViewPicker ViewMode = "picker"
)

// NoAccountMessage is shown when there is nothing to choose from.
const NoAccountMessage = "No account configured"

// Selector describes the account selector for the current options.
type Selector struct {
	Mode    ViewMode `json:"mode"`
	Label   string   `json:"label,omitempty"`
	Message string   `json:"message,omitempty"`
	Value   string   `json:"value,omitempty"`
	Options []string `json:"options,omitempty"`
}

// Options builds the selectable labels. Site labels are preferred, with
// "Amazon <slug>" standing in for a blank label; without sites the given
// fallback accounts are used. Labels that differ only by case or whitespace
// count as duplicates; the first one seen is kept. Blanks are dropped.
func Options(sites []domain.UserSite, fallback []string) []string {
	labels := fallback
	if len(sites) > 0 {
		labels = make([]string, 0, len(sites))
		for _, site := range sites {
			label := site.Label
			if strings.TrimSpace(label) == "" && strings.TrimSpace(site.SiteSlug) != "" {
				label = "Amazon " + strings.TrimSpace(site.SiteSlug)
			}
			labels = append(labels, label)
		}
	}

	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		key := normalize(label)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
	}
	return out
}

// View degrades the selector: no options gives a static message, a single
// option a non-interactive label, more options a picker.
func View(options []string, current string) Selector {
	switch len(options) {
	case 0:
		return Selector{Mode: ViewNone, Message: NoAccountMessage}
	case 1:
		return Selector{Mode: ViewStatic, Label: options[0], Value: options[0]}
	default:
		value := options[0]
		for _, opt := range options {
			if normalize(opt) == normalize(current) {
				value = opt
				break
			}
		}
		return Selector{Mode: ViewPicker, Value: value, Options: options}
	}
}

// Contains reports whether label matches one of the options.
func Contains(options []string, label string) bool {
	key := normalize(label)
	if key == "" {
		return false
	}
	for _, opt := range options {
		if normalize(opt) == key {
			return true
		}
	}
	return false
}

// DefaultLabel picks the starting selection: the site flagged as default,
// else the first option, else the fallback label.
func DefaultLabel(sites []domain.UserSite, options []string) string {
	for _, site := range sites {
		if site.IsDefault && strings.TrimSpace(site.Label) != "" {
			return strings.TrimSpace(site.Label)
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return domain.FallbackAccountLabel
}

// ResolveSiteCode maps a label to the site code used for dependent fetches.
// An exact match against the site list wins; only without one is the code
// taken from the label's last whitespace-separated token, which is unreliable
// for multi-word site names.
func ResolveSiteCode(label string, sites []domain.UserSite) (code string, matched bool) {
	key := normalize(label)
	if key == "" {
		return "", false
	}
	for _, site := range sites {
		if normalize(site.Label) == key && strings.TrimSpace(site.SiteSlug) != "" {
			return strings.TrimSpace(site.SiteSlug), true
		}
	}
	fields := strings.Fields(label)
	return fields[len(fields)-1], false
}

func normalize(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}
