package domain

// UserSite is one account/site a user may operate under.
type UserSite struct {
	ID        int64   `json:"id"`
	Label     string  `json:"label"`
	SiteSlug  string  `json:"site_slug"`
	IsDefault bool    `json:"is_default"`
	CreatedAt *string `json:"created_at,omitempty"`
}

// FallbackAccountLabel is used when neither sites nor profile accounts exist.
const FallbackAccountLabel = "Amazon ABQ5"

// Selection is the account/site currently active in a session.
type Selection struct {
	Label       string `json:"selectedAccount"`
	DisplayName string `json:"userDisplayName"`
}

// IsZero reports the unset sentinel.
func (s Selection) IsZero() bool {
	return s.Label == "" && s.DisplayName == ""
}
