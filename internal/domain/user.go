package domain

import (
	"encoding/json"
	"strings"
)

// Identity is what the backend reports for the signed-in user.
type Identity struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
}

// Profile holds the extended profile fields of a user.
type Profile struct {
	FirstName     *string    `json:"first_name"`
	LastName      *string    `json:"last_name"`
	JobTitle      *string    `json:"job_title"`
	AmazonSite    *string    `json:"amazon_site"`
	OtherAccounts StringList `json:"other_accounts"`
}

// Accounts lists the account labels a profile carries, other accounts first,
// then the primary site.
func (p *Profile) Accounts() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.OtherAccounts)+1)
	out = append(out, p.OtherAccounts...)
	if site := deref(p.AmazonSite); site != "" {
		out = append(out, site)
	}
	return out
}

// DisplayName picks "First Last", else the email local part, else "User".
func DisplayName(p *Profile, identity *Identity) string {
	if p != nil {
		parts := make([]string, 0, 2)
		for _, v := range []string{deref(p.FirstName), deref(p.LastName)} {
			if v != "" {
				parts = append(parts, v)
			}
		}
		if full := strings.TrimSpace(strings.Join(parts, " ")); full != "" {
			return full
		}
	}
	if identity != nil && identity.Email != "" {
		if local, _, ok := strings.Cut(identity.Email, "@"); ok && local != "" {
			return local
		}
		return identity.Email
	}
	return "User"
}

// StringList decodes either a JSON array of strings, a JSON-encoded array
// stored as a string, or a comma separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*l = cleanList(items)
		return nil
	}

	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*l = nil
		return nil
	}
	text := strings.TrimSpace(*raw)
	if strings.HasPrefix(text, "[") {
		if err := json.Unmarshal([]byte(text), &items); err == nil {
			*l = cleanList(items)
			return nil
		}
	}
	*l = SplitList(text)
	return nil
}

// SplitList turns "a, b,,c" into [a b c].
func SplitList(raw string) []string {
	return cleanList(strings.Split(raw, ","))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
