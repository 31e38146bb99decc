package domain

// MemberCheck is the verdict of a check-member lookup.
type MemberCheck struct {
	Exists  bool   `json:"exists"`
	Allowed bool   `json:"allowed"`
	Message string `json:"message"`
}

// Verification is returned after an email verification link is accepted.
type Verification struct {
	Email      string `json:"email"`
	SetupToken string `json:"setup_token"`
	Message    string `json:"message,omitempty"`
}

// ProfileSetup completes a profile after email verification.
type ProfileSetup struct {
	Token         string   `json:"token"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	JobTitle      string   `json:"job_title"`
	AmazonSite    string   `json:"amazon_site"`
	OtherAccounts []string `json:"other_accounts"`
}
