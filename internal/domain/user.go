package domain

// User is the authenticated customer's profile as issued by the marketplace
// API. The role is immutable for the lifetime of a session.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone,omitempty"`
	Role        Role   `json:"role"`
	CompanyName string `json:"company_name,omitempty"`
	TaxID       string `json:"tax_id,omitempty"`
	IsVerified  bool   `json:"is_verified,omitempty"`
}

// TokenPair holds an access and refresh token pair as returned by the
// login, register, and refresh endpoints.
type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}
