package backend

// User is the backend's record of a portal user.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// Tenant is an organization a user belongs to.
type Tenant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Description string `json:"description,omitempty"`
}

// Label is the text shown in the tenant picker.
func (t Tenant) Label() string {
	if t.Email == "" {
		return t.Name
	}
	return t.Name + " (" + t.Email + ")"
}
