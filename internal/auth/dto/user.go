package dto

// UserOutput is the public view of a user. It never carries the
// password hash.
type UserOutput struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
