package models

// UserCreate is the body of POST /users/.
type UserCreate struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is the public view of an account.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}
