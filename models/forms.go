package models

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,max=320,email"`
	Password string `json:"password" validate:"required,min=8,max=25"`
}

type SignupInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,max=320,email"`
	Password  string `json:"password" validate:"required,min=8,max=25"`
}

// ProfileInput is the profile form. The new password fields only apply when
// ChangePassword is set.
type ProfileInput struct {
	FirstName            string `json:"first_name" validate:"required,max=50"`
	LastName             string `json:"last_name" validate:"required,max=50"`
	Email                string `json:"email" validate:"required,max=320,email"`
	CurrentPassword      string `json:"current_password" validate:"required"`
	ChangePassword       bool   `json:"change_password"`
	Password             string `json:"password" validate:"required_if=ChangePassword true,omitempty,min=8,max=25"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required_if=ChangePassword true,eqfield=Password"`
}
