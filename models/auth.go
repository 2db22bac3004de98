// models/auth.go

package models

type SignupRequest struct {
	Email       string    `json:"email" validate:"required,email"`
	Password    string    `json:"password" validate:"required,min=8"`
	FullName    string    `json:"fullName" validate:"required"`
	Phone       string    `json:"phone,omitempty"`
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	ProfilePic  string    `json:"profilePic,omitempty"`
	Location    *Location `json:"location,omitempty"`
}

type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}
