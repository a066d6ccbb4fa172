package http

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/hubmarket-accounts/internal/domain"
)

// AccountResponse is the public view of an account. It never carries the password digest.
type AccountResponse struct {
	ID        uuid.UUID `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	FirstName string    `json:"first_name" example:"Ada"`
	LastName  string    `json:"last_name" example:"Lovelace"`
	UserName  string    `json:"user_name" example:"ada"`
	Email     string    `json:"email" example:"ada@example.com"`
	Address   string    `json:"address" example:"12 St James's Square"`
	MobileNo  int64     `json:"mobile_no" example:"5551234"`
	Gender    string    `json:"gender" example:"female"`
	Photo     *string   `json:"photo,omitempty" example:"uploads/profile/5b1c.png"`
	IsDeleted bool      `json:"is_deleted" example:"false"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-02T09:30:00Z"`
}

// AccountEnvelope wraps an account with a status message.
type AccountEnvelope struct {
	Message string          `json:"message" example:"Login successful!"`
	User    AccountResponse `json:"user"`
}

// MessageResponse denotes a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"OTP sent to your email"`
}

// SignupRequest carries registration fields. Multipart requests may add a "photo" file.
type SignupRequest struct {
	FirstName string      `json:"first_name" form:"first_name"`
	LastName  string      `json:"last_name" form:"last_name"`
	UserName  string      `json:"user_name" form:"user_name"`
	Email     string      `json:"email" form:"email"`
	Address   string      `json:"address" form:"address"`
	MobileNo  json.Number `json:"mobile_no" form:"mobile_no"`
	Gender    string      `json:"gender" form:"gender"`
	Password  string      `json:"password" form:"password"`
}

// LoginRequest accepts either email or user_name.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	UserName string `json:"user_name" form:"user_name"`
	Password string `json:"password" form:"password"`
}

// EditUserRequest identifies the account by email and current password. Blank fields are left unchanged.
type EditUserRequest struct {
	Email           string      `json:"email" form:"email"`
	CurrentPassword string      `json:"currentpassword" form:"currentpassword"`
	Password        string      `json:"password" form:"password"`
	NewEmail        string      `json:"new_email" form:"new_email"`
	FirstName       string      `json:"first_name" form:"first_name"`
	LastName        string      `json:"last_name" form:"last_name"`
	UserName        string      `json:"user_name" form:"user_name"`
	Gender          string      `json:"gender" form:"gender"`
	MobileNo        json.Number `json:"mobile_no" form:"mobile_no"`
	Address         string      `json:"address" form:"address"`
	NewPassword     string      `json:"newpassword" form:"newpassword"`
}

// EmailRequest carries the email for forgot-password and delete flows.
type EmailRequest struct {
	Email string `json:"email" form:"email" query:"email"`
}

// ResetPasswordRequest confirms a reset with the mailed code.
type ResetPasswordRequest struct {
	Email       string `json:"email" form:"email"`
	OTP         string `json:"otp" form:"otp"`
	NewPassword string `json:"newpassword" form:"newpassword"`
}

func toAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		UserName:  a.UserName,
		Email:     a.Email,
		Address:   a.Address,
		MobileNo:  a.MobileNo,
		Gender:    a.Gender,
		Photo:     a.PhotoRef,
		IsDeleted: a.IsDeleted,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
