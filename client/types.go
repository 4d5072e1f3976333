package client

import (
	"encoding/json"
	"strconv"

	"github.com/pomyannik/pomyannik/db"
)

// Folder is a named collection of cards.
type Folder struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FolderDetail is a folder together with its cards.
type FolderDetail struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Card is a single photo entry of a folder.
type Card struct {
	ID          int    `json:"id"`
	FilePath    string `json:"file_path"`
	Description string `json:"description"`
	FolderID    int    `json:"folder_id"`
}

// User is the profile returned by /api/auth/users/me and /api/auth/register.
type User struct {
	ID               int    `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	IsEmailConfirmed bool   `json:"is_email_confirmed"`
	HasAccess        bool   `json:"has_access"`
}

// RegisterRequest is the body of /api/auth/register. Username is optional.
type RegisterRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RestorePasswordRequest is the body of /api/auth/restore-password-by-code.
type RestorePasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// PaymentResponse is returned by /api/payment/create_payment.
type PaymentResponse struct {
	ConfirmationURL string `json:"confirmation_url"`
	PaymentID       string `json:"payment_id,omitempty"`
	Status          string `json:"status,omitempty"`
}

// PaymentStatus is returned by /api/payment/check_status/{id}.
type PaymentStatus struct {
	PaymentID string `json:"payment_id,omitempty"`
	Status    string `json:"status"`
	Paid      bool   `json:"paid,omitempty"`
}

// TokenResponse is the body returned by the login and refresh endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	UserID       any    `json:"user_id,omitempty"`
}

// Credential converts the response into the stored form.
func (t TokenResponse) Credential() *db.Credential {
	return &db.Credential{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		UserID:       formatUserID(t.UserID),
	}
}

// formatUserID renders a decoded user_id, which is float64 for JSON numbers.
func formatUserID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case json.Number:
		return id.String()
	default:
		b, _ := json.Marshal(id)
		return string(b)
	}
}
