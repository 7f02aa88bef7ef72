package httpdto

// RegisterRequest is used for POST /auth/register
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name,omitempty"`
}

// LoginRequest is used for POST /auth/login
type LoginRequest struct {
	Identity string `json:"identity" binding:"required"` // email or username
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is used for POST /auth/refresh
type RefreshRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest is used for POST /auth/logout. SessionID is optional and
// defaults to the caller's own session.
type LogoutRequest struct {
	SessionID string `json:"session_id"`
}

// AuthResponse is returned for register, login and refresh
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token,omitempty"`
	ExpiresIn    int64       `json:"expires_in"`
	SessionID    string      `json:"session_id"`
	User         AuthUserDTO `json:"user"`
}

// AuthUserDTO represents the authenticated user in auth responses
type AuthUserDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}
