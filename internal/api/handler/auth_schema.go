package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type registerRequest struct {
	Username string `json:"username"       validate:"required,min=3,max=64"`
	Password string `json:"password"       validate:"required,min=6,max=72"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

type loginRequest struct {
	Username  string `json:"username"   validate:"required"`
	Password  string `json:"password"   validate:"required"`
	Captcha   string `json:"captcha"    validate:"required"`
	CaptchaID string `json:"captcha_id" validate:"required"`
	Remember  bool   `json:"remember"`
}

type challengeResponse struct {
	ID        string    `json:"id"`
	Word      string    `json:"word"`
	ExpiresAt time.Time `json:"expires_at"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Msg  string `json:"msg"`
	Role string `json:"role"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}

type whoAmIResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type statusResponse struct {
	Status string `json:"status"`
}
