package handler

import (
	"time"

	"github.com/99minutos/session-auth/internal/core/domain"
)

type updateUserRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Role     *string `json:"role,omitempty"     validate:"omitempty,oneof=user admin"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
}

type userDetailResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listUsersResponse struct {
	Users  []userDetailResponse `json:"users"`
	Offset int                  `json:"offset"`
	Limit  int                  `json:"limit"`
}

func toUserDetail(u *domain.User) userDetailResponse {
	return userDetailResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
