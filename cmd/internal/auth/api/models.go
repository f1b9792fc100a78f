package authapi

import (
	"board/cmd/internal/auth/account"
	"board/cmd/internal/auth/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type setAdminRequest struct {
	Admin *bool `json:"admin"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type sessionResponse struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Admin     bool   `json:"admin"`
	Token     string `json:"token"`
}

type userResponse struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Admin     bool   `json:"admin"`
}

func toSessionResponse(v session.View) sessionResponse {
	return sessionResponse{
		Username:  v.Username,
		FirstName: v.FirstName,
		LastName:  v.LastName,
		Admin:     v.Admin,
		Token:     v.Token,
	}
}

// toUserResponse drops the email unless withEmail is set.
func toUserResponse(u account.PublicUser, withEmail bool) userResponse {
	resp := userResponse{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Admin:     u.Admin,
	}
	if withEmail {
		resp.Email = u.Email
	}
	return resp
}
