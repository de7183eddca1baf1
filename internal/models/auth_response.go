package models

import "storefront-be/internal/entities"

// MessageResponse is the body of every error and of the logout response
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthResponse represents the response after successful registration or login
type AuthResponse struct {
	Message string              `json:"message"`
	User    entities.PublicUser `json:"user"`
}
