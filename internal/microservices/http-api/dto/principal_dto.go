package dto

import "coursehub/internal/microservices/http-api/models"

// SavePrincipalRequest for POST /users. Missing fields fall back to the token claims.
type SavePrincipalRequest struct {
	Name  string `json:"name" binding:"max=200"`
	Photo string `json:"photo" binding:"omitempty,url"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin user"`
}

type SavePrincipalResponse struct {
	Principal *models.Principal `json:"principal"`
	Created   bool              `json:"created"`
}
