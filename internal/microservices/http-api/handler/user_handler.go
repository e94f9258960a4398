package handler

import (
	"net/http"

	"coursehub/internal/microservices/http-api/dto"
	"coursehub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	principals service.PrincipalService
}

func NewUserHandler(principals service.PrincipalService) *UserHandler {
	return &UserHandler{principals: principals}
}

// RegisterRoutes registers routes open to any authenticated principal
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("", h.Save)
		users.GET("/me", h.Me)
	}
}

func (h *UserHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.List)
		users.PATCH("/:email/role", h.SetRole)
	}
}

// Save records the caller on first login
// POST /users
func (h *UserHandler) Save(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}

	var req dto.SavePrincipalRequest
	// an empty body is allowed
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Name == "" {
		req.Name = c.GetString("name")
	}
	if req.Photo == "" {
		req.Photo = c.GetString("picture")
	}

	principal, created, err := h.principals.Save(c.Request.Context(), email, req.Name, req.Photo)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.SavePrincipalResponse{Principal: principal, Created: created})
}

// Me returns the caller's principal
// GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}

	principal, err := h.principals.Get(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, principal)
}

// List returns every principal
// GET /users
func (h *UserHandler) List(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}

	principals, err := h.principals.List(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": principals, "count": len(principals)})
}

// SetRole promotes or demotes a principal
// PATCH /users/:email/role
func (h *UserHandler) SetRole(c *gin.Context) {
	email, ok := callerEmail(c)
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	principal, err := h.principals.SetRole(c.Request.Context(), email, c.Param("email"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, principal)
}
