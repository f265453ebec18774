package handler

import (
	"errors"
	"fmt"
	"net/http"

	"coachly/internal/domain"
	"coachly/internal/middleware"
	"coachly/internal/models"
	"coachly/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	userRepo  *repository.UserRepository
	roleRepo  *repository.RoleRepository
	auditRepo *repository.AuditLogRepository
}

func NewAdminHandler(userRepo *repository.UserRepository, roleRepo *repository.RoleRepository, auditRepo *repository.AuditLogRepository) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, roleRepo: roleRepo, auditRepo: auditRepo}
}

// UpsertUserRole assigns or changes a user's role. Role changes take effect
// on the user's next privileged request since roles are read from the
// database per call, never baked into tokens.
func (h *AdminHandler) UpsertUserRole(c *gin.Context) {
	adminID := middleware.GetUserID(c)
	var req struct {
		UserID uint   `json:"user_id" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !domain.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be one of student, coach, admin"})
		return
	}
	if _, err := h.userRepo.GetByID(req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	previous, err := h.roleRepo.Upsert(req.UserID, req.Role, &adminID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update role"})
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		UserID:     &adminID,
		Action:     "role_changed",
		Resource:   "user",
		ResourceID: fmt.Sprintf("%d", req.UserID),
		Metadata:   fmt.Sprintf(`{"from":%q,"to":%q}`, previous, req.Role),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"user_id":       req.UserID,
		"role":          req.Role,
		"previous_role": previous,
	})
}

// ListUsers returns users with their roles for the admin dashboard.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	out := make([]gin.H, 0, len(users))
	for i := range users {
		role, err := h.roleRepo.GetRole(users[i].ID)
		if err != nil {
			role = ""
		}
		out = append(out, gin.H{
			"id":       users[i].ID,
			"username": users[i].Username,
			"email":    users[i].Email,
			"role":     role,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}
