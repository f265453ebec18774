package repository

import (
	"errors"

	"coachly/internal/models"

	"gorm.io/gorm"
)

var ErrNoRole = errors.New("user has no role assigned")

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// GetRole returns the user's current role from the role table.
func (r *RoleRepository) GetRole(userID uint) (string, error) {
	var row models.UserRole
	err := r.db.Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoRole
	}
	if err != nil {
		return "", err
	}
	return row.Role, nil
}

// Upsert writes the role row for a user and returns the previous role
// ("" when none existed).
func (r *RoleRepository) Upsert(userID uint, role string, grantedBy *uint) (string, error) {
	var previous string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var row models.UserRole
		err := tx.Where("user_id = ?", userID).First(&row).Error
		if err == nil {
			previous = row.Role
			row.Role = role
			row.GrantedBy = grantedBy
			return tx.Save(&row).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&models.UserRole{UserID: userID, Role: role, GrantedBy: grantedBy}).Error
	})
	return previous, err
}
