package repository

import (
	"github.com/shopfox/shopfox/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
}

// OrderRepository defines the interface for order-related database operations
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByUserID(userID uint) ([]models.Order, error)
	Update(order *models.Order) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
}

// Repositories holds all repository instances
type Repositories struct {
	User  UserRepository
	Order OrderRepository
}
