package store

import (
	"context"
	"errors"

	"github.com/pushp314/chatbridge-backend/internal/models"
	"gorm.io/gorm"
)

// UserStore is the user directory
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *UserStore) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.first(ctx, "id = ?", id)
}

// GetByContact looks a user up by email or external id
func (s *UserStore) GetByContact(ctx context.Context, contact string) (*models.User, error) {
	return s.first(ctx, "contact = ?", contact)
}

// FindByIDs returns the users that exist among ids, keyed by id. Missing ids are
// simply absent from the map.
func (s *UserStore) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	found := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		found[u.ID] = u
	}
	return found, nil
}

// ListExcept returns every user but one, ordered by name
func (s *UserStore) ListExcept(ctx context.Context, id uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Where("id <> ?", id).Order("name ASC").Find(&users).Error
	return users, err
}

func (s *UserStore) UpdateName(ctx context.Context, id uint, name string) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("name", name).Error
}

func (s *UserStore) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role).Error
}

func (s *UserStore) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
