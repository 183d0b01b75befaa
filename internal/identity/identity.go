package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"domestique/internal/models"
	"domestique/internal/utils"
)

var (
	ErrValidation         = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRole        = errors.New("unrecognized role")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
)

// Service owns user records and credentials.
type Service struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	PhotoURL  string
	Password  string
	Role      models.Role
}

// Register creates a user with a bcrypt-hashed credential. ADMIN users
// get staff privileges; PROVIDER users get an unapproved profile row.
func (s *Service) Register(in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}

	var existing models.User
	err := s.DB.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		PhotoURL:     in.PhotoURL,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
		IsStaff:      in.Role == models.RoleAdmin,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		if u.Role == models.RoleProvider {
			return tx.Create(&models.ProviderProfile{UserID: u.ID}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate returns the matching active user. Unknown email, wrong
// password and inactive account all fail the same way.
func (s *Service) Authenticate(email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var u models.User
	if err := s.DB.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !utils.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// GetByID resolves an active user.
func (s *Service) GetByID(id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.DB.Preload("ProviderProfile").First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SoftDelete hides the user from active-user queries. Requests and
// responses keep referencing the row.
func (s *Service) SoftDelete(id uuid.UUID) error {
	res := s.DB.Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetApproval gates a provider's ability to respond. Admin callers only
// (enforced at the route).
func (s *Service) SetApproval(providerID uuid.UUID, approved bool) error {
	res := s.DB.Model(&models.ProviderProfile{}).
		Where("user_id = ?", providerID).
		Update("is_approved", approved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRole is the administrative role override. Promoting to PROVIDER
// creates the profile row when missing; promoting to ADMIN grants
// staff privileges.
func (s *Service) SetRole(id uuid.UUID, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	var u models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		u.Role = role
		u.IsStaff = role == models.RoleAdmin
		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		if role == models.RoleProvider {
			var n int64
			if err := tx.Model(&models.ProviderProfile{}).Where("user_id = ?", u.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return tx.Create(&models.ProviderProfile{UserID: u.ID}).Error
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetSkills replaces a provider's skill set with the given services.
func (s *Service) SetSkills(providerID uuid.UUID, serviceIDs []uint) error {
	var profile models.ProviderProfile
	if err := s.DB.First(&profile, "user_id = ?", providerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	var services []models.Service
	if len(serviceIDs) > 0 {
		if err := s.DB.Find(&services, "id IN ?", serviceIDs).Error; err != nil {
			return err
		}
	}
	return s.DB.Model(&profile).Association("Skills").Replace(services)
}

// ListByRole pages through active users of one role.
func (s *Service) ListByRole(role models.Role, offset, limit int) ([]models.User, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := s.DB.Model(&models.User{}).Where("role = ?", role)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.DB.Where("role = ?", role).
		Preload("ProviderProfile").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, total, err
}

// EnsureAdmin creates the bootstrap admin account when the email is not
// registered yet. No-op on empty credentials.
func (s *Service) EnsureAdmin(email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, nil
	}
	u, err := s.Register(RegisterInput{
		FirstName: "Admin",
		Email:     email,
		Password:  password,
		Role:      models.RoleAdmin,
	})
	if errors.Is(err, ErrEmailTaken) {
		return nil, nil
	}
	return u, err
}
