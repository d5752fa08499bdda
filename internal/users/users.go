package users

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/crypto"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Roles. Every registered account starts as RoleUser; admins are promoted
// through the back-office or created via the CLI.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                uint   `gorm:"primaryKey"`
	Email             string `gorm:"uniqueIndex;not null"`
	EncryptedPassword string
	FirstName         string
	LastName          string
	Role              string    `gorm:"index;not null;default:user"`
	CreatedAt         time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName joins first and last name, falling back to the email local part.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// ErrUserExists is returned when attempting to create a user that already exists.
var ErrUserExists = errors.New("user already exists")

// ErrUserNotFound is returned when a user lookup fails.
var ErrUserNotFound = gorm.ErrRecordNotFound

// ErrSelfDemotion is returned when an admin tries to drop their own role.
var ErrSelfDemotion = errors.New("admins cannot change their own role")

// ErrInvalidRole is returned for roles outside the known set.
var ErrInvalidRole = errors.New("invalid role")

// RegisterInput carries the public registration form.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// FindByEmail retrieves a user by email.
func FindByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID retrieves a user by ID.
func FindByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates a regular account from the public registration form.
// CreatedAt is assigned by the database; it doubles as the registration
// timestamp the dashboard aggregates.
func Register(db *gorm.DB, input *RegisterInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}
	if input.Password == "" {
		return nil, errors.New("password cannot be empty")
	}

	if _, err := FindByEmail(db, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := crypto.GeneratePasswordHash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:             email,
		EncryptedPassword: string(hashedPassword),
		FirstName:         strings.TrimSpace(input.FirstName),
		LastName:          strings.TrimSpace(input.LastName),
		Role:              RoleUser,
	}

	logger := slog.Default()
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// List returns users newest first, optionally filtered by a case-insensitive
// search over name, email and role.
func List(db *gorm.DB, search string) ([]User, error) {
	query := db.Order("created_at DESC")

	search = strings.TrimSpace(search)
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(role) LIKE ?",
			like, like, like, like,
		)
	}

	var list []User
	if err := query.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return list, nil
}

// ChangeRole sets target's role. Admins cannot change their own role, so a
// deployment always keeps at least the acting admin.
func ChangeRole(db *gorm.DB, actorID, targetID uint, role string) error {
	if role != RoleUser && role != RoleAdmin {
		return ErrInvalidRole
	}
	if actorID == targetID {
		return ErrSelfDemotion
	}

	target, err := FindByID(db, targetID)
	if err != nil {
		return err
	}
	if target.Role == role {
		return nil
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(target).Update("role", role).Error
	})
}

// CreateAdminUser creates a new admin user with the supplied credentials. It returns ErrUserExists if the user already exists.
func CreateAdminUser(dbConn *gorm.DB, email, password string) error {
	if _, err := FindByEmail(dbConn, email); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if email == "" {
		return errors.New("email cannot be empty")
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return err
	}

	newUser := User{
		Email:             email,
		EncryptedPassword: string(hashedPassword),
		Role:              RoleAdmin,
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, dbConn, func(tx *gorm.DB) error {
		return tx.Create(&newUser).Error
	})
}

// ChangePassword updates a user's password given their email.
func ChangePassword(dbConn *gorm.DB, email, password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}

	user, err := FindByEmail(dbConn, email)
	if err != nil {
		return err
	}

	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return err
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, dbConn, func(tx *gorm.DB) error {
		return tx.Model(user).Update("encrypted_password", string(hashedPassword)).Error
	})
}

// SetupAdminUserIfNotExists creates a default admin in the database if it doesn't already exist
func SetupAdminUserIfNotExists(dbConn *gorm.DB, email string) {
	logger := slog.Default()
	hashedPassword, err := crypto.GeneratePasswordHash("password")
	if err != nil {
		logger.Error("Failed to generate password hash", slog.Any("error", err))
		return
	}
	err = sqlite.PerformWrite(logger, dbConn, func(tx *gorm.DB) error {
		return tx.Exec(`
            INSERT INTO users (email, encrypted_password, role, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?)
            ON CONFLICT(email) DO NOTHING
        `, email, hashedPassword, RoleAdmin, time.Now().UTC(), time.Now().UTC()).Error
	})
	if err != nil {
		logger.Error("Failed to upsert admin user", slog.String("email", email), slog.Any("error", err))
		return
	}
	logger.Info("Ensured admin user exists", slog.String("email", email))
}
