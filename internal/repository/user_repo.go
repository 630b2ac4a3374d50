package repository

import (
	"context"
	"errors"
	"fmt"

	"voting_rooms/internal/model"

	"github.com/jackc/pgx/v5"
)

// UserRepository defines operations for user data
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, first_name, last_name, email, phone, password,
            email_verified, phone_verified, role, created_at, updated_at`

// Create inserts a new user into the database. A unique constraint
// violation on email or phone is reported as ErrDuplicate.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (id, name, first_name, last_name, email, phone, password, email_verified, phone_verified, role)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, sql,
		user.ID, user.Name, user.FirstName, user.LastName, user.Email, user.Phone,
		user.PasswordHash, user.EmailVerified, user.PhoneVerified, string(user.Role),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			return fmt.Errorf("failed to create user: %w (%s)", ErrDuplicate, constraint)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByEmail retrieves a user by email. It returns nil, nil when no user matches.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByID retrieves a user by id. It returns nil, nil when no user matches.
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

func (r *userRepository) findOne(ctx context.Context, sql string, arg any) (*model.User, error) {
	user := &model.User{}
	var role string
	err := r.db.QueryRow(ctx, sql, arg).Scan(
		&user.ID, &user.Name, &user.FirstName, &user.LastName, &user.Email, &user.Phone,
		&user.PasswordHash, &user.EmailVerified, &user.PhoneVerified, &role,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	user.Role = model.Role(role)
	return user, nil
}
