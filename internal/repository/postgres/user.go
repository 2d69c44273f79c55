package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"attendance/internal/domain"
)

const userColumns = `user_id, chat_id, name, title, department, role, acc_status, created_at`

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u         domain.User
		role      string
		accStatus int
	)
	if err := row.Scan(&u.UserID, &u.ChatID, &u.Name, &u.Title, &u.Department, &role, &accStatus, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.AccStatus = domain.AccStatus(accStatus)
	return &u, nil
}

// queryOne runs a single-row query and maps sql.ErrNoRows to nil, nil
func (r *UserRepo) queryOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID returns the user with the given Telegram id
func (r *UserRepo) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	u, err := r.queryOne(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u, nil
}

// Create inserts a new user. The first write for a user id wins; later
// inserts return domain.ErrUserExists.
func (r *UserRepo) Create(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (user_id, chat_id, name, title, department, role, acc_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		user.UserID, user.ChatID, user.Name, user.Title, user.Department, string(user.Role), int(user.AccStatus),
	)
	if err != nil {
		return fmt.Errorf("insert user %d: %w", user.UserID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert user %d: %w", user.UserID, err)
	}
	if n == 0 {
		return domain.ErrUserExists
	}
	return nil
}

// SetStatus moves a pending user to the given status. Users that are no
// longer pending are left untouched and domain.ErrNotPending is returned.
func (r *UserRepo) SetStatus(ctx context.Context, userID int64, status domain.AccStatus) error {
	query := `
		UPDATE users
		SET acc_status = $1
		WHERE user_id = $2 AND acc_status = 0
	`
	res, err := r.db.ExecContext(ctx, query, int(status), userID)
	if err != nil {
		return fmt.Errorf("update status of user %d: %w", userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status of user %d: %w", userID, err)
	}
	if n == 0 {
		return domain.ErrNotPending
	}
	return nil
}

// FindDepartmentIC returns the person in-charge of a department
func (r *UserRepo) FindDepartmentIC(ctx context.Context, department string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE department = $1 AND role = 'IC' ORDER BY created_at LIMIT 1`
	u, err := r.queryOne(ctx, query, department)
	if err != nil {
		return nil, fmt.Errorf("find IC of %s: %w", department, err)
	}
	return u, nil
}

// FindAdmin returns any admin user
func (r *UserRepo) FindAdmin(ctx context.Context) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'Admin' ORDER BY created_at LIMIT 1`
	u, err := r.queryOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return u, nil
}

// ListApproved returns every approved user ordered by department and name
func (r *UserRepo) ListApproved(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE acc_status = 1 ORDER BY department, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list approved users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approved user: %w", err)
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}
