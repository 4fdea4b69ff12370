package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ticketnow/internal/database"
	apperrors "ticketnow/internal/errors"
	"ticketnow/internal/models"

	"github.com/lib/pq"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, document,
	document_type, active, refresh_token_hash, refresh_token_expires_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }, user *models.User) error {
	return row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Document,
		&user.DocumentType,
		&user.Active,
		&user.RefreshTokenHash,
		&user.RefreshTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := scanUser(r.db.Conn(ctx).QueryRowContext(ctx, query, arg), user)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if user.Roles, err = r.roles(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) roles(ctx context.Context, userID int64) ([]models.Role, error) {
	rows, err := r.db.Conn(ctx).QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Create inserts the user together with its roles
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO users (username, email, password_hash, first_name, last_name, document, document_type, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at`

		err := r.db.Conn(ctx).QueryRowContext(ctx, query,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.FirstName,
			user.LastName,
			user.Document,
			user.DocumentType,
			user.Active,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if database.IsUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		if err != nil {
			return err
		}

		for _, role := range user.Roles {
			if err := r.AddRole(ctx, user.ID, role); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *UserRepository) AddRole(ctx context.Context, userID int64, role models.Role) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, role)
	return err
}

// Update stores the profile fields of the user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, first_name = $4, last_name = $5,
		    document = $6, document_type = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Document,
		user.DocumentType,
	).Scan(&user.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return apperrors.ErrDuplicate
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, `UPDATE users SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
}

// SetRefreshToken stores a refresh token digest. A nil hash revokes the session.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id int64, hash *string, expiresAt *time.Time) error {
	return r.exec(ctx,
		`UPDATE users SET refresh_token_hash = $2, refresh_token_expires_at = $3, updated_at = NOW() WHERE id = $1`,
		id, hash, expiresAt)
}

// RotateRefreshToken replaces the refresh token only if oldHash is still the
// stored one, so two concurrent refreshes with the same token cannot both win.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id int64, oldHash, newHash string) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = $3, updated_at = NOW()
		 WHERE id = $1 AND refresh_token_hash = $2`,
		id, oldHash, newHash)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrStateChanged
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.FirstName != "" {
		add("first_name ILIKE $%d", "%"+filter.FirstName+"%")
	}
	if filter.LastName != "" {
		add("last_name ILIKE $%d", "%"+filter.LastName+"%")
	}
	if filter.Document != "" {
		add("document = $%d", filter.Document)
	}
	if filter.Active != nil {
		add("active = $%d", *filter.Active)
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.PageSize, filter.Offset())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	var ids []int64
	for rows.Next() {
		var user models.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
		ids = append(ids, user.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return users, nil
	}

	roleRows, err := r.db.Conn(ctx).QueryContext(ctx,
		`SELECT user_id, role FROM user_roles WHERE user_id = ANY($1) ORDER BY role`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer roleRows.Close()

	byUser := make(map[int64][]models.Role, len(ids))
	for roleRows.Next() {
		var (
			userID int64
			role   models.Role
		)
		if err := roleRows.Scan(&userID, &role); err != nil {
			return nil, err
		}
		byUser[userID] = append(byUser[userID], role)
	}
	for i := range users {
		users[i].Roles = byUser[users[i].ID]
	}
	return users, roleRows.Err()
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
