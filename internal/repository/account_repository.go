package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/artist-map-tracker/internal/model"
	"github.com/iliyamo/artist-map-tracker/internal/utils"
)

// AccountRepo reads and writes the 'accounts' table.
type AccountRepo struct{ db *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = "id,name,email,password_hash,role,created_at,updated_at"

// NormalizeEmail trims and lower-cases an address before it is stored or
// compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create hashes the password, inserts the account and returns its ID.
func (r *AccountRepo) Create(ctx context.Context, name, email, password string, role model.Role, cost int) (uint64, error) {
	const op = "repository.AccountRepo.Create"

	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO accounts (name, email, password_hash, role) VALUES (?,?,?,?)",
		strings.TrimSpace(name), NormalizeEmail(email), hash, string(role))
	if err != nil {
		if isDuplicateKey(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrEmailExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return uint64(id), nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE email=? LIMIT 1", NormalizeEmail(email))
	return scanAccount(row)
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id=? LIMIT 1", id)
	return scanAccount(row)
}

// Update writes name, email and password hash of acc.  A taken email
// yields ErrEmailExists.
func (r *AccountRepo) Update(ctx context.Context, acc model.Account) error {
	const op = "repository.AccountRepo.Update"

	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET name=?, email=?, password_hash=? WHERE id=?",
		strings.TrimSpace(acc.Name), NormalizeEmail(acc.Email), acc.PasswordHash, acc.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%s: %w", op, ErrEmailExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows for an unchanged row too, so confirm it exists.
		if _, err := r.GetByID(ctx, acc.ID); err != nil {
			return err
		}
	}
	return nil
}

func scanAccount(row *sql.Row) (model.Account, error) {
	var (
		a    model.Account
		role string
	)
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &role, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	a.Role = model.Role(role)
	return a, nil
}
