package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/artist-map-tracker/internal/model"
)

// ArtistRepo manages artist profiles.  account_id is UNIQUE, so an account
// owns at most one profile.
type ArtistRepo struct{ db *sql.DB }

func NewArtistRepo(db *sql.DB) *ArtistRepo { return &ArtistRepo{db: db} }

const artistColumns = "id,account_id,stage_name,bio,city,instagram,youtube,created_at,updated_at"

// Create inserts a profile and fills in its ID.  A second profile for the
// same account yields ErrConflict.
func (r *ArtistRepo) Create(ctx context.Context, a *model.Artist) error {
	const op = "repository.ArtistRepo.Create"

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO artists (account_id, stage_name, bio, city, instagram, youtube) VALUES (?,?,?,?,?,?)`,
		a.AccountID, a.StageName, a.Bio, a.City, a.SocialLinks.Instagram, a.SocialLinks.YouTube)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%s: %w", op, ErrConflict)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.ID = uint64(id)
	return nil
}

// GetByAccountID returns the profile owned by accountID or ErrNotFound.
func (r *ArtistRepo) GetByAccountID(ctx context.Context, accountID uint64) (model.Artist, error) {
	var a model.Artist
	err := r.db.QueryRowContext(ctx,
		"SELECT "+artistColumns+" FROM artists WHERE account_id=? LIMIT 1", accountID,
	).Scan(&a.ID, &a.AccountID, &a.StageName, &a.Bio, &a.City,
		&a.SocialLinks.Instagram, &a.SocialLinks.YouTube, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Artist{}, ErrNotFound
	}
	return a, err
}

// Update overwrites the editable fields of the profile owned by
// a.AccountID.
func (r *ArtistRepo) Update(ctx context.Context, a model.Artist) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE artists SET stage_name=?, bio=?, city=?, instagram=?, youtube=? WHERE account_id=?`,
		a.StageName, a.Bio, a.City, a.SocialLinks.Instagram, a.SocialLinks.YouTube, a.AccountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByAccountID(ctx, a.AccountID); err != nil {
			return err
		}
	}
	return nil
}
