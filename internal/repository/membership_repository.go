package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// MembershipRepository answers club membership questions. Memberships are managed elsewhere.
type MembershipRepository struct {
	db *sqlx.DB
}

// NewMembershipRepository constructs a membership repository.
func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// IsMember reports whether the user belongs to the club.
func (r *MembershipRepository) IsMember(ctx context.Context, clubID, userID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM club_members WHERE club_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, clubID, userID); err != nil {
		return false, fmt.Errorf("check club membership: %w", err)
	}
	return exists, nil
}

// ListClubIDs returns the clubs the user belongs to.
func (r *MembershipRepository) ListClubIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT club_id FROM club_members WHERE user_id = $1 ORDER BY club_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("list club memberships: %w", err)
	}
	return ids, nil
}
