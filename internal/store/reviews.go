package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Review statuses. Reviews carry their own lifecycle, independent of the
// parent location's moderation status.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
)

// Review belongs to a Location and is never created without a parent.
type Review struct {
	ID         int64     `json:"id"`
	LocationID int64     `json:"locationId"`
	Author     string    `json:"author"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func validateReview(review Review) error {
	if review.LocationID <= 0 {
		return fmt.Errorf("%w: location id is required", ErrInvalidLocation)
	}
	if strings.TrimSpace(review.Author) == "" {
		return fmt.Errorf("%w: author is required", ErrInvalidLocation)
	}
	if review.Rating < 1 || review.Rating > 5 {
		return fmt.Errorf("%w: rating must be within [1, 5]", ErrInvalidLocation)
	}
	return nil
}

// CreateReview adds a pending review to an existing location.
func (s *Store) CreateReview(ctx context.Context, review Review) (Review, error) {
	review.Author = strings.TrimSpace(review.Author)
	review.Comment = strings.TrimSpace(review.Comment)
	if err := validateReview(review); err != nil {
		return Review{}, err
	}

	review.Status = ReviewPending

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reviews (location_id, author, rating, comment, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, review.LocationID, review.Author, review.Rating, review.Comment, review.Status).
		Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Review{}, ErrLocationNotFound
		}
		return Review{}, fmt.Errorf("insert review: %w", err)
	}

	return review, nil
}

// ListReviews returns reviews for a location, newest first. Unless includeAll
// is set only approved reviews are returned.
func (s *Store) ListReviews(ctx context.Context, locationID int64, includeAll bool) ([]Review, error) {
	query := `
		SELECT id, location_id, author, rating, comment, status, created_at
		FROM reviews
		WHERE location_id = $1`
	args := []any{locationID}
	if !includeAll {
		query += " AND status = $2"
		args = append(args, ReviewApproved)
	}
	query += `
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select reviews: %w", err)
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.LocationID, &r.Author, &r.Rating, &r.Comment, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}

	return reviews, rows.Err()
}

// ApproveReview marks a pending review as approved.
func (s *Store) ApproveReview(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reviews
		SET status = $1
		WHERE id = $2 AND status = $3
	`, ReviewApproved, id, ReviewPending)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		err := s.db.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)
		`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("select review: %w", err)
		}
		if !exists {
			return ErrReviewNotFound
		}
		return errors.New("review already approved")
	}
	return nil
}

// ApprovedReviewCount returns the number of approved reviews for a location.
func (s *Store) ApprovedReviewCount(ctx context.Context, locationID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM reviews
		WHERE location_id = $1 AND status = $2
	`, locationID, ReviewApproved).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}
