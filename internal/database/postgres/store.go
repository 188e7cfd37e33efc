// Package postgres implements the gateway repository directly on
// PostgreSQL, for deployments that do not go through Supabase REST.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/payeasy/payeasy-api/internal/database"
)

// Store implements database.RepositoryInterface backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ database.RepositoryInterface = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn with the lib/pq driver.
func Open(dsn string, maxOpenConns int) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	return New(db), nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return wrap("ping", err)
	}
	return nil
}

// wrap tags err as a database error, translating driver errors into
// *database.APIError so callers classify both backends the same way.
func wrap(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		err = &database.APIError{
			Code:       string(pqErr.Code),
			Message:    pqErr.Message,
			Details:    pqErr.Detail,
			Hint:       pqErr.Hint,
			Constraint: pqErr.Constraint,
		}
	}
	return fmt.Errorf("%w: %s: %w", database.ErrDatabaseError, op, err)
}

func (s *Store) exists(ctx context.Context, op, query string, args ...interface{}) (bool, error) {
	var found bool
	if err := s.db.GetContext(ctx, &found, query, args...); err != nil {
		return false, wrap(op, err)
	}
	return found, nil
}

// --- users ------------------------------------------------------------------

func (s *Store) UserExistsByPublicKey(ctx context.Context, publicKey string) (bool, error) {
	return s.exists(ctx, "user exists by public key",
		`SELECT EXISTS (SELECT 1 FROM users WHERE public_key = $1)`, publicKey)
}

func (s *Store) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, "user exists by username",
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (s *Store) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "user exists by email",
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

const userReturning = `id, public_key, username, email, avatar_url, bio, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, user *database.User) error {
	if user == nil {
		return fmt.Errorf("%w: user cannot be nil", database.ErrInvalidInput)
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO users (public_key, username, email)
		VALUES ($1, $2, $3)
		RETURNING `+userReturning,
		user.PublicKey, user.Username, user.Email,
	).StructScan(user)
	if err != nil {
		return wrap("create user", err)
	}
	return nil
}

// --- ratings ----------------------------------------------------------------

func (s *Store) RatingExistsForInteraction(ctx context.Context, raterID, interactionID string) (bool, error) {
	return s.exists(ctx, "rating exists for interaction",
		`SELECT EXISTS (SELECT 1 FROM ratings WHERE rater_id = $1 AND interaction_id = $2)`, raterID, interactionID)
}

func (s *Store) PaymentRecordExists(ctx context.Context, id string) (bool, error) {
	if !database.IsRowID(id) {
		return false, nil
	}
	return s.exists(ctx, "payment record exists",
		`SELECT EXISTS (SELECT 1 FROM payment_records WHERE id = $1)`, id)
}

func (s *Store) RentAgreementExists(ctx context.Context, id string) (bool, error) {
	if !database.IsRowID(id) {
		return false, nil
	}
	return s.exists(ctx, "rent agreement exists",
		`SELECT EXISTS (SELECT 1 FROM rent_agreements WHERE id = $1)`, id)
}

const ratingReturning = `id, rater_id, ratee_id, listing_id, interaction_id, rating, review_text, is_verified, status, created_at, updated_at`

func (s *Store) CreateRating(ctx context.Context, rating *database.Rating) error {
	if rating == nil {
		return fmt.Errorf("%w: rating cannot be nil", database.ErrInvalidInput)
	}
	if rating.Status == "" {
		rating.Status = database.RatingPublished
	}
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO ratings (rater_id, ratee_id, listing_id, interaction_id, rating, review_text, is_verified, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+ratingReturning,
		rating.RaterID, rating.RateeID, rating.ListingID, rating.InteractionID,
		rating.Rating, rating.ReviewText, rating.IsVerified, rating.Status,
	).StructScan(rating)
	if err != nil {
		return wrap("create rating", err)
	}
	return nil
}

type ratingRow struct {
	database.Rating
	RaterFullName  sql.NullString `db:"rater_full_name"`
	RaterAvatarURL sql.NullString `db:"rater_avatar_url"`
}

func (s *Store) ListRatings(ctx context.Context, filter database.RatingFilter) ([]database.Rating, error) {
	if filter.RateeID == "" && filter.ListingID == "" {
		return nil, fmt.Errorf("%w: ratee_id or listing_id is required", database.ErrInvalidInput)
	}

	var b strings.Builder
	b.WriteString(`
		SELECT r.id, r.rater_id, r.ratee_id, r.listing_id, r.interaction_id, r.rating,
		       r.review_text, r.is_verified, r.status, r.created_at, r.updated_at,
		       p.full_name AS rater_full_name, p.avatar_url AS rater_avatar_url
		FROM ratings r
		LEFT JOIN profiles p ON p.id = r.rater_id
		WHERE r.status = $1`)
	args := []interface{}{database.RatingPublished}
	if filter.RateeID != "" {
		args = append(args, filter.RateeID)
		fmt.Fprintf(&b, " AND r.ratee_id = $%d", len(args))
	}
	if filter.ListingID != "" {
		args = append(args, filter.ListingID)
		fmt.Fprintf(&b, " AND r.listing_id = $%d", len(args))
	}
	if filter.MinRating > 0 {
		args = append(args, filter.MinRating)
		fmt.Fprintf(&b, " AND r.rating >= $%d", len(args))
	}
	b.WriteString(" ORDER BY r.created_at DESC")

	var rows []ratingRow
	if err := s.db.SelectContext(ctx, &rows, b.String(), args...); err != nil {
		return nil, wrap("list ratings", err)
	}

	out := make([]database.Rating, len(rows))
	for i, row := range rows {
		out[i] = row.Rating
		if row.RaterFullName.Valid || row.RaterAvatarURL.Valid {
			out[i].Rater = &database.RaterProfile{
				FullName:  nullString(row.RaterFullName),
				AvatarURL: nullString(row.RaterAvatarURL),
			}
		}
	}
	return out, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// --- stats ------------------------------------------------------------------

func (s *Store) GetUserStats(ctx context.Context, userID string) (*database.UserStats, error) {
	var stats database.UserStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT listings_count, messages_sent_count, messages_received_count,
		       rent_payments_made_count, unread_messages_count, active_agreements_count
		FROM get_user_stats($1)`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return &database.UserStats{}, nil
	}
	if err != nil {
		return nil, wrap("get user stats", err)
	}
	return &stats, nil
}

// --- listings ---------------------------------------------------------------

const listingColumns = `id, landlord_id, title, description, address, rent_xlm, bedrooms, bathrooms,
	furnished, pet_friendly, latitude, longitude, status, view_count, favorite_count, created_at, updated_at`

func (s *Store) SearchListings(ctx context.Context, filter database.ListingFilter) ([]database.Listing, int, error) {
	var where strings.Builder
	where.WriteString(" WHERE status = $1")
	args := []interface{}{database.ListingActive}

	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		fmt.Fprintf(&where, " AND rent_xlm >= $%d", len(args))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		fmt.Fprintf(&where, " AND rent_xlm <= $%d", len(args))
	}
	if filter.MinBedrooms != nil {
		args = append(args, *filter.MinBedrooms)
		fmt.Fprintf(&where, " AND bedrooms >= $%d", len(args))
	}
	if filter.MinBathrooms != nil {
		args = append(args, *filter.MinBathrooms)
		fmt.Fprintf(&where, " AND bathrooms >= $%d", len(args))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+term+"%")
		n := len(args)
		fmt.Fprintf(&where, " AND (title ILIKE $%d OR description ILIKE $%d OR address ILIKE $%d)", n, n, n)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM listings"+where.String(), args...); err != nil {
		return nil, 0, wrap("count listings", err)
	}

	column := "created_at"
	for _, allowed := range database.SortColumns {
		if filter.SortColumn == allowed {
			column = allowed
			break
		}
	}
	dir := "DESC"
	if filter.Ascending {
		dir = "ASC"
	}

	query := "SELECT " + listingColumns + " FROM listings" + where.String() + fmt.Sprintf(" ORDER BY %s %s", column, dir)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	listings := []database.Listing{}
	if err := s.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, wrap("search listings", err)
	}
	return listings, total, nil
}

// --- auth events ------------------------------------------------------------

func (s *Store) CreateAuthEvent(ctx context.Context, event *database.AuthEvent) error {
	if event == nil {
		return fmt.Errorf("%w: auth event cannot be nil", database.ErrInvalidInput)
	}
	var metadata interface{}
	if len(event.Metadata) > 0 {
		metadata = []byte(event.Metadata)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_events (public_key, event_type, status, failure_reason, metadata, ip_address, user_agent, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.PublicKey, event.EventType, event.Status, event.FailureReason, metadata,
		event.IPAddress, event.UserAgent, event.RequestID, event.CreatedAt,
	)
	if err != nil {
		return wrap("create auth event", err)
	}
	return nil
}
