package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockRepository is an in-memory implementation of RepositoryInterface for
// testing. User inserts enforce the same unique columns as the real table
// and report violations the way PostgREST does.
type MockRepository struct {
	mu sync.RWMutex

	users          map[string]*User
	ratings        map[string]*Rating
	paymentRecords map[string]bool
	rentAgreements map[string]bool
	listings       map[string]*Listing
	stats          map[string]UserStats
	authEvents     []AuthEvent
	calls          map[string]int
	failures       map[string]error

	// ErrorOnNextCall is returned (and cleared) by the next repository call.
	ErrorOnNextCall error

	// BeforeCreateUser runs before a user insert; tests use it to simulate a
	// concurrent registration winning the race.
	BeforeCreateUser func(user *User)
}

// NewMockRepository creates a new mock repository for testing.
func NewMockRepository() *MockRepository {
	m := &MockRepository{}
	m.Reset()
	return m
}

// Reset clears all data in the mock repository.
func (m *MockRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]*User)
	m.ratings = make(map[string]*Rating)
	m.paymentRecords = make(map[string]bool)
	m.rentAgreements = make(map[string]bool)
	m.listings = make(map[string]*Listing)
	m.stats = make(map[string]UserStats)
	m.authEvents = nil
	m.calls = make(map[string]int)
	m.failures = make(map[string]error)
	m.ErrorOnNextCall = nil
	m.BeforeCreateUser = nil
}

// FailOn makes every call to method return err until cleared with a nil err.
func (m *MockRepository) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

// Calls returns how many times method was invoked.
func (m *MockRepository) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// enter records the call and returns any injected error.
func (m *MockRepository) enter(method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
	if m.ErrorOnNextCall != nil {
		err := m.ErrorOnNextCall
		m.ErrorOnNextCall = nil
		return err
	}
	return m.failures[method]
}

// =============================================================================
// Seeding helpers
// =============================================================================

// AddUser stores user without uniqueness checks.
func (m *MockRepository) AddUser(user User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.users[user.ID] = &user
}

// AddPaymentRecord registers a payment record id.
func (m *MockRepository) AddPaymentRecord(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentRecords[id] = true
}

// AddRentAgreement registers a rental agreement id.
func (m *MockRepository) AddRentAgreement(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rentAgreements[id] = true
}

// AddRating stores rating as-is.
func (m *MockRepository) AddRating(rating Rating) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}
	m.ratings[rating.ID] = &rating
}

// AddListing stores listing as-is.
func (m *MockRepository) AddListing(listing Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}
	m.listings[listing.ID] = &listing
}

// SetUserStats sets the stats returned for userID.
func (m *MockRepository) SetUserStats(userID string, stats UserStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[userID] = stats
}

// Users returns a snapshot of stored users.
func (m *MockRepository) Users() []User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out
}

// Ratings returns a snapshot of stored ratings.
func (m *MockRepository) Ratings() []Rating {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Rating, 0, len(m.ratings))
	for _, r := range m.ratings {
		out = append(out, *r)
	}
	return out
}

// AuthEvents returns the recorded audit events in insertion order.
func (m *MockRepository) AuthEvents() []AuthEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]AuthEvent(nil), m.authEvents...)
}

// =============================================================================
// RepositoryInterface
// =============================================================================

// Ping implements RepositoryInterface.
func (m *MockRepository) Ping(ctx context.Context) error {
	return m.enter("Ping")
}

func (m *MockRepository) userExists(match func(*User) bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return true
		}
	}
	return false
}

func (m *MockRepository) UserExistsByPublicKey(ctx context.Context, publicKey string) (bool, error) {
	if err := m.enter("UserExistsByPublicKey"); err != nil {
		return false, err
	}
	return m.userExists(func(u *User) bool { return u.PublicKey == publicKey }), nil
}

func (m *MockRepository) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	if err := m.enter("UserExistsByUsername"); err != nil {
		return false, err
	}
	return m.userExists(func(u *User) bool { return u.Username == username }), nil
}

func (m *MockRepository) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := m.enter("UserExistsByEmail"); err != nil {
		return false, err
	}
	return m.userExists(func(u *User) bool { return u.Email != nil && *u.Email == email }), nil
}

func (m *MockRepository) CreateUser(ctx context.Context, user *User) error {
	if err := m.enter("CreateUser"); err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user cannot be nil", ErrInvalidInput)
	}
	if m.BeforeCreateUser != nil {
		m.BeforeCreateUser(user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		switch {
		case u.PublicKey == user.PublicKey:
			return uniqueViolation("users_public_key_key", "public_key", user.PublicKey)
		case u.Username == user.Username:
			return uniqueViolation("users_username_key", "username", user.Username)
		case user.Email != nil && u.Email != nil && *u.Email == *user.Email:
			return uniqueViolation("users_email_key", "email", *user.Email)
		}
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func uniqueViolation(constraint, column, value string) error {
	return fmt.Errorf("%w: insert: %w", ErrDatabaseError, &APIError{
		Code:       CodeUniqueViolation,
		Message:    fmt.Sprintf("duplicate key value violates unique constraint %q", constraint),
		Details:    fmt.Sprintf("Key (%s)=(%s) already exists.", column, value),
		StatusCode: 409,
	})
}

func (m *MockRepository) RatingExistsForInteraction(ctx context.Context, raterID, interactionID string) (bool, error) {
	if err := m.enter("RatingExistsForInteraction"); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.ratings {
		if r.RaterID == raterID && r.InteractionID != nil && *r.InteractionID == interactionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockRepository) PaymentRecordExists(ctx context.Context, id string) (bool, error) {
	if err := m.enter("PaymentRecordExists"); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paymentRecords[id], nil
}

func (m *MockRepository) RentAgreementExists(ctx context.Context, id string) (bool, error) {
	if err := m.enter("RentAgreementExists"); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rentAgreements[id], nil
}

func (m *MockRepository) CreateRating(ctx context.Context, rating *Rating) error {
	if err := m.enter("CreateRating"); err != nil {
		return err
	}
	if rating == nil {
		return fmt.Errorf("%w: rating cannot be nil", ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	rating.ID = uuid.NewString()
	if rating.Status == "" {
		rating.Status = RatingPublished
	}
	rating.CreatedAt = now
	rating.UpdatedAt = now
	stored := *rating
	m.ratings[rating.ID] = &stored
	return nil
}

// CreateListing stores listing, defaulting its status to active.
func (m *MockRepository) CreateListing(ctx context.Context, listing *Listing) error {
	if err := m.enter("CreateListing"); err != nil {
		return err
	}
	if listing == nil {
		return fmt.Errorf("%w: listing cannot be nil", ErrInvalidInput)
	}
	if err := requireID("landlord_id", listing.LandlordID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	listing.ID = uuid.NewString()
	if listing.Status == "" {
		listing.Status = ListingActive
	}
	listing.CreatedAt = now
	listing.UpdatedAt = now
	stored := *listing
	m.listings[listing.ID] = &stored
	return nil
}

func (m *MockRepository) ListRatings(ctx context.Context, filter RatingFilter) ([]Rating, error) {
	if err := m.enter("ListRatings"); err != nil {
		return nil, err
	}
	if filter.RateeID == "" && filter.ListingID == "" {
		return nil, fmt.Errorf("%w: ratee_id or listing_id is required", ErrInvalidInput)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Rating
	for _, r := range m.ratings {
		if r.Status != RatingPublished {
			continue
		}
		if filter.RateeID != "" && r.RateeID != filter.RateeID {
			continue
		}
		if filter.ListingID != "" && (r.ListingID == nil || *r.ListingID != filter.ListingID) {
			continue
		}
		if r.Rating < filter.MinRating {
			continue
		}
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MockRepository) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	if err := m.enter("GetUserStats"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := m.stats[userID]
	return &stats, nil
}

func (m *MockRepository) SearchListings(ctx context.Context, filter ListingFilter) ([]Listing, int, error) {
	if err := m.enter("SearchListings"); err != nil {
		return nil, 0, err
	}

	m.mu.RLock()
	var matched []Listing
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, l := range m.listings {
		if l.Status != ListingActive {
			continue
		}
		if filter.MinPrice != nil && l.RentXLM < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && l.RentXLM > *filter.MaxPrice {
			continue
		}
		if filter.MinBedrooms != nil && l.Bedrooms < *filter.MinBedrooms {
			continue
		}
		if filter.MinBathrooms != nil && l.Bathrooms < *filter.MinBathrooms {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(l.Title+" "+l.Description+" "+l.Address), term) {
			continue
		}
		matched = append(matched, *l)
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		less := listingLess(matched[i], matched[j], filter.SortColumn)
		if filter.Ascending {
			return less
		}
		return listingLess(matched[j], matched[i], filter.SortColumn)
	})

	total := len(matched)
	if filter.Offset >= total {
		return []Listing{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func listingLess(a, b Listing, column string) bool {
	switch column {
	case "rent_xlm":
		return a.RentXLM < b.RentXLM
	case "bedrooms":
		return a.Bedrooms < b.Bedrooms
	case "bathrooms":
		return a.Bathrooms < b.Bathrooms
	case "view_count":
		return a.ViewCount < b.ViewCount
	case "favorite_count":
		return a.FavoriteCount < b.FavoriteCount
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func (m *MockRepository) CreateAuthEvent(ctx context.Context, event *AuthEvent) error {
	if err := m.enter("CreateAuthEvent"); err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("%w: auth event cannot be nil", ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *event
	stored.ID = uuid.NewString()
	m.authEvents = append(m.authEvents, stored)
	return nil
}

// Ensure MockRepository implements RepositoryInterface
var _ RepositoryInterface = (*MockRepository)(nil)
