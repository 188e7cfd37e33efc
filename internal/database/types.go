package database

import (
	"encoding/json"
	"time"
)

// User is a marketplace account identified by its Stellar wallet.
type User struct {
	ID        string    `json:"id" db:"id"`
	PublicKey string    `json:"public_key" db:"public_key"`
	Username  string    `json:"username" db:"username"`
	Email     *string   `json:"email,omitempty" db:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	Bio       *string   `json:"bio,omitempty" db:"bio"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RatingStatus is the moderation state of a rating.
type RatingStatus string

const (
	RatingPublished RatingStatus = "published"
	RatingFlagged   RatingStatus = "flagged"
	RatingArchived  RatingStatus = "archived"
)

// RaterProfile is the public profile embedded in rating listings.
type RaterProfile struct {
	FullName  *string `json:"full_name" db:"rater_full_name"`
	AvatarURL *string `json:"avatar_url" db:"rater_avatar_url"`
}

// Rating is a review left by one user for another.
type Rating struct {
	ID            string        `json:"id" db:"id"`
	RaterID       string        `json:"rater_id" db:"rater_id"`
	RateeID       string        `json:"ratee_id" db:"ratee_id"`
	ListingID     *string       `json:"listing_id" db:"listing_id"`
	InteractionID *string       `json:"interaction_id" db:"interaction_id"`
	Rating        int           `json:"rating" db:"rating"`
	ReviewText    *string       `json:"review_text" db:"review_text"`
	IsVerified    bool          `json:"is_verified" db:"is_verified"`
	Status        RatingStatus  `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
	Rater         *RaterProfile `json:"rater,omitempty" db:"-"`
}

// RatingFilter selects published ratings for a subject.
type RatingFilter struct {
	RateeID   string
	ListingID string
	MinRating int
}

// UserStats are per-user dashboard counters computed by the store.
type UserStats struct {
	ListingsCount         int `json:"listings_count" db:"listings_count"`
	MessagesSentCount     int `json:"messages_sent_count" db:"messages_sent_count"`
	MessagesReceivedCount int `json:"messages_received_count" db:"messages_received_count"`
	RentPaymentsMadeCount int `json:"rent_payments_made_count" db:"rent_payments_made_count"`
	UnreadMessagesCount   int `json:"unread_messages_count" db:"unread_messages_count"`
	ActiveAgreementsCount int `json:"active_agreements_count" db:"active_agreements_count"`
}

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingActive   ListingStatus = "active"
	ListingInactive ListingStatus = "inactive"
	ListingDeleted  ListingStatus = "deleted"
)

// Listing is a rental property offered by a landlord.
type Listing struct {
	ID            string        `json:"id" db:"id"`
	LandlordID    string        `json:"landlord_id" db:"landlord_id"`
	Title         string        `json:"title" db:"title"`
	Description   string        `json:"description" db:"description"`
	Address       string        `json:"address" db:"address"`
	RentXLM       float64       `json:"rent_xlm" db:"rent_xlm"`
	Bedrooms      int           `json:"bedrooms" db:"bedrooms"`
	Bathrooms     int           `json:"bathrooms" db:"bathrooms"`
	Furnished     *bool         `json:"furnished" db:"furnished"`
	PetFriendly   *bool         `json:"pet_friendly" db:"pet_friendly"`
	Latitude      *float64      `json:"latitude" db:"latitude"`
	Longitude     *float64      `json:"longitude" db:"longitude"`
	Status        ListingStatus `json:"status" db:"status"`
	ViewCount     int           `json:"view_count" db:"view_count"`
	FavoriteCount int           `json:"favorite_count" db:"favorite_count"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// ListingFilter narrows a listing search. Zero values mean "no constraint".
type ListingFilter struct {
	MinPrice     *float64
	MaxPrice     *float64
	MinBedrooms  *int
	MinBathrooms *int
	Search       string
	SortColumn   string
	Ascending    bool
	Offset       int
	Limit        int
}

// AuthEventType classifies audit events.
type AuthEventType string

const (
	AuthLoginSuccess AuthEventType = "LOGIN_SUCCESS"
	AuthLoginFailure AuthEventType = "LOGIN_FAILURE"
)

// AuthEvent is a persisted authentication audit record.
type AuthEvent struct {
	ID            string          `json:"id,omitempty" db:"id"`
	PublicKey     string          `json:"public_key" db:"public_key"`
	EventType     AuthEventType   `json:"event_type" db:"event_type"`
	Status        string          `json:"status" db:"status"`
	FailureReason *string         `json:"failure_reason,omitempty" db:"failure_reason"`
	Metadata      json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	IPAddress     string          `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent     string          `json:"user_agent,omitempty" db:"user_agent"`
	RequestID     string          `json:"request_id,omitempty" db:"request_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
