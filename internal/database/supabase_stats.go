package database

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// GetUserStats calls get_user_stats. A user without a stats row gets zeros.
func (r *Repository) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}

	data, err := r.client.RPC(ctx, "get_user_stats", map[string]string{"target_user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("%w: get user stats: %w", ErrDatabaseError, err)
	}

	row := gjson.ParseBytes(data)
	if row.IsArray() {
		row = row.Get("0")
	}
	stats := &UserStats{}
	if !row.Exists() || row.Type == gjson.Null {
		return stats, nil
	}
	stats.ListingsCount = int(row.Get("listings_count").Int())
	stats.MessagesSentCount = int(row.Get("messages_sent_count").Int())
	stats.MessagesReceivedCount = int(row.Get("messages_received_count").Int())
	stats.RentPaymentsMadeCount = int(row.Get("rent_payments_made_count").Int())
	stats.UnreadMessagesCount = int(row.Get("unread_messages_count").Int())
	stats.ActiveAgreementsCount = int(row.Get("active_agreements_count").Int())
	return stats, nil
}
