package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/marmos91/sigscan/pkg/journal"
)

// ListQuarantineOptions filters the journal listing.
type ListQuarantineOptions struct {
	Limit int
	Since time.Time
}

// ListQuarantine lists quarantine journal entries, newest first.
func (c *Client) ListQuarantine(ctx context.Context, opts ListQuarantineOptions) ([]journal.Entry, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if !opts.Since.IsZero() {
		query.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}

	var entries []journal.Entry
	if err := c.get(ctx, "/api/v1/quarantine", query, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetQuarantine fetches one journal entry by ID.
func (c *Client) GetQuarantine(ctx context.Context, id string) (*journal.Entry, error) {
	var entry journal.Entry
	if err := c.get(ctx, "/api/v1/quarantine/"+url.PathEscape(id), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
