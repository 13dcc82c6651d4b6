package tefas

import (
	"context"
	"strings"
	"time"

	"fundtrack/internal/models"
)

// searchLookbackDays bounds how far back SearchFunds walks to find the most
// recent trading day with a published table.
const searchLookbackDays = 7

// SearchFunds lists funds whose code or name contains the fragment, from the
// most recent day the source has data for. An empty fragment lists the head
// of the table. The result is capped at limit entries.
func (c *Client) SearchFunds(ctx context.Context, fragment string, limit int) ([]models.FundPrice, error) {
	if limit <= 0 {
		limit = 20
	}
	fragment = strings.ToUpper(strings.TrimSpace(fragment))

	day := DateOnly(time.Now().UTC())
	for i := 0; i < searchLookbackDays; i++ {
		all, err := c.fetchRange(ctx, "", day, day)
		if err != nil {
			return nil, err
		}
		if len(all) == 0 {
			day = day.AddDate(0, 0, -1)
			continue
		}

		out := make([]models.FundPrice, 0, limit)
		for _, fp := range all {
			if fragment != "" &&
				!strings.Contains(fp.FundCode, fragment) &&
				!strings.Contains(strings.ToUpper(fp.FundName), fragment) {
				continue
			}
			out = append(out, fp)
			if len(out) >= limit {
				break
			}
		}
		return out, nil
	}
	return nil, ErrNotFound
}
