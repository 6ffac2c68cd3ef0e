package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventstream/pulse/internal/models"
)

// AnalyticsRepository appends impressions and taps. Rows are never updated.
type AnalyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func eventTable(kind models.EventKind) (string, error) {
	switch kind {
	case models.EventImpression:
		return "message_impressions", nil
	case models.EventTap:
		return "message_taps", nil
	}
	return "", fmt.Errorf("unknown event kind %q", kind)
}

// Record appends one event row and returns its id.
func (r *AnalyticsRepository) Record(ctx context.Context, kind models.EventKind, messageID int, appID string, at time.Time) (int, error) {
	table, err := eventTable(kind)
	if err != nil {
		return 0, err
	}
	var id int
	query := r.db.Rebind(`INSERT INTO ` + table + ` (message_id, app_id, timestamp) VALUES (?, ?, ?) RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, query, messageID, appID, at.UTC()).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

type appCount struct {
	AppID string `db:"app_id"`
	Count int    `db:"n"`
}

func (r *AnalyticsRepository) countByApp(ctx context.Context, table string, messageID int) ([]appCount, error) {
	rows := []appCount{}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT app_id, COUNT(*) AS n FROM `+table+` WHERE message_id = ? GROUP BY app_id
	`), messageID)
	return rows, err
}

// Stats aggregates impressions and taps for a message, broken down per app.
func (r *AnalyticsRepository) Stats(ctx context.Context, messageID int) (*models.MessageStats, error) {
	imps, err := r.countByApp(ctx, "message_impressions", messageID)
	if err != nil {
		return nil, fmt.Errorf("count impressions: %w", err)
	}
	taps, err := r.countByApp(ctx, "message_taps", messageID)
	if err != nil {
		return nil, fmt.Errorf("count taps: %w", err)
	}

	byApp := map[string]*models.AppEventCount{}
	get := func(appID string) *models.AppEventCount {
		if c, ok := byApp[appID]; ok {
			return c
		}
		c := &models.AppEventCount{AppID: appID}
		byApp[appID] = c
		return c
	}
	stats := &models.MessageStats{MessageID: messageID, ByApp: []models.AppEventCount{}}
	for _, c := range imps {
		get(c.AppID).Impressions = c.Count
		stats.Impressions += c.Count
	}
	for _, c := range taps {
		get(c.AppID).Taps = c.Count
		stats.Taps += c.Count
	}
	for _, c := range byApp {
		c.CTR = models.ClickThroughRate(c.Impressions, c.Taps)
		stats.ByApp = append(stats.ByApp, *c)
	}
	sort.Slice(stats.ByApp, func(i, j int) bool { return stats.ByApp[i].AppID < stats.ByApp[j].AppID })
	stats.CTR = models.ClickThroughRate(stats.Impressions, stats.Taps)
	return stats, nil
}

// Totals returns impression and tap counts keyed by message id.
func (r *AnalyticsRepository) Totals(ctx context.Context, messageIDs []int) (map[int]models.AppEventCount, error) {
	out := make(map[int]models.AppEventCount, len(messageIDs))
	if len(messageIDs) == 0 {
		return out, nil
	}
	for _, kind := range []models.EventKind{models.EventImpression, models.EventTap} {
		table, _ := eventTable(kind)
		query, args, err := sqlx.In(`SELECT message_id, COUNT(*) AS n FROM `+table+` WHERE message_id IN (?) GROUP BY message_id`, messageIDs)
		if err != nil {
			return nil, err
		}
		var rows []struct {
			MessageID int `db:"message_id"`
			Count     int `db:"n"`
		}
		if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
			return nil, err
		}
		for _, row := range rows {
			c := out[row.MessageID]
			if kind == models.EventImpression {
				c.Impressions = row.Count
			} else {
				c.Taps = row.Count
			}
			out[row.MessageID] = c
		}
	}
	return out, nil
}
