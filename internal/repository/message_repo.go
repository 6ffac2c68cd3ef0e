package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventstream/pulse/internal/models"
)

const messageColumns = `m.id, m.title, m.body, m.image_url, m.cta_text, m.cta_action,
	m.message_type, m.banner_position, m.priority, m.is_dismissible,
	m.background_color, m.title_color, m.body_color, m.button_color, m.button_text_color,
	m.start_date, m.end_date, m.is_active, m.created_at, m.updated_at, m.created_by`

type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// GetByID returns a message with its target app slugs.
func (r *MessageRepository) GetByID(ctx context.Context, id int) (*models.Message, error) {
	msg, err := getMessage(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	msgs := []models.Message{*msg}
	if err := loadTargets(ctx, r.db, msgs); err != nil {
		return nil, err
	}
	return &msgs[0], nil
}

func (r *MessageRepository) Exists(ctx context.Context, id int) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM messages WHERE id = ?`), id); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListCandidates returns enabled messages that target appID. Schedule windows
// are not evaluated here.
func (r *MessageRepository) ListCandidates(ctx context.Context, appID string) ([]models.Message, error) {
	query := r.db.Rebind(`
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN message_target_apps mta ON mta.message_id = m.id
		JOIN target_apps ta ON ta.id = mta.target_app_id
		WHERE ta.app_id = ? AND m.is_active = TRUE
	`)
	msgs := []models.Message{}
	if err := r.db.SelectContext(ctx, &msgs, query, appID); err != nil {
		return nil, err
	}
	if err := loadTargets(ctx, r.db, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// List returns a filtered page of messages, newest first, plus the total count.
func (r *MessageRepository) List(ctx context.Context, f models.MessageFilter) ([]models.Message, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.IsActive != nil {
		where = append(where, "m.is_active = ?")
		args = append(args, *f.IsActive)
	}
	if f.MessageType != "" {
		where = append(where, "m.message_type = ?")
		args = append(args, f.MessageType)
	}
	if f.Priority > 0 {
		where = append(where, "m.priority = ?")
		args = append(args, f.Priority)
	}
	if f.AppID != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM message_target_apps mta
			JOIN target_apps ta ON ta.id = mta.target_app_id
			WHERE mta.message_id = m.id AND ta.app_id = ?)`)
		args = append(args, f.AppID)
	}
	if f.Search != "" {
		where = append(where, "(LOWER(m.title) LIKE LOWER(?) OR LOWER(m.body) LIKE LOWER(?))")
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM messages m`+whereSQL), args...); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	query := `SELECT ` + messageColumns + ` FROM messages m` + whereSQL +
		` ORDER BY m.created_at DESC, m.id DESC LIMIT ? OFFSET ?`
	pageArgs := append(append([]interface{}{}, args...), limit, (page-1)*limit)

	msgs := []models.Message{}
	if err := r.db.SelectContext(ctx, &msgs, r.db.Rebind(query), pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	if err := loadTargets(ctx, r.db, msgs); err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// Create inserts the message and its targets in one transaction.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	now := time.Now().UTC()
	msg.CreatedAt, msg.UpdatedAt = now, now
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		id, err := insertMessage(ctx, tx, msg)
		if err != nil {
			return err
		}
		msg.ID = id
		return replaceTargets(ctx, tx, id, msg.TargetAppIDs)
	})
}

// Update overwrites all editable fields. Targets are replaced when replaceTargetIDs is true.
func (r *MessageRepository) Update(ctx context.Context, msg *models.Message, replaceTargetIDs bool) error {
	msg.UpdatedAt = time.Now().UTC()
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE messages SET
				title = ?, body = ?, image_url = ?, cta_text = ?, cta_action = ?,
				message_type = ?, banner_position = ?, priority = ?, is_dismissible = ?,
				background_color = ?, title_color = ?, body_color = ?, button_color = ?, button_text_color = ?,
				start_date = ?, end_date = ?, is_active = ?, updated_at = ?
			WHERE id = ?
		`),
			msg.Title, msg.Body, msg.ImageURL, msg.CTAText, msg.CTAAction,
			msg.MessageType, msg.BannerPosition, msg.Priority, msg.IsDismissible,
			msg.BackgroundColor, msg.TitleColor, msg.BodyColor, msg.ButtonColor, msg.ButtonTextColor,
			msg.StartDate.UTC(), utcPtr(msg.EndDate), msg.IsActive, msg.UpdatedAt,
			msg.ID,
		)
		if err != nil {
			return err
		}
		if err := expectOne(res); err != nil {
			return err
		}
		if !replaceTargetIDs {
			return nil
		}
		return replaceTargets(ctx, tx, msg.ID, msg.TargetAppIDs)
	})
}

func (r *MessageRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM messages WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// SetActive flips is_active for one message.
func (r *MessageRepository) SetActive(ctx context.Context, id int, active bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE messages SET is_active = ?, updated_at = ? WHERE id = ?`),
		active, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *MessageRepository) UpdateImageURL(ctx context.Context, id int, url string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE messages SET image_url = ?, updated_at = ? WHERE id = ?`),
		url, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Duplicate copies a message with its schedule and targets as an inactive
// draft titled "Copy of <title>". It returns the new message id.
func (r *MessageRepository) Duplicate(ctx context.Context, id int, title string) (int, error) {
	var newID int
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		src, err := getMessage(ctx, tx, id)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		src.Title = title
		src.IsActive = false
		src.CreatedAt, src.UpdatedAt = now, now
		if newID, err = insertMessage(ctx, tx, src); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO message_target_apps (message_id, target_app_id)
			SELECT CAST(? AS INTEGER), target_app_id FROM message_target_apps WHERE message_id = ?
		`), newID, id)
		return err
	})
	return newID, err
}

// TargetAll adds every active app to the message's targets, keeping existing ones.
func (r *MessageRepository) TargetAll(ctx context.Context, id int) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE messages SET updated_at = ? WHERE id = ?`), time.Now().UTC(), id)
		if err != nil {
			return err
		}
		if err := expectOne(res); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO message_target_apps (message_id, target_app_id)
			SELECT CAST(? AS INTEGER), id FROM target_apps WHERE is_active = TRUE
			ON CONFLICT (message_id, target_app_id) DO NOTHING
		`), id)
		return err
	})
}

func getMessage(ctx context.Context, q sqlx.ExtContext, id int) (*models.Message, error) {
	var msg models.Message
	if err := sqlx.GetContext(ctx, q, &msg, q.Rebind(`SELECT `+messageColumns+` FROM messages m WHERE m.id = ?`), id); err != nil {
		return nil, err
	}
	return &msg, nil
}

func insertMessage(ctx context.Context, q sqlx.ExtContext, msg *models.Message) (int, error) {
	var id int
	err := q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO messages (
			title, body, image_url, cta_text, cta_action,
			message_type, banner_position, priority, is_dismissible,
			background_color, title_color, body_color, button_color, button_text_color,
			start_date, end_date, is_active, created_at, updated_at, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		msg.Title, msg.Body, msg.ImageURL, msg.CTAText, msg.CTAAction,
		msg.MessageType, msg.BannerPosition, msg.Priority, msg.IsDismissible,
		msg.BackgroundColor, msg.TitleColor, msg.BodyColor, msg.ButtonColor, msg.ButtonTextColor,
		msg.StartDate.UTC(), utcPtr(msg.EndDate), msg.IsActive, msg.CreatedAt.UTC(), msg.UpdatedAt.UTC(), msg.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

// replaceTargets sets the message's targets to the apps with the given slugs.
func replaceTargets(ctx context.Context, q sqlx.ExtContext, messageID int, appIDs []string) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM message_target_apps WHERE message_id = ?`), messageID); err != nil {
		return fmt.Errorf("clear targets: %w", err)
	}
	if len(appIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
		INSERT INTO message_target_apps (message_id, target_app_id)
		SELECT CAST(? AS INTEGER), id FROM target_apps WHERE app_id IN (?)
	`, messageID, appIDs)
	if err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("insert targets: %w", err)
	}
	return nil
}

// loadTargets fills TargetAppIDs for each message in place.
func loadTargets(ctx context.Context, q sqlx.ExtContext, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ids := make([]int, len(msgs))
	for i := range msgs {
		ids[i] = msgs[i].ID
		msgs[i].TargetAppIDs = []string{}
	}
	query, args, err := sqlx.In(`
		SELECT mta.message_id, ta.app_id
		FROM message_target_apps mta
		JOIN target_apps ta ON ta.id = mta.target_app_id
		WHERE mta.message_id IN (?)
		ORDER BY ta.app_id
	`, ids)
	if err != nil {
		return err
	}
	var rows []struct {
		MessageID int    `db:"message_id"`
		AppID     string `db:"app_id"`
	}
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("load targets: %w", err)
	}
	byID := make(map[int]*models.Message, len(msgs))
	for i := range msgs {
		byID[msgs[i].ID] = &msgs[i]
	}
	for _, row := range rows {
		if m, ok := byID[row.MessageID]; ok {
			m.TargetAppIDs = append(m.TargetAppIDs, row.AppID)
		}
	}
	return nil
}

func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
