package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventstream/pulse/internal/models"
)

const targetAppColumns = `id, app_id, app_name, is_active, created_at`

type TargetAppRepository struct {
	db *sqlx.DB
}

func NewTargetAppRepository(db *sqlx.DB) *TargetAppRepository {
	return &TargetAppRepository{db: db}
}

// List returns apps ordered by name, optionally only active ones.
func (r *TargetAppRepository) List(ctx context.Context, activeOnly bool) ([]models.TargetApp, error) {
	query := `SELECT ` + targetAppColumns + ` FROM target_apps`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY app_name, id`

	apps := []models.TargetApp{}
	if err := r.db.SelectContext(ctx, &apps, query); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *TargetAppRepository) GetByID(ctx context.Context, id int) (*models.TargetApp, error) {
	var app models.TargetApp
	if err := r.db.GetContext(ctx, &app, r.db.Rebind(`SELECT `+targetAppColumns+` FROM target_apps WHERE id = ?`), id); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *TargetAppRepository) GetByAppID(ctx context.Context, appID string) (*models.TargetApp, error) {
	var app models.TargetApp
	if err := r.db.GetContext(ctx, &app, r.db.Rebind(`SELECT `+targetAppColumns+` FROM target_apps WHERE app_id = ?`), appID); err != nil {
		return nil, err
	}
	return &app, nil
}

// FindByAppIDs returns the apps whose slug is in appIDs.
func (r *TargetAppRepository) FindByAppIDs(ctx context.Context, appIDs []string) ([]models.TargetApp, error) {
	apps := []models.TargetApp{}
	if len(appIDs) == 0 {
		return apps, nil
	}
	query, args, err := sqlx.In(`SELECT `+targetAppColumns+` FROM target_apps WHERE app_id IN (?)`, appIDs)
	if err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &apps, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *TargetAppRepository) Create(ctx context.Context, app *models.TargetApp) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO target_apps (app_id, app_name, is_active, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	if err := r.db.QueryRowxContext(ctx, query, app.AppID, app.AppName, app.IsActive, now).Scan(&app.ID); err != nil {
		return err
	}
	app.CreatedAt = now
	return nil
}

// Update changes the display name and active flag. The slug is immutable.
func (r *TargetAppRepository) Update(ctx context.Context, app *models.TargetApp) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE target_apps SET app_name = ?, is_active = ? WHERE id = ?`),
		app.AppName, app.IsActive, app.ID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// InsertIfMissing creates the app unless its slug already exists. It reports
// whether a row was inserted.
func (r *TargetAppRepository) InsertIfMissing(ctx context.Context, app models.TargetApp) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO target_apps (app_id, app_name, is_active, created_at)
		VALUES (?, ?, TRUE, ?)
		ON CONFLICT (app_id) DO NOTHING
	`), app.AppID, app.AppName, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
