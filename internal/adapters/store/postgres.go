package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Postgres implements Store on a PostgreSQL database via GORM.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects to the database and migrates the schema.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(
		&User{},
		&Credential{},
		&Route{},
		&Attempt{},
		&VerifiedActivity{},
		&LeaderboardEntry{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (p *Postgres) EligibleUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := p.db.WithContext(ctx).
		Where("is_active = ? AND is_email_verified = ? AND is_strava_connected = ?", true, true, true).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list eligible users: %w", err)
	}
	return users, nil
}

func (p *Postgres) UserByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := p.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

func (p *Postgres) AdvanceCheckpoint(ctx context.Context, userID string, t time.Time) error {
	res := p.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userID).
		Update("last_activity_check", t)
	if res.Error != nil {
		return fmt.Errorf("advance checkpoint: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Credential(ctx context.Context, userID string) (*Credential, error) {
	var cred Credential
	err := p.db.WithContext(ctx).First(&cred, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return &cred, nil
}

func (p *Postgres) SaveCredential(ctx context.Context, cred *Credential) error {
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(cred).Error
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (p *Postgres) ActiveRoutes(ctx context.Context) ([]Route, error) {
	var routes []Route
	err := p.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at").
		Find(&routes).Error
	if err != nil {
		return nil, fmt.Errorf("list active routes: %w", err)
	}
	return routes, nil
}

func (p *Postgres) RouteByID(ctx context.Context, id string) (*Route, error) {
	var route Route
	err := p.db.WithContext(ctx).First(&route, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load route: %w", err)
	}
	return &route, nil
}

func (p *Postgres) RouteByFilename(ctx context.Context, filename string) (*Route, error) {
	var route Route
	err := p.db.WithContext(ctx).First(&route, "filename = ?", filename).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load route by filename: %w", err)
	}
	return &route, nil
}

func (p *Postgres) SaveRoute(ctx context.Context, r *Route) error {
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(r).Error
	if err != nil {
		return fmt.Errorf("save route: %w", err)
	}
	return nil
}

func (p *Postgres) HasVerifiedActivity(ctx context.Context, stravaActivityID string) (bool, error) {
	var count int64
	err := p.db.WithContext(ctx).Model(&VerifiedActivity{}).
		Where("strava_activity_id = ?", stravaActivityID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check verified activity: %w", err)
	}
	return count > 0, nil
}

func (p *Postgres) RecordVerification(ctx context.Context, attempts []Attempt, activity *VerifiedActivity) (bool, error) {
	created := false
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Attempts are the audit trail; they land before the verified row.
		if len(attempts) > 0 {
			if err := tx.Create(&attempts).Error; err != nil {
				return fmt.Errorf("insert attempts: %w", err)
			}
		}

		if activity == nil {
			return nil
		}

		// Idempotent insert: the unique index on strava_activity_id is the
		// backstop against double counting under concurrent verification.
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "strava_activity_id"}},
			DoNothing: true,
		}).Create(activity)
		if res.Error != nil {
			return fmt.Errorf("insert verified activity: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Already verified; leave the leaderboard untouched.
			return nil
		}
		created = true

		return p.syncLeaderboard(tx, activity.UserID)
	})
	return created, err
}

// syncLeaderboard recomputes the user's aggregate inside the caller's
// transaction. Must run after the verified-activity insert.
func (p *Postgres) syncLeaderboard(tx *gorm.DB, userID string) error {
	var user User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("load user for leaderboard: %w", err)
	}

	var count int64
	err := tx.Model(&VerifiedActivity{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("count verified activities: %w", err)
	}

	entry := LeaderboardEntry{
		UserID:        userID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		ActivityCount: int(count),
		LastUpdated:   time.Now().UTC(),
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}

func (p *Postgres) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	q := p.db.WithContext(ctx).Order("activity_count DESC, last_updated ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	return entries, nil
}

func (p *Postgres) LeaderboardEntryFor(ctx context.Context, userID string) (*LeaderboardEntry, error) {
	var entry LeaderboardEntry
	err := p.db.WithContext(ctx).First(&entry, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load leaderboard entry: %w", err)
	}
	return &entry, nil
}
