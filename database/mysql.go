package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"

	"inkline/models"
)

func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	slog.Info("database connected")
	return db, nil
}

// Preferences stores the colour theme, keyed by owner: "user:<id>" once
// signed in, "session:<id>" before.
type Preferences struct {
	db *sql.DB
}

func NewPreferences(db *sql.DB) *Preferences {
	return &Preferences{db: db}
}

func (p *Preferences) CreateTables(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS preferences (
			owner       VARCHAR(64) PRIMARY KEY,
			theme       ENUM('light', 'dark') NOT NULL,
			updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`)
	return err
}

// Theme returns the saved theme; ok is false when none was saved.
func (p *Preferences) Theme(ctx context.Context, owner string) (theme models.Theme, ok bool, err error) {
	var raw string
	err = p.db.QueryRowContext(ctx, "SELECT theme FROM preferences WHERE owner = ?", owner).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	theme, err = models.ParseTheme(raw)
	if err != nil {
		return "", false, err
	}
	return theme, true, nil
}

func (p *Preferences) SetTheme(ctx context.Context, owner string, theme models.Theme) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO preferences (owner, theme) VALUES (?, ?) ON DUPLICATE KEY UPDATE theme = VALUES(theme)",
		owner, string(theme),
	)
	return err
}
