package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"chat-relay/internal/chat"
)

// Postgres persists room state in two JSONB tables, one row per room,
// upserted wholesale on every write.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Postgres{db: db}, nil
}

func (s *Postgres) AutoMigrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS room_history (
            room TEXT PRIMARY KEY,
            entries JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,

		`CREATE TABLE IF NOT EXISTS room_members (
            room TEXT PRIMARY KEY,
            names JSONB NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *Postgres) SaveHistory(ctx context.Context, room string, history []chat.Message) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	query := `INSERT INTO room_history (room, entries, updated_at) VALUES ($1, $2, now())
        ON CONFLICT (room) DO UPDATE SET entries = EXCLUDED.entries, updated_at = now()`
	_, err = s.db.ExecContext(ctx, query, room, data)
	return err
}

func (s *Postgres) SaveMembers(ctx context.Context, room string, members []string) error {
	data, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	query := `INSERT INTO room_members (room, names, updated_at) VALUES ($1, $2, now())
        ON CONFLICT (room) DO UPDATE SET names = EXCLUDED.names, updated_at = now()`
	_, err = s.db.ExecContext(ctx, query, room, data)
	return err
}

func (s *Postgres) LoadHistory(ctx context.Context, room string) ([]chat.Message, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT entries FROM room_history WHERE room = $1", room).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var history []chat.Message
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return history, nil
}

func (s *Postgres) LoadMembers(ctx context.Context, room string) ([]string, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT names FROM room_members WHERE room = $1", room).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("unmarshal members: %w", err)
	}
	return members, nil
}

func (s *Postgres) Rooms(ctx context.Context) ([]string, error) {
	query := "SELECT room FROM room_history UNION SELECT room FROM room_members"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []string
	for rows.Next() {
		var room string
		if err := rows.Scan(&room); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (s *Postgres) Close() error {
	return s.db.Close()
}
