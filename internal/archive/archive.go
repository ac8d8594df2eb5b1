// Package archive records applied moves and finished games in SQLite. It is
// write-behind history only: the archive is never read back into a live
// session, and a failed write never fails the move that triggered it.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          TEXT PRIMARY KEY,
	created_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	moves       INTEGER NOT NULL DEFAULT 0,
	final_fen   TEXT
);

CREATE TABLE IF NOT EXISTS moves (
	game_id   TEXT NOT NULL REFERENCES games(id),
	ply       INTEGER NOT NULL,
	from_sq   TEXT NOT NULL,
	to_sq     TEXT NOT NULL,
	fen       TEXT NOT NULL,
	played_at TIMESTAMP NOT NULL,
	PRIMARY KEY (game_id, ply)
);
`

// GameRecord is one archived game.
type GameRecord struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Moves      int        `json:"moves"`
	FinalFEN   string     `json:"finalFen,omitempty"`
}

type writeOp func(*sql.DB) error

// Archive implements game.Recorder over SQLite. All writes funnel through a
// single goroutine; SQLite tolerates concurrent reads but not concurrent
// writers. Recording methods enqueue without blocking and drop on overflow.
type Archive struct {
	db      *sql.DB
	writeCh chan writeOp
	logger  *zap.Logger

	shutdown  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open opens (or creates) the archive database at path.
func Open(path string, logger *zap.Logger) (*Archive, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}

	a := &Archive{
		db:       db,
		writeCh:  make(chan writeOp, 256),
		logger:   logger,
		shutdown: make(chan struct{}),
	}

	a.wg.Add(1)
	go a.writeLoop()

	return a, nil
}

func (a *Archive) writeLoop() {
	defer a.wg.Done()

	for {
		select {
		case op := <-a.writeCh:
			if err := op(a.db); err != nil {
				a.logger.Error("archive write failed", zap.Error(err))
			}
		case <-a.shutdown:
			// Drain what is already queued before exiting.
			for {
				select {
				case op := <-a.writeCh:
					if err := op(a.db); err != nil {
						a.logger.Error("archive write failed", zap.Error(err))
					}
				default:
					return
				}
			}
		}
	}
}

func (a *Archive) enqueue(op writeOp) {
	select {
	case a.writeCh <- op:
	case <-a.shutdown:
	default:
		a.logger.Warn("archive queue full, record dropped")
	}
}

// GameStarted records a freshly created session.
func (a *Archive) GameStarted(id string) {
	now := time.Now().UTC()
	a.enqueue(func(db *sql.DB) error {
		_, err := db.Exec(`INSERT OR IGNORE INTO games (id, created_at) VALUES (?, ?)`, id, now)
		return err
	})
}

// MoveRecorded appends one applied move.
func (a *Archive) MoveRecorded(id string, ply int, from, to, fen string) {
	now := time.Now().UTC()
	a.enqueue(func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT OR IGNORE INTO moves (game_id, ply, from_sq, to_sq, fen, played_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, ply, from, to, fen, now)
		return err
	})
}

// GameFinished marks a destroyed session's game as over.
func (a *Archive) GameFinished(id, finalFEN string) {
	now := time.Now().UTC()
	a.enqueue(func(db *sql.DB) error {
		_, err := db.Exec(
			`UPDATE games SET finished_at = ?, final_fen = ?,
				moves = (SELECT COUNT(*) FROM moves WHERE game_id = ?)
			 WHERE id = ?`,
			now, finalFEN, id, id)
		return err
	})
}

// ListGames returns the most recently created games, newest first.
func (a *Archive) ListGames(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT id, created_at, finished_at, moves, COALESCE(final_fen, '')
		 FROM games ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		if err := rows.Scan(&g.ID, &g.CreatedAt, &g.FinishedAt, &g.Moves, &g.FinalFEN); err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Flush blocks until every record enqueued before the call is written.
func (a *Archive) Flush() {
	done := make(chan struct{})
	select {
	case a.writeCh <- func(*sql.DB) error { close(done); return nil }:
		<-done
	case <-a.shutdown:
	}
}

// Close drains pending writes and closes the database. Idempotent.
func (a *Archive) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.shutdown)
		a.wg.Wait()
		err = a.db.Close()
	})
	return err
}
