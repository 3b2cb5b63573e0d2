package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelminer.ai/internal/protocol"
	"voxelminer.ai/internal/sim/catalogs"
	"voxelminer.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index of the trace. Writes are queued and
// applied by one goroutine; when it falls behind events are dropped and counted,
// the JSONL trace stays the source of truth.
type SQLiteIndex struct {
	db  *sql.DB
	log *log.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
	written atomic.Uint64
}

type req struct {
	ev    protocol.TraceEvent
	flush chan struct{}
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropTotal     uint64
	WriteTotal    uint64
}

// OpenSQLite opens or creates the index at path. A nil logger discards.
func OpenSQLite(path string, logger *log.Logger) (*SQLiteIndex, error) {
	return openSQLite(path, 65536, logger)
}

func openSQLite(path string, queue int, logger *log.Logger) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &SQLiteIndex{
		db:  db,
		log: logger,
		ch:  make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			start_tick INTEGER NOT NULL,
			end_tick INTEGER,
			message TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS targets (
			session_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			distance INTEGER NOT NULL,
			cost REAL NOT NULL,
			PRIMARY KEY (session_id, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			session_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			task TEXT NOT NULL,
			status TEXT NOT NULL,
			code TEXT,
			ticks INTEGER NOT NULL,
			PRIMARY KEY (session_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_kind ON outcomes(session_id, kind, status);`,
		`CREATE TABLE IF NOT EXISTS blocks (
			session_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			from_block TEXT NOT NULL,
			to_block TEXT NOT NULL,
			PRIMARY KEY (session_id, tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_pos ON blocks(x, z, y, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteEvent queues ev for indexing. It never blocks.
func (s *SQLiteIndex) WriteEvent(ev protocol.TraceEvent) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{ev: ev}:
	default:
		s.dropped.Add(1)
	}
	return nil
}

// Flush waits until everything queued so far is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{flush: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTotal:     s.dropped.Load(),
		WriteTotal:    s.written.Load(),
	}
}

// UpsertCatalogs stores the palettes and the tuning a session ran with.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning, settings map[string]float64) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}
	if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "items_palette", digest: cats.Items.PaletteDigest, json: b})
	}
	for name, v := range map[string]any{"tuning": tune, "settings": settings} {
		b, _ := json.Marshal(v)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: name, digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// OutcomeCounts groups a session's task outcomes by "KIND/STATUS".
func (s *SQLiteIndex) OutcomeCounts(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, status, COUNT(*) FROM outcomes WHERE session_id=? GROUP BY kind, status`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var kind, status string
		var n int
		if err := rows.Scan(&kind, &status, &n); err != nil {
			return nil, err
		}
		out[kind+"/"+status] = n
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	prepare := func(name, query string) *sql.Stmt {
		st, err := s.db.Prepare(query)
		if err != nil {
			s.log.Printf("index: prepare %s: %v", name, err)
			return nil
		}
		return st
	}
	insertSession := prepare("insert session", `INSERT OR REPLACE INTO sessions(session_id,start_tick) VALUES(?,?)`)
	endSession := prepare("end session", `UPDATE sessions SET end_tick=?, message=? WHERE session_id=?`)
	insertTarget := prepare("insert target", `INSERT OR REPLACE INTO targets(session_id,tick,x,y,z,distance,cost) VALUES(?,?,?,?,?,?,?)`)
	insertOutcome := prepare("insert outcome", `INSERT OR REPLACE INTO outcomes(session_id,tick,seq,kind,task,status,code,ticks) VALUES(?,?,?,?,?,?,?,?)`)
	insertBlock := prepare("insert block", `INSERT OR REPLACE INTO blocks(session_id,tick,seq,x,y,z,from_block,to_block) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertSession, endSession, insertTarget, insertOutcome, insertBlock} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastTick uint64
		seq      int
	)

	// opCount events sit in the open tx; they count as written on commit and as
	// dropped when the tx is lost.
	begin := func() bool {
		if tx != nil {
			return true
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.log.Printf("index: begin: %v", err)
			time.Sleep(50 * time.Millisecond)
			return false
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
		return true
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.log.Printf("index: commit %d events: %v", opCount, err)
			s.dropped.Add(uint64(opCount))
		} else {
			s.written.Add(uint64(opCount))
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		s.dropped.Add(uint64(opCount))
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			s.dropped.Add(1)
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			s.log.Printf("index: exec: %v; dropping %d events", err, opCount+1)
			s.dropped.Add(1)
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		if r.flush != nil {
			commit()
			close(r.flush)
			continue
		}
		ev := r.ev
		if !begin() {
			s.dropped.Add(1)
			continue
		}
		if ev.Tick != lastTick {
			lastTick = ev.Tick
			seq = 0
		}
		pos := [3]int{}
		if ev.Pos != nil {
			pos = *ev.Pos
		}
		switch ev.Type {
		case protocol.EventSessionStart:
			exec(insertSession, ev.SessionID, int64(ev.Tick))
		case protocol.EventSessionEnd:
			exec(endSession, int64(ev.Tick), ev.Message, ev.SessionID)
		case protocol.EventTarget:
			cost := 0.0
			if ev.Cost != nil {
				cost = *ev.Cost
			}
			exec(insertTarget, ev.SessionID, int64(ev.Tick), pos[0], pos[1], pos[2], ev.Distance, cost)
		case protocol.EventTaskDone, protocol.EventTaskFail:
			exec(insertOutcome, ev.SessionID, int64(ev.Tick), seq, ev.Kind, ev.Task, ev.Status, ev.Code, ev.Ticks)
			seq++
		case protocol.EventBlockChange:
			exec(insertBlock, ev.SessionID, int64(ev.Tick), seq, pos[0], pos[1], pos[2], ev.From, ev.To)
			seq++
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
