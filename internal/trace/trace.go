// Package trace 把一次会话的命令与事件流记入 SQLite, 供事后回放排查。
//
// 帧载荷只记录尺寸与字节数, 不落像素数据。
package trace

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // CGO-free SQLite

	"github.com/webview-bridge/go-webview-v2/internal/protocol"
	apperrors "github.com/webview-bridge/go-webview-v2/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions(
  id          TEXT    PRIMARY KEY,
  started_utc INTEGER NOT NULL,
  mode        TEXT    NOT NULL CHECK (mode IN ('memory','stdio','socket'))
);
CREATE TABLE IF NOT EXISTS records(
  id          INTEGER PRIMARY KEY,
  session_id  TEXT    NOT NULL REFERENCES sessions(id),
  ts_utc      INTEGER NOT NULL,
  direction   TEXT    NOT NULL CHECK (direction IN ('action','event')),
  type        TEXT    NOT NULL,
  detail_json TEXT    NOT NULL CHECK (json_valid(detail_json))
);
CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id);
CREATE INDEX IF NOT EXISTS idx_records_ts      ON records(ts_utc);
`

// Recorder 单会话追踪记录器。方法可并发调用 (*sql.DB 自身并发安全)。
type Recorder struct {
	db        *sql.DB
	sessionID string
}

// Record 一条已落库的追踪记录。
type Record struct {
	TS        time.Time
	Direction string
	Type      string
	Detail    string
}

// Open 打开 (或创建) 追踪库并登记一个新会话。
func Open(path, mode string) (*Recorder, error) {
	// WAL + busy timeout, 避免并发写时 "database is locked"
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.Wrapf(err, "trace", "open %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "trace", "create tables")
	}

	id := uuid.NewString()
	_, err = db.Exec(`INSERT INTO sessions(id, started_utc, mode) VALUES(?,?,?)`,
		id, time.Now().UnixMilli(), mode)
	if err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, "trace", "register session")
	}
	return &Recorder{db: db, sessionID: id}, nil
}

// SessionID 本会话标识。
func (r *Recorder) SessionID() string { return r.sessionID }

// RecordAction 记录一条出站命令。
func (r *Recorder) RecordAction(a protocol.Action) error {
	return r.insert("action", string(a.Type), a)
}

// RecordEvent 记录一条入站事件。帧事件的像素数据被摘要替换。
func (r *Recorder) RecordEvent(e protocol.Event) error {
	if e.Type == protocol.EventFrameReady && e.Frame != nil {
		summary := struct {
			Width  uint32 `json:"width"`
			Height uint32 `json:"height"`
			Bytes  int    `json:"bytes"`
		}{e.Frame.Width, e.Frame.Height, len(e.Frame.RGBA)}
		return r.insert("event", string(e.Type), summary)
	}
	return r.insert("event", string(e.Type), e)
}

func (r *Recorder) insert(direction, typ string, detail any) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return apperrors.Wrap(err, "trace", "marshal detail")
	}
	_, err = r.db.Exec(
		`INSERT INTO records(session_id, ts_utc, direction, type, detail_json) VALUES(?,?,?,?,json(?))`,
		r.sessionID, time.Now().UnixMilli(), direction, typ, string(data))
	if err != nil {
		return apperrors.Wrap(err, "trace", "insert record")
	}
	return nil
}

// Tail 返回本会话最近的 n 条记录, 按时间正序。
func (r *Recorder) Tail(n int) ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT ts_utc, direction, type, detail_json FROM (
			SELECT id, ts_utc, direction, type, detail_json
			FROM records WHERE session_id = ?
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, r.sessionID, n)
	if err != nil {
		return nil, apperrors.Wrap(err, "trace", "query tail")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var ts int64
		if err := rows.Scan(&ts, &rec.Direction, &rec.Type, &rec.Detail); err != nil {
			return nil, apperrors.Wrap(err, "trace", "scan record")
		}
		rec.TS = time.UnixMilli(ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count 本会话记录总数。
func (r *Recorder) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM records WHERE session_id = ?`, r.sessionID).Scan(&n)
	if err != nil {
		return 0, apperrors.Wrap(err, "trace", "count records")
	}
	return n, nil
}

// Close 关闭底层数据库。
func (r *Recorder) Close() error {
	return r.db.Close()
}
