// Package mysqltest provides a scripted database/sql driver for exercising
// MySQL-backed code without a server. Each expected operation is consumed in
// order; statements are compared after collapsing whitespace.
package mysqltest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type opKind int

const (
	opExec opKind = iota
	opQuery
	opBegin
	opCommit
	opRollback
)

func (k opKind) String() string {
	switch k {
	case opExec:
		return "exec"
	case opQuery:
		return "query"
	case opBegin:
		return "begin"
	case opCommit:
		return "commit"
	case opRollback:
		return "rollback"
	}
	return "unknown"
}

// Op is one expected driver interaction.
type Op struct {
	kind         opKind
	query        string
	lastInsertID int64
	rowsAffected int64
	columns      []string
	values       [][]driver.Value
	err          error
}

// Exec expects an ExecContext call. An empty query matches any statement.
func Exec(query string, rowsAffected int64) Op {
	return Op{kind: opExec, query: query, rowsAffected: rowsAffected}
}

// Query expects a QueryContext call returning the given rows.
func Query(query string, columns []string, values ...[]driver.Value) Op {
	return Op{kind: opQuery, query: query, columns: columns, values: values}
}

// Begin expects a transaction start.
func Begin() Op { return Op{kind: opBegin} }

// Commit expects a transaction commit.
func Commit() Op { return Op{kind: opCommit} }

// Rollback expects a transaction rollback.
func Rollback() Op { return Op{kind: opRollback} }

// WithError makes the operation fail with err.
func (o Op) WithError(err error) Op {
	o.err = err
	return o
}

// Call records the arguments a statement was executed with.
type Call struct {
	Query string
	Args  []driver.Value
}

// Driver replays the scripted operations.
type Driver struct {
	ops   []Op
	idx   atomic.Int32
	mu    sync.Mutex
	calls []Call
}

var seq atomic.Int32

// Open registers a fresh driver scripted with ops and opens a single-connection pool on it.
func Open(t testing.TB, ops ...Op) (*sql.DB, *Driver) {
	t.Helper()

	drv := &Driver{ops: ops}
	name := fmt.Sprintf("mysqltest-%d", seq.Add(1))
	sql.Register(name, drv)

	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("open scripted db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db, drv
}

// AssertConsumed fails the test when scripted operations remain.
func (d *Driver) AssertConsumed(t testing.TB) {
	t.Helper()
	if got := int(d.idx.Load()); got != len(d.ops) {
		t.Fatalf("not all operations consumed: %d/%d", got, len(d.ops))
	}
}

// Calls returns the exec and query statements seen so far.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Open implements driver.Driver.
func (d *Driver) Open(string) (driver.Conn, error) {
	return &conn{driver: d}, nil
}

func (d *Driver) next(expected opKind, query string, args []driver.NamedValue) (*Op, error) {
	idx := int(d.idx.Load())
	if idx >= len(d.ops) {
		return nil, fmt.Errorf("unexpected %s: %s", expected, normalize(query))
	}
	op := &d.ops[idx]
	if op.kind != expected {
		return nil, fmt.Errorf("expected %s, got %s", op.kind, expected)
	}
	d.idx.Add(1)
	if op.query != "" && normalize(op.query) != normalize(query) {
		return nil, fmt.Errorf("unexpected query. want %q got %q", normalize(op.query), normalize(query))
	}
	if expected == opExec || expected == opQuery {
		values := make([]driver.Value, len(args))
		for i, arg := range args {
			values[i] = arg.Value
		}
		d.mu.Lock()
		d.calls = append(d.calls, Call{Query: normalize(query), Args: values})
		d.mu.Unlock()
	}
	return op, op.err
}

type conn struct {
	driver *Driver
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported: %s", query)
}

func (c *conn) Close() error { return nil }

func (c *conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *conn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if _, err := c.driver.next(opBegin, "", nil); err != nil {
		return nil, err
	}
	return &tx{driver: c.driver}, nil
}

func (c *conn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	op, err := c.driver.next(opExec, query, args)
	if err != nil {
		return nil, err
	}
	return result{lastInsertID: op.lastInsertID, rowsAffected: op.rowsAffected}, nil
}

func (c *conn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	op, err := c.driver.next(opQuery, query, args)
	if err != nil {
		return nil, err
	}
	return &rows{columns: op.columns, values: op.values}, nil
}

func (c *conn) Ping(context.Context) error { return nil }

// CheckNamedValue accepts any argument type.
func (c *conn) CheckNamedValue(*driver.NamedValue) error { return nil }

type tx struct {
	driver *Driver
}

func (t *tx) Commit() error {
	_, err := t.driver.next(opCommit, "", nil)
	return err
}

func (t *tx) Rollback() error {
	_, err := t.driver.next(opRollback, "", nil)
	return err
}

type result struct {
	lastInsertID int64
	rowsAffected int64
}

func (r result) LastInsertId() (int64, error) { return r.lastInsertID, nil }
func (r result) RowsAffected() (int64, error) { return r.rowsAffected, nil }

type rows struct {
	columns []string
	values  [][]driver.Value
	idx     int
}

func (r *rows) Columns() []string { return r.columns }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.idx >= len(r.values) {
		return io.EOF
	}
	copy(dest, r.values[r.idx])
	r.idx++
	return nil
}

func normalize(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
