// Package dbtest provides a scripted in-memory database.DB for tests.
// Handlers are matched against the SQL text in registration order, so a
// test can shape responses per statement without a real database.
package dbtest

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"apiforge/internal/database"
	"apiforge/internal/errs"
)

// Call records one statement the fake received.
type Call struct {
	SQL  string
	Args []any
}

// RowSet is a static result set.
type RowSet struct {
	Cols []string
	Data [][]any
}

// Handler answers statements whose SQL contains Match (case-insensitive).
type Handler struct {
	Match string
	Rows  *RowSet
	Exec  database.ExecResult
	Err   error
}

// FakeDB implements database.DB against scripted handlers.
// Safe for concurrent use.
type FakeDB struct {
	mu       sync.Mutex
	handlers []Handler
	calls    []Call

	PingErr error
	Closed  bool
}

// New returns an empty FakeDB.
func New() *FakeDB { return &FakeDB{} }

// On registers a handler for statements containing match.
func (f *FakeDB) On(match string, h Handler) *FakeDB {
	h.Match = match
	f.mu.Lock()
	f.handlers = append(f.handlers, h)
	f.mu.Unlock()
	return f
}

// OnRows registers a result set for statements containing match.
func (f *FakeDB) OnRows(match string, cols []string, data ...[]any) *FakeDB {
	return f.On(match, Handler{Rows: &RowSet{Cols: cols, Data: data}})
}

// OnErr registers an error for statements containing match.
func (f *FakeDB) OnErr(match string, err error) *FakeDB {
	return f.On(match, Handler{Err: err})
}

// OnExec registers an exec result for statements containing match.
func (f *FakeDB) OnExec(match string, res database.ExecResult) *FakeDB {
	return f.On(match, Handler{Exec: res})
}

// Calls returns a copy of every statement received so far.
func (f *FakeDB) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeDB) find(sql string, args []any) *Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{SQL: sql, Args: args})
	lower := strings.ToLower(sql)
	for i := range f.handlers {
		if strings.Contains(lower, strings.ToLower(f.handlers[i].Match)) {
			return &f.handlers[i]
		}
	}
	return nil
}

// --- database.DB implementation ---

func (f *FakeDB) Ping(ctx context.Context) error { return f.PingErr }

func (f *FakeDB) Close() {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
}

func (f *FakeDB) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	h := f.find(sql, args)
	if h == nil {
		return &fakeRows{set: &RowSet{}}, nil
	}
	if h.Err != nil {
		return nil, h.Err
	}
	if h.Rows == nil {
		return &fakeRows{set: &RowSet{}}, nil
	}
	return &fakeRows{set: h.Rows}, nil
}

func (f *FakeDB) QueryRow(ctx context.Context, sql string, args ...any) database.Row {
	h := f.find(sql, args)
	return &fakeRow{h: h}
}

func (f *FakeDB) Exec(ctx context.Context, sql string, args ...any) (database.ExecResult, error) {
	h := f.find(sql, args)
	if h == nil {
		return database.ExecResult{}, nil
	}
	if h.Err != nil {
		return database.ExecResult{}, h.Err
	}
	return h.Exec, nil
}

// --- result types ---

type fakeRows struct {
	set *RowSet
	idx int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.set.Data) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.set.Data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("dbtest: scan expected %d destinations, got %d", len(row), len(dest))
	}
	for i, v := range row {
		if err := assign(dest[i], v); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.set.Cols, nil }
func (r *fakeRows) Close()                     {}
func (r *fakeRows) Err() error                 { return nil }

type fakeRow struct {
	h *Handler
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.h == nil || r.h.Rows == nil || len(r.h.Rows.Data) == 0 {
		if r.h != nil && r.h.Err != nil {
			return r.h.Err
		}
		return errs.New(errs.ErrKindNotFound, "record not found")
	}
	if r.h.Err != nil {
		return r.h.Err
	}
	rows := fakeRows{set: r.h.Rows, idx: 1}
	return rows.Scan(dest...)
}

// assign copies v into the pointer dest, handling *T, **T and nil values.
func assign(dest, v any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("dbtest: scan destination must be a non-nil pointer, got %T", dest)
	}
	ev := dv.Elem()

	if v == nil {
		ev.Set(reflect.Zero(ev.Type()))
		return nil
	}

	vv := reflect.ValueOf(v)
	switch {
	case vv.Type().AssignableTo(ev.Type()):
		ev.Set(vv)
	case ev.Kind() == reflect.Ptr && vv.Type().ConvertibleTo(ev.Type().Elem()):
		p := reflect.New(ev.Type().Elem())
		p.Elem().Set(vv.Convert(ev.Type().Elem()))
		ev.Set(p)
	case vv.Type().ConvertibleTo(ev.Type()):
		ev.Set(vv.Convert(ev.Type()))
	default:
		return fmt.Errorf("dbtest: cannot scan %T into %T", v, dest)
	}
	return nil
}
