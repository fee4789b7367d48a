package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/socialnomad/nomadblog/internal/backup"
	"github.com/socialnomad/nomadblog/internal/http/handlers"
)

type fakeEngine struct {
	exportFn  func(ctx context.Context) (backup.Snapshot, error)
	restoreFn func(ctx context.Context, raw []byte) error
}

func (f *fakeEngine) Export(ctx context.Context) (backup.Snapshot, error) {
	if f.exportFn != nil {
		return f.exportFn(ctx)
	}
	return backup.Snapshot{Users: []map[string]any{}, Blogs: []map[string]any{}}, nil
}

func (f *fakeEngine) Restore(ctx context.Context, raw []byte) error {
	if f.restoreFn != nil {
		return f.restoreFn(ctx, raw)
	}
	return nil
}

func TestBackupExport(t *testing.T) {
	engine := &fakeEngine{
		exportFn: func(context.Context) (backup.Snapshot, error) {
			return backup.Snapshot{
				Users: []map[string]any{{"id": "u-1", "username": "alice"}},
				Blogs: []map[string]any{{"id": "p-1", "title": "T"}},
			}, nil
		},
	}

	h := handlers.NewBackupHandler(engine, nil, nil)
	r := gin.New()
	r.GET("/backup", h.Backup)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/backup", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var snap backup.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("export is not valid json: %v", err)
	}

	if len(snap.Users) != 1 || len(snap.Blogs) != 1 {
		t.Fatalf("got %d users / %d blogs, want 1 / 1", len(snap.Users), len(snap.Blogs))
	}
}

func TestBackupExportFailure(t *testing.T) {
	engine := &fakeEngine{
		exportFn: func(context.Context) (backup.Snapshot, error) {
			return backup.Snapshot{}, errors.New("store down")
		},
	}

	h := handlers.NewBackupHandler(engine, nil, nil)
	r := gin.New()
	r.GET("/backup", h.Backup)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/backup", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", w.Code)
	}
}

func TestRestoreErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		restoreErr  error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "success",
			restoreErr:  nil,
			wantStatus:  http.StatusOK,
			wantMessage: "Backup restored successfully",
		},
		{
			name:        "invalid format",
			restoreErr:  fmt.Errorf("%w: blogs missing", backup.ErrInvalidFormat),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid backup format",
		},
		{
			name:        "commit failure",
			restoreErr:  fmt.Errorf("%w: transaction aborted", backup.ErrRestoreFailed),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Failed to restore backup",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{
				restoreFn: func(_ context.Context, raw []byte) error {
					return tt.restoreErr
				},
			}

			h := handlers.NewBackupHandler(engine, nil, nil)
			r := setupRouter(http.MethodPost, "/restore", h.Restore)

			w := doJSON(r, http.MethodPost, "/restore", `{"users":[],"blogs":[]}`)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if !strings.Contains(w.Body.String(), tt.wantMessage) {
				t.Fatalf("body %q does not mention %q", w.Body.String(), tt.wantMessage)
			}
		})
	}
}

func TestRestorePassesRawBodyThrough(t *testing.T) {
	var gotRaw []byte

	engine := &fakeEngine{
		restoreFn: func(_ context.Context, raw []byte) error {
			gotRaw = raw
			return nil
		},
	}

	h := handlers.NewBackupHandler(engine, nil, nil)
	r := setupRouter(http.MethodPost, "/restore", h.Restore)

	payload := `{"users":[{"id":"u-1"}],"blogs":[]}`
	w := doJSON(r, http.MethodPost, "/restore", payload)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if string(gotRaw) != payload {
		t.Fatalf("body must reach the engine untouched, got %s", gotRaw)
	}
}
