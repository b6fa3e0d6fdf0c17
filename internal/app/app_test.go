package app

import (
	"testing"

	"github.com/stackguia/stackguia/internal/log"
)

func TestApp_Close(t *testing.T) {
	tests := []struct {
		name string
		app  *App
	}{
		{name: "empty app", app: &App{}},
		{name: "with logger", app: &App{Logger: log.NewNop()}},
		{
			name: "with cleanup",
			app:  &App{Logger: log.NewNop(), dbCleanup: func() {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.app.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestApp_CloseRunsCleanup(t *testing.T) {
	called := false
	a := &App{Logger: log.NewNop(), dbCleanup: func() { called = true }}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !called {
		t.Error("Close() did not run the database cleanup")
	}
}
