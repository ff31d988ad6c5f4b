package db

import "testing"

func TestNewPostgresDBRejectsEmptyDSN(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		if _, err := NewPostgresDB(dsn); err == nil {
			t.Errorf("NewPostgresDB(%q): expected error", dsn)
		}
	}
}
