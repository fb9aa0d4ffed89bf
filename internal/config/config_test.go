package config

import (
	"context"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SQLITE_PATH", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("GOOGLE_SHEET_WORKSHEET", "")
	t.Setenv("GOOGLE_BANK_WORKSHEET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, DriverSQLite)
	}
	if cfg.SQLitePath != "notary.db" {
		t.Errorf("SQLitePath = %q, want notary.db", cfg.SQLitePath)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.GoogleSheetWorksheet != "Receivables" {
		t.Errorf("GoogleSheetWorksheet = %q, want Receivables", cfg.GoogleSheetWorksheet)
	}
	if cfg.GoogleBankWorksheet != "Bank" {
		t.Errorf("GoogleBankWorksheet = %q, want Bank", cfg.GoogleBankWorksheet)
	}
}

func TestLoad_DriverValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"postgres without dsn", map[string]string{"STORE_DRIVER": "postgres", "DATABASE_DSN": ""}, true},
		{"postgres with dsn", map[string]string{"STORE_DRIVER": "postgres", "DATABASE_DSN": "host=db user=u dbname=n"}, false},
		{"firestore without project", map[string]string{"STORE_DRIVER": "firestore", "FIRESTORE_PROJECT": "", "GOOGLE_CLOUD_PROJECT": ""}, true},
		{"firestore with project", map[string]string{"STORE_DRIVER": "firestore", "FIRESTORE_PROJECT": "office"}, false},
		{"memory", map[string]string{"STORE_DRIVER": "MEMORY"}, false},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("FromContext on empty context reported a config")
	}
	cfg := &Config{StoreDriver: DriverMemory}
	got, ok := FromContext(NewContext(context.Background(), cfg))
	if !ok || got != cfg {
		t.Errorf("FromContext() = %v, %v; want the stored config", got, ok)
	}
}
