package store

import "testing"

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  ", ""},
		{"url untouched", "postgres://u:p@db:5432/notary", "postgres://u:p@db:5432/notary"},
		{"quoted url", `"postgresql://u:p@db/notary"`, "postgresql://u:p@db/notary"},
		{"kv gets sslmode", "host=db  user=u\tdbname=notary", "host=db user=u dbname=notary sslmode=disable"},
		{"kv keeps sslmode", "host=db sslmode=require", "host=db sslmode=require"},
		{"unknown form", "notary.db", "notary.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDSN(tt.in); got != tt.want {
				t.Errorf("NormalizeDSN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaskDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"host=db password=secret user=u", "host=db password=*** user=u"},
		{"postgres://u:secret@db/notary", "postgres://u:***@db/notary"},
		{"host=db", "host=db"},
	}

	for _, tt := range tests {
		if got := MaskDSN(tt.in); got != tt.want {
			t.Errorf("MaskDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
