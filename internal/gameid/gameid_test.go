package gameid

import (
	"strings"
	"testing"
	"time"
)

func TestNewTableID(t *testing.T) {
	id := NewTableID()
	if !strings.HasPrefix(id, "tbl_") {
		t.Errorf("expected tbl_ prefix, got %s", id)
	}
	if err := Validate(id, TablePrefix); err != nil {
		t.Errorf("generated ID failed validation: %v", err)
	}
}

func TestNewHandID(t *testing.T) {
	id := NewHandID()
	if err := Validate(id, HandPrefix); err != nil {
		t.Errorf("generated ID failed validation: %v", err)
	}
}

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator(TablePrefix, nil)
	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		if ids[id] {
			t.Errorf("duplicate ID generated: %s", id)
		}
		ids[id] = true
	}
}

func TestGenerateTimeSorted(t *testing.T) {
	gen := NewGenerator(HandPrefix, nil)
	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, gen.Generate())
		time.Sleep(time.Millisecond)
	}
	for i := 1; i < len(ids); i++ {
		if strings.Compare(ids[i-1], ids[i]) >= 0 {
			t.Errorf("IDs not sorted: %s >= %s", ids[i-1], ids[i])
		}
	}
}

type fixedSource struct{ v int }

func (f fixedSource) Intn(n int) int { return f.v % n }

func TestGenerateDeterministicSuffix(t *testing.T) {
	a := NewGenerator(TablePrefix, fixedSource{v: 7}).Generate()
	b := NewGenerator(TablePrefix, fixedSource{v: 7}).Generate()
	// Same random payload within the same millisecond.
	if a[:10] != b[:10] {
		t.Errorf("expected shared timestamp prefix, got %s vs %s", a, b)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		prefix  string
		wantErr bool
	}{
		{"valid", NewTableID(), TablePrefix, false},
		{"wrong prefix", NewTableID(), HandPrefix, true},
		{"no prefix", strings.Repeat("0", 26), TablePrefix, true},
		{"short suffix", "tbl_0123", TablePrefix, true},
		{"bad first char", "tbl_z" + strings.Repeat("0", 25), TablePrefix, true},
		{"invalid character", "tbl_0" + strings.Repeat("u", 25), TablePrefix, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id, tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q, %q) error = %v, wantErr %v", tt.id, tt.prefix, err, tt.wantErr)
			}
		})
	}
}
