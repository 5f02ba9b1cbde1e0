package migrations

import (
	"io/fs"
	"testing"
	"testing/fstest"
)

func TestListMigrationsOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"V10__late.sql": {Data: []byte("SELECT 1;")},
		"V2__uac.sql":   {Data: []byte("SELECT 1;")},
		"V1__init.sql":  {Data: []byte("SELECT 1;")},
		"README.md":     {Data: []byte("ignored")},
	}
	migs, err := listMigrations(fsys)
	if err != nil {
		t.Fatalf("listMigrations: %v", err)
	}
	want := []string{"V1__init.sql", "V2__uac.sql", "V10__late.sql"}
	if len(migs) != len(want) {
		t.Fatalf("expected %d migrations, got %d", len(want), len(migs))
	}
	for i, name := range want {
		if migs[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, migs[i].Name)
		}
	}
}

func TestListMigrationsRejectsBadNames(t *testing.T) {
	cases := []fstest.MapFS{
		{"init.sql": {Data: []byte("")}},
		{"V1__a.sql": {Data: []byte("")}, "V1__b.sql": {Data: []byte("")}},
		{"V0__zero.sql": {Data: []byte("")}},
	}
	for i, fsys := range cases {
		if _, err := listMigrations(fsys); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	migs, err := listMigrations(Files())
	if err != nil {
		t.Fatalf("embedded migrations: %v", err)
	}
	if len(migs) < 3 {
		t.Fatalf("expected at least 3 embedded migrations, got %d", len(migs))
	}
	for _, mig := range migs {
		content, err := fs.ReadFile(Files(), mig.Name)
		if err != nil || len(content) == 0 {
			t.Fatalf("migration %s is empty or unreadable", mig.Name)
		}
	}
}
