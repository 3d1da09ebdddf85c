package db

import "testing"

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	if got := Postgres.Rebind(q); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Fatalf("postgres rebind = %q", got)
	}
	if got := SQLite.Rebind(q); got != q {
		t.Fatalf("sqlite rebind = %q, want unchanged", got)
	}
}

func TestParseDriver(t *testing.T) {
	cases := map[string]Driver{"": SQLite, "SQLite": SQLite, "postgres": Postgres, "pgx": Postgres}
	for in, want := range cases {
		got, err := ParseDriver(in)
		if err != nil {
			t.Fatalf("ParseDriver(%q): unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDriver(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseDriver("mysql"); err == nil {
		t.Fatal("expected error for mysql")
	}
}

func TestOpenInMemorySQLite(t *testing.T) {
	conn, err := Open(SQLite, ":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer conn.Close()

	var one int
	if err := conn.QueryRow("SELECT 1").Scan(&one); err != nil {
		t.Fatalf("query: %v", err)
	}
	if one != 1 {
		t.Fatalf("got %d, want 1", one)
	}
}
