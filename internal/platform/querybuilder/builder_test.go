package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "status").
		From("matches").
		Where(Eq("status", "scheduled"), IsNull("cancel_reason")).
		OrderBy("scheduled_at").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, status FROM matches WHERE status = $1 AND cancel_reason IS NULL ORDER BY scheduled_at LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "scheduled" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("teams").
		Columns("id", "name").
		Values("team-north-hawks", "North Hawks").
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO teams (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "team-north-hawks" || args[1] != "North Hawks" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("matches").
		Set("status", "cancelled").
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", "match-1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE matches SET status = $1, updated_at = NOW() WHERE id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "cancelled" || args[1] != "match-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	row := struct {
		ID     string `db:"id"`
		Name   string `db:"name"`
		School string `db:"school_id"`
		Note   string `db:"-"`
	}{ID: "team-bay-orbits", Name: "Bay Orbits", School: "school-smk-teluk", Note: "ignored"}

	query, args, err := InsertModel("teams", row, "")
	if err != nil {
		t.Fatalf("build insert from model: %v", err)
	}

	wantQuery := "INSERT INTO teams (id, name, school_id) VALUES ($1, $2, $3)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "team-bay-orbits" {
		t.Fatalf("unexpected args: %+v", args)
	}
}