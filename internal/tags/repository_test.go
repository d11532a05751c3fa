package tags_test

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/prombank/internal/schema/schematest"
	"github.com/JaimeStill/prombank/internal/tags"
	"github.com/JaimeStill/prombank/pkg/patch"
	"github.com/JaimeStill/prombank/pkg/repository"
)

func newSystem(t *testing.T) (tags.System, *sql.DB) {
	t.Helper()
	db := schematest.Open(t)
	return tags.New(db, schematest.Logger()), db
}

func insertPrompt(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO prompts (id, title, content, import_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, "t", "c", "h", now, now,
	)
	if err != nil {
		t.Fatalf("insert prompt: %v", err)
	}
	return id
}

func assign(t *testing.T, db *sql.DB, promptID uuid.UUID, names ...string) []tags.Tag {
	t.Helper()
	resolved, err := repository.WithTx(context.Background(), db, func(tx *sql.Tx) ([]tags.Tag, error) {
		resolved, err := tags.Resolve(context.Background(), tx, names)
		if err != nil {
			return nil, err
		}
		return resolved, tags.Assign(context.Background(), tx, promptID, resolved)
	})
	if err != nil {
		t.Fatalf("assign tags: %v", err)
	}
	return resolved
}

func names(ts []tags.Tag) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func TestNormalize(t *testing.T) {
	got := tags.Normalize([]string{" go ", "", "db", "go", "  ", "api"})
	if want := []string{"go", "db", "api"}; !slices.Equal(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}

	if got := tags.Split("a, b,,a ,c"); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Split = %v", got)
	}
}

func TestCRUD(t *testing.T) {
	sys, _ := newSystem(t)
	ctx := context.Background()

	tag, err := sys.Create(ctx, tags.CreateCommand{Name: "review"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := sys.Create(ctx, tags.CreateCommand{Name: "review"}); !errors.Is(err, tags.ErrDuplicate) {
		t.Errorf("duplicate err = %v", err)
	}
	if _, err := sys.Create(ctx, tags.CreateCommand{Name: "x", Color: new("blue")}); !errors.Is(err, tags.ErrValidation) {
		t.Errorf("bad color err = %v", err)
	}

	found, err := sys.FindByName(ctx, "review")
	if err != nil || found.ID != tag.ID {
		t.Fatalf("FindByName = %+v, %v", found, err)
	}

	updated, err := sys.Update(ctx, tag.ID, tags.UpdateCommand{Name: patch.Value("code-review"), Color: patch.Value("#abcdef")})
	if err != nil || updated.Name != "code-review" || *updated.Color != "#abcdef" {
		t.Fatalf("Update = %+v, %v", updated, err)
	}

	ok, err := sys.Delete(ctx, tag.ID)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if _, err := sys.Find(ctx, tag.ID); !errors.Is(err, tags.ErrNotFound) {
		t.Errorf("Find after delete err = %v", err)
	}
	if ok, _ := sys.Delete(ctx, tag.ID); ok {
		t.Error("second Delete should report false")
	}
}

func TestDeleteRemovesAssociations(t *testing.T) {
	sys, db := newSystem(t)
	ctx := context.Background()

	p := insertPrompt(t, db)
	resolved := assign(t, db, p, "one", "two")

	if ok, err := sys.Delete(ctx, resolved[0].ID); err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}

	byPrompt, err := tags.ForPrompts(ctx, db, []uuid.UUID{p})
	if err != nil {
		t.Fatalf("ForPrompts: %v", err)
	}
	if got := names(byPrompt[p]); !slices.Equal(got, []string{"two"}) {
		t.Errorf("remaining tags = %v, want [two]", got)
	}
}

func TestResolveAndAssign(t *testing.T) {
	sys, db := newSystem(t)
	ctx := context.Background()

	existing, _ := sys.Create(ctx, tags.CreateCommand{Name: "go"})

	p := insertPrompt(t, db)
	resolved := assign(t, db, p, "go", " sql ", "go", "")
	if got := names(resolved); !slices.Equal(got, []string{"go", "sql"}) {
		t.Fatalf("resolved = %v", got)
	}
	if resolved[0].ID != existing.ID {
		t.Error("existing tag should be reused")
	}

	assign(t, db, p, "api")
	byPrompt, _ := tags.ForPrompts(ctx, db, []uuid.UUID{p})
	if got := names(byPrompt[p]); !slices.Equal(got, []string{"api"}) {
		t.Errorf("tags after replace = %v, want [api]", got)
	}

	all, _ := sys.List(ctx)
	if got := names(all); !slices.Equal(got, []string{"api", "go", "sql"}) {
		t.Errorf("unassigned tags must survive, got %v", got)
	}
}

func TestPopularIncludesUnused(t *testing.T) {
	sys, db := newSystem(t)
	ctx := context.Background()

	p1, p2 := insertPrompt(t, db), insertPrompt(t, db)
	assign(t, db, p1, "hot", "warm")
	assign(t, db, p2, "hot")
	if _, err := sys.Create(ctx, tags.CreateCommand{Name: "cold"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	usage, err := sys.Popular(ctx, 10)
	if err != nil {
		t.Fatalf("Popular: %v", err)
	}

	want := []struct {
		name  string
		count int
	}{{"hot", 2}, {"warm", 1}, {"cold", 0}}

	if len(usage) != len(want) {
		t.Fatalf("usage = %+v", usage)
	}
	for i, w := range want {
		if usage[i].Name != w.name || usage[i].UsageCount != w.count {
			t.Errorf("usage[%d] = %s/%d, want %s/%d", i, usage[i].Name, usage[i].UsageCount, w.name, w.count)
		}
	}

	limited, _ := sys.Popular(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
}

func TestSearch(t *testing.T) {
	sys, _ := newSystem(t)
	ctx := context.Background()

	for _, n := range []string{"Python", "python-async", "golang"} {
		if _, err := sys.Create(ctx, tags.CreateCommand{Name: n}); err != nil {
			t.Fatalf("Create %s: %v", n, err)
		}
	}

	got, err := sys.Search(ctx, "PYTH", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if n := names(got); !slices.Equal(n, []string{"Python", "python-async"}) {
		t.Errorf("Search = %v", n)
	}
}

func TestGetOrCreate(t *testing.T) {
	sys, _ := newSystem(t)
	ctx := context.Background()

	a, err := sys.GetOrCreate(ctx, "fabric")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	b, err := sys.GetOrCreate(ctx, "fabric")
	if err != nil || a.ID != b.ID {
		t.Errorf("GetOrCreate not idempotent: %v vs %v (%v)", a.ID, b.ID, err)
	}
}
