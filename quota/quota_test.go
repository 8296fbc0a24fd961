package quota

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"modelhub-sdk/utils"
)

func TestKeyDoesNotCollide(t *testing.T) {
	pairs := [][2]string{
		{"m", "/a/b"},
		{"m", "/a_b"},
		{"m", "/a%2Fb"},
		{"m:x", "/y"},
		{"m", "x:/y"},
		{"m/a", "/b"},
		{"m", "/a b"},
		{"m", "/a+b"},
	}

	seen := make(map[string][2]string)
	for _, p := range pairs {
		key := Key(p[0], p[1])
		if prev, ok := seen[key]; ok {
			t.Fatalf("expected distinct keys, %v and %v both map to %s", prev, p, key)
		}
		seen[key] = p

		modelID, path, err := ParseKey(key)
		if err != nil {
			t.Fatalf("expected no error parsing %s, got %v", key, err)
		}
		if modelID != p[0] || path != p[1] {
			t.Errorf("expected round trip %v, got (%s, %s)", p, modelID, path)
		}
	}
}

func TestParseKeyRejectsGarbage(t *testing.T) {
	for _, key := range []string{"", "quota", "other:a:b", "quota:a:b:c", "quota:%zz:b"} {
		if _, _, err := ParseKey(key); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

// exerciseStore checks the contract every backend must satisfy
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	count, err := store.Get(ctx, "sentiment", "/v1/predict")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 0 {
		t.Fatalf("expected fresh count 0, got %d", count)
	}

	for i := 1; i <= 3; i++ {
		if err := store.Increment(ctx, "sentiment", "/v1/predict"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		count, err = store.Get(ctx, "sentiment", "/v1/predict")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if count != i {
			t.Errorf("expected count %d, got %d", i, count)
		}
	}

	// Neighbouring paths and models stay independent
	if count, _ := store.Get(ctx, "sentiment", "/v1_predict"); count != 0 {
		t.Errorf("expected /v1_predict to be 0, got %d", count)
	}
	if count, _ := store.Get(ctx, "other", "/v1/predict"); count != 0 {
		t.Errorf("expected other model to be 0, got %d", count)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreGarbageReadsAsZero(t *testing.T) {
	store := NewMemoryStore()
	store.Set("m", "/p", "NaN")

	count, err := store.Get(context.Background(), "m", "/p")
	if err != nil || count != 0 {
		t.Fatalf("expected 0, nil; got %d, %v", count, err)
	}

	if err := store.Increment(context.Background(), "m", "/p"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count, _ := store.Get(context.Background(), "m", "/p"); count != 1 {
		t.Errorf("expected 1 after increment, got %d", count)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quota.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	exerciseStore(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.json")
	ctx := context.Background()

	first, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := first.Increment(ctx, "m", "/a/b"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	second, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count, _ := second.Get(ctx, "m", "/a/b"); count != 1 {
		t.Errorf("expected persisted count 1, got %d", count)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected quota file, got %v", err)
	}
	if want := `"quota:m:%2Fa%2Fb": "1"`; !strings.Contains(string(data), want) {
		t.Errorf("expected file to contain %s, got %s", want, data)
	}
}

func TestFileStoreCorruptFileReadsAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count, err := store.Get(context.Background(), "m", "/p"); err != nil || count != 0 {
		t.Errorf("expected 0, nil; got %d, %v", count, err)
	}
}

func TestSQLStoreSQLite(t *testing.T) {
	store, err := OpenSQLStore(context.Background(), utils.DBTypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)
}

func TestSQLStoreMigrateIsIdempotent(t *testing.T) {
	store, err := OpenSQLStore(context.Background(), utils.DBTypeSQLite, filepath.Join(t.TempDir(), "quota.db"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer store.Close()

	if err := store.migrate(context.Background()); err != nil {
		t.Errorf("expected second migration to succeed, got %v", err)
	}
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "test:")
	defer store.Close()

	exerciseStore(t, store)

	val, err := mr.Get("test:" + Key("sentiment", "/v1/predict"))
	if err != nil {
		t.Fatalf("expected key in redis, got %v", err)
	}
	if val != "3" {
		t.Errorf("expected stored text 3, got %s", val)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{Driver: "memory"}},
		{name: "file", cfg: Config{Driver: "file", DSN: filepath.Join(t.TempDir(), "q.json")}},
		{name: "sqlite", cfg: Config{Driver: "sqlite", DSN: ":memory:"}},
		{name: "unknown driver", cfg: Config{Driver: "etcd"}, wantErr: true},
		{name: "sqlite without dsn", cfg: Config{Driver: "sqlite"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			defer store.Close()
			exerciseStore(t, store)
		})
	}
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := Open(context.Background(), Config{Driver: "redis", DSN: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)
}
