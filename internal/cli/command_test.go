package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/transdesk/backend/internal/db"
	"github.com/transdesk/backend/internal/translate"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedProject creates a project in the database under dataDir and returns its id.
func seedProject(t *testing.T, dataDir string) string {
	t.Helper()
	database, err := db.NewSQLite(filepath.Join(dataDir, "transdesk.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer database.Close()
	p, err := database.CreateProject(context.Background(), "app")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return p.ID
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"serve", "user", "translate", "import", "export"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %s not found", name)
		}
	}
	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("expected --config flag")
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "user", "add", "bob", "--password", "secret1")
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("err = %v, want read config error", err)
	}
}

func TestUserAdd(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "--data-path", dir, "user", "add", "bob", "--password", "secret1")
	if err != nil {
		t.Fatalf("user add: %v", err)
	}
	if !strings.Contains(out, "Created user bob") {
		t.Errorf("output = %q", out)
	}

	if _, err := run(t, "--data-path", dir, "user", "add", "bob", "--password", "secret1"); err == nil {
		t.Error("expected duplicate user error")
	}
	if _, err := run(t, "--data-path", dir, "user", "add", "carol", "--password", "123"); err == nil {
		t.Error("expected short password error")
	}
}

func TestImportExportCSV(t *testing.T) {
	dir := t.TempDir()
	projectID := seedProject(t, dir)

	in := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(in, []byte("key,en,zh\nhello,Hello,你好\nbye,Bye,\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--data-path", dir, "import", "--project", projectID, "--file", in)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "2 added, 0 updated") {
		t.Errorf("import output = %q", out)
	}

	exported := filepath.Join(dir, "out.csv")
	if _, err := run(t, "--data-path", dir, "export", "--project", projectID, "--out", exported); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(exported)
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	if !strings.HasPrefix(got, "key,en,zh\n") || !strings.Contains(got, "hello,Hello,你好\n") || !strings.Contains(got, "bye,Bye,\n") {
		t.Errorf("exported = %q", got)
	}
}

func TestImportCorpusKeepsTranslationsEmpty(t *testing.T) {
	dir := t.TempDir()
	projectID := seedProject(t, dir)

	in := filepath.Join(dir, "corpus.csv")
	os.WriteFile(in, []byte("key,en\n你好,Hi\n"), 0644)
	if _, err := run(t, "--data-path", dir, "import", "--project", projectID, "--file", in, "--corpus"); err != nil {
		t.Fatalf("import: %v", err)
	}

	database, err := db.NewSQLite(filepath.Join(dir, "transdesk.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	ctx := context.Background()
	if n, _ := database.Corpus().Count(ctx, projectID); n != 1 {
		t.Errorf("corpus count = %d, want 1", n)
	}
	if n, _ := database.Translations().Count(ctx, projectID); n != 0 {
		t.Errorf("translation count = %d, want 0", n)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	projectID := seedProject(t, dir)
	_, err := run(t, "--data-path", dir, "export", "--project", projectID, "--out", filepath.Join(dir, "out.txt"))
	if err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestTranslateNeedsAPIKey(t *testing.T) {
	dir := t.TempDir()
	projectID := seedProject(t, dir)

	in := filepath.Join(dir, "in.csv")
	os.WriteFile(in, []byte("key\nhello\n"), 0644)
	if _, err := run(t, "--data-path", dir, "import", "--project", projectID, "--file", in); err != nil {
		t.Fatalf("import: %v", err)
	}

	_, err := run(t, "--data-path", dir, "translate", "--project", projectID, "--lang", "ja")
	if !errors.Is(err, translate.ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}
