package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/fresh-start/internal/app"
	"github.com/sakif/fresh-start/internal/auth"
	"github.com/sakif/fresh-start/internal/config"
	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/service"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "freshstart", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"users", "stats", "export", "export-all", "clear"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

// fixture is a SQLite store on disk with two profiles, plus a config file
// pointing at it.
type fixture struct {
	configPath string
	dir        string
	alice      string
	bob        string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fresh.db")

	configPath := filepath.Join(dir, "config.yaml")
	yaml := "storage:\n  driver: sqlite\n  path: " + dbPath + "\nauth:\n  bcrypt_cost: 4\n"
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o644))

	storage := config.StorageConfig{Driver: config.DriverSQLite, Path: dbPath, Prefix: "registos"}
	store, err := app.OpenStore(storage)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	rm := app.NewRecords(store, storage, logger)
	profiles := service.NewProfileService(rm, auth.NewPINService(4), logger)
	tracker := service.NewTrackerService(rm, logger)

	alice, err := profiles.Create(ctx, "Alice", "")
	require.NoError(t, err)
	bob, err := profiles.Create(ctx, "Bob", "")
	require.NoError(t, err)

	require.NoError(t, tracker.SetDailyTarget(ctx, alice.ID, 10))
	_, err = tracker.SetToday(ctx, alice.ID, 3)
	require.NoError(t, err)

	return &fixture{configPath: configPath, dir: dir, alice: alice.ID, bob: bob.ID}
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", f.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestUsers(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "users")
	require.NoError(t, err)
	assert.Contains(t, out, "Profiles (2)")
	assert.Contains(t, out, "Alice (admin)")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "TOTAL")

	out, err = f.run(t, "users", "--format", "json")
	require.NoError(t, err)
	var overview model.AdminOverview
	require.NoError(t, json.Unmarshal([]byte(out), &overview))
	require.Len(t, overview.Users, 2)
	assert.Equal(t, f.alice, overview.Users[0].ID)
	assert.Equal(t, 1, overview.Users[0].SmokingRecords)
	assert.Equal(t, 2, overview.Totals.Users)
	assert.Equal(t, 1, overview.Totals.SmokingRecords)
}

func TestStats(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "stats", f.alice)
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "3 / 10 (30%, low)")

	out, err = f.run(t, "stats", f.alice, "--format", "json")
	require.NoError(t, err)
	var res StatsResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.Dashboard.Today.Cigarettes)
	assert.Equal(t, 0, res.Dashboard.DaysSmokeFree, "smoked today")
	assert.Equal(t, 2, res.Stored.ActivityLogs)

	_, err = f.run(t, "stats", "nobody")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestExport(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "export", f.alice, "-o", "-")
	require.NoError(t, err)
	var doc model.ExportDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Fresh Start", doc.AppName)
	assert.Equal(t, 10, doc.Data.DailyTarget)

	path := filepath.Join(f.dir, "alice.json")
	out, err = f.run(t, "export", f.alice, "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(body), "}\n"))
}

func TestExportAll(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "export-all", "-o", "-")
	require.NoError(t, err)
	var doc model.AdminExportDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 2, doc.TotalUsers)
	assert.Equal(t, "Bob", doc.Users[1].UserInfo.Name)
}

func TestClear(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no target", []string{"clear", "--yes"}},
		{"both targets", []string{"clear", f.alice, "--all", "--yes"}},
		{"no confirmation", []string{"clear", f.alice}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}

	out, err := f.run(t, "clear", f.alice, "--yes", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"cleared":"`+f.alice+`","deletedKeys":3}`, out)

	out, err = f.run(t, "users", "--format", "json")
	require.NoError(t, err)
	var overview model.AdminOverview
	require.NoError(t, json.Unmarshal([]byte(out), &overview))
	assert.Len(t, overview.Users, 2, "profiles survive a clear")
	assert.Zero(t, overview.Users[0].SmokingRecords)
	assert.Zero(t, overview.Totals.SmokingRecords)
}

func TestInvalidFormat(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "users", "--format", "xml")
	assert.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "users"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
