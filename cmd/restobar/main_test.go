package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"restobar/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = `
tables:
  - { number: 1, capacity: 2, location: indoor }
  - { number: 2, capacity: 6, location: balcony }
menu_items:
  - { name: "Soup", price: 6.5, is_available: true }
bookings:
  - customer_name: "John Doe"
    customer_phone: "555-123-4567"
    table_number: 1
    days_from_today: 0
    time: "19:00"
orders:
  - customer_name: "John Doe"
    table_number: 1
    total: 20
    status: delivered
    hours_ago: 0
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(testSeed), 0o644))

	cfg := fmt.Sprintf(`
logging:
  level: error
  output: stderr
storage:
  backend: sqlite
  sqlite_path: %q
exports:
  path: %q
backup:
  storage_path: %q
seed_path: %q
`, filepath.Join(dir, "data", "restobar.db"), filepath.Join(dir, "exports"), filepath.Join(dir, "backups"), seedPath)

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(append([]string{"-config", configPath}, args...), &out)
	return out.String(), err
}

func TestCLI_SeedAndAvailability(t *testing.T) {
	configPath := writeConfig(t)
	today := time.Now().Format("2006-01-02")

	out, err := runCLI(t, configPath, "tables")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "\n"), "header plus two seeded tables")

	out, err = runCLI(t, configPath, "available", "-date", today, "-time", "19:00", "-table", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "available: false")

	out, err = runCLI(t, configPath, "available", "-date", today, "-time", "19:00", "-party", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "available: true")
	assert.Contains(t, out, "table 2 (6 seats, balcony)")

	_, err = runCLI(t, configPath, "book", "-name", "Eve", "-phone", "555", "-table", "1", "-date", today, "-time", "19:00")
	assert.ErrorIs(t, err, domain.ErrSlotTaken)

	out, err = runCLI(t, configPath, "book", "-name", "Eve", "-phone", "555", "-table", "2", "-date", today, "-time", "19:00")
	require.NoError(t, err)
	assert.Contains(t, out, "confirmed")

	out, err = runCLI(t, configPath, "bookings", "-date", today)
	require.NoError(t, err)
	assert.Contains(t, out, "John Doe")
	assert.Contains(t, out, "Eve")

	out, err = runCLI(t, configPath, "bookings", "-table", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "John Doe")
	assert.NotContains(t, out, "Eve")

	out, err = runCLI(t, configPath, "orders", "-status", "delivered", "-table", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "John Doe")

	out, err = runCLI(t, configPath, "orders", "-status", "ready")
	require.NoError(t, err)
	assert.NotContains(t, out, "John Doe")

	out, err = runCLI(t, configPath, "dashboard", "-today", today)
	require.NoError(t, err)
	assert.Contains(t, out, `"todays_revenue": 20`)
}

func TestCLI_ExportAndBackup(t *testing.T) {
	configPath := writeConfig(t)
	today := time.Now().Format("2006-01-02")

	out, err := runCLI(t, configPath, "export", "-from", today, "-to", today)
	require.NoError(t, err)
	assert.FileExists(t, strings.TrimSpace(out))

	out, err = runCLI(t, configPath, "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "restobar_")
}

func TestCLI_Errors(t *testing.T) {
	configPath := writeConfig(t)

	_, err := runCLI(t, configPath)
	assert.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, configPath, "frobnicate")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, configPath, "cancel", "-id", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = runCLI(t, configPath, "table-add", "-number", "0", "-capacity", "2")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
