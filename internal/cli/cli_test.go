package cli

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LEDGER_CONFIG_FILE", "")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "ledger.db"))
	t.Setenv("DATA_DIR", dir)
	t.Setenv("AMQP_URL", "")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("RECENT_LIMIT", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "ledger %s", strings.Join(args, " "))
	return out
}

func TestAddAndSummary(t *testing.T) {
	setupEnv(t)

	mustRun(t, "add", "income", "100", "Salary")
	mustRun(t, "add", "expense", "30", "Food", "-d", "Lunch")

	out := mustRun(t, "summary")
	assert.Contains(t, out, "Income:   100.00")
	assert.Contains(t, out, "Expenses: 30.00")
	assert.Contains(t, out, "Balance:  70.00")

	food := strings.Index(out, "Food")
	salary := strings.Index(out, "Salary")
	require.True(t, food > 0 && salary > 0, out)
	assert.Less(t, food, salary, "most recent transaction is listed first")

	out = mustRun(t, "summary", "-n", "1")
	assert.NotContains(t, out, "Salary")
}

func TestAddRejectsInvalidInput(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "add", "expense", "12", "Salary")
	assert.ErrorIs(t, err, core.ErrUnknownCategory)

	_, err = run(t, "add", "expense", "0", "Food")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = run(t, "add", "transfer", "5", "Food")
	assert.ErrorContains(t, err, "unknown transaction type")

	_, err = run(t, "add", "expense", "5")
	assert.Error(t, err)

	out := mustRun(t, "summary")
	assert.Contains(t, out, "No transactions yet.")
}

var idPattern = regexp.MustCompile(`id=(\S+)`)

func TestDelete(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "add", "expense", "7,25", "Transport", "--date", "2024-02-03")
	m := idPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)

	mustRun(t, "delete", m[1])
	out = mustRun(t, "summary")
	assert.Contains(t, out, "Expenses: 0.00")

	out = mustRun(t, "delete", "missing-id")
	assert.Contains(t, out, "Deleted missing-id")
}

func TestHistory(t *testing.T) {
	setupEnv(t)

	mustRun(t, "add", "expense", "1234.5", "Utilities", "--date", "2024-02-03")
	mustRun(t, "add", "expense", "0.5", "Food")

	out := mustRun(t, "history", "expense")
	assert.Contains(t, out, "Total expense: 1,235.00")
	assert.Contains(t, out, "-1,234.50")
	assert.Contains(t, out, "2024-02-03")

	out = mustRun(t, "history", "income", "--oldest")
	assert.Equal(t, "Total income: 0.00\n", out)
}

func TestCategoryRoundTrip(t *testing.T) {
	setupEnv(t)

	before := mustRun(t, "category", "list", "income")
	assert.Equal(t, "income: Salary, Bonus, Freelance, Other\n", before)

	mustRun(t, "category", "add", "income", "Gifts")
	assert.Contains(t, mustRun(t, "category", "list", "income"), "Other, Gifts")

	_, err := run(t, "category", "add", "income", "Gifts")
	assert.ErrorIs(t, err, core.ErrDuplicateCategory)

	mustRun(t, "category", "delete", "income", "Gifts")
	assert.Equal(t, before, mustRun(t, "category", "list", "income"))

	all := mustRun(t, "categories", "list")
	assert.Contains(t, all, "income: ")
	assert.Contains(t, all, "expense: Food, Transport")
}

func TestBackendFlagOverridesEnv(t *testing.T) {
	setupEnv(t)

	mustRun(t, "add", "income", "5", "Bonus")

	out := mustRun(t, "--backend", "memory", "summary")
	assert.Contains(t, out, "No transactions yet.", "memory backend does not see the sqlite data")

	_, err := run(t, "--backend", "redis", "summary")
	assert.ErrorContains(t, err, "invalid data backend")
}

func TestWatchRequiresAMQP(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "watch")
	assert.ErrorContains(t, err, "AMQP_URL is not set")
}
