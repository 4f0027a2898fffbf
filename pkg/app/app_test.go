package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"glowlink/pkg/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "glowlink version "+version.Version()+"\n", out)
}

func TestCatalogListSeedsDefaults(t *testing.T) {
	out, err := execute(t, "catalog", "list", "service")
	require.NoError(t, err)
	assert.Contains(t, out, "Braiding")
	assert.Contains(t, out, "$100")
	assert.NotContains(t, out, "Ankara Tote Bag")
}

func TestCatalogListRejectsUnknownKind(t *testing.T) {
	_, err := execute(t, "catalog", "list", "gadget")
	require.Error(t, err)
}

func TestCatalogListFromFile(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
items:
  - id: lash
    kind: service
    name: Lash Lift
    price_cents: 5500
    duration: 45m
`), 0o600))
	cfg := writeConfig(t, "catalog:\n  file: "+catalogPath+"\n")

	out, err := execute(t, "--config", cfg, "catalog", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Lash Lift")
	assert.Contains(t, out, "$55")
	assert.NotContains(t, out, "Braiding")
}

func TestExportWritesWorkbook(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "orders.xlsx")
	out, err := execute(t, "export", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 0 orders")

	f, err := excelize.OpenFile(dest)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Reference", rows[0][1])
}

func TestSettingsContactRequiresRedis(t *testing.T) {
	_, err := execute(t, "settings", "contact", "--whatsapp", "+1 555 0100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enable redis")
}

func TestSettingsContactSavesToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, "redis:\n  enabled: true\n  address: "+mr.Addr()+"\n")

	out, err := execute(t, "--config", cfg, "settings", "contact", "--whatsapp", "+1 555 0100", "--instagram", "glow")
	require.NoError(t, err)
	assert.Contains(t, out, "whatsapp: +1 555 0100")
	assert.Contains(t, out, "instagram: glow")
	assert.True(t, mr.Exists("glowlink_contact_methods"))

	out, err = execute(t, "--config", cfg, "settings", "contact")
	require.NoError(t, err)
	assert.Contains(t, out, "instagram: glow")
}

func TestInvalidFlagOverrideFails(t *testing.T) {
	_, err := execute(t, "catalog", "list", "--db-driver", "oracle")
	require.Error(t, err)
}
