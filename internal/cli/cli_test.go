package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/booktime/booktime-backend/internal/app/model"
	"github.com/booktime/booktime-backend/internal/app/repository"
	"github.com/booktime/booktime-backend/internal/db"
	"github.com/booktime/booktime-backend/pkg/util"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func setupCLI(t *testing.T) *gorm.DB {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

// execute runs booktimectl against testDB and returns stdout.
func execute(t *testing.T, testDB *gorm.DB, stdin string, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&RootOptions{DB: testDB})
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrateCommand(t *testing.T) {
	testDB := setupCLI(t)

	out, err := execute(t, testDB, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied.")

	var groups int64
	testDB.Model(&model.Group{}).Count(&groups)
	assert.Equal(t, int64(2), groups)
}

func TestCreateSuperuserCommand(t *testing.T) {
	testDB := setupCLI(t)

	out, err := execute(t, testDB, "", "create-superuser", "--email", " Owner@Example.com ", "--password", "s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Created superuser owner@example.com")

	user, err := repository.NewUserRepository(testDB).FindByEmail("owner@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsStaff)
	assert.Equal(t, model.RoleOwner, user.Role())
	assert.True(t, util.VerifyPassword(user.PasswordHash, "s3cret-pass"))

	_, err = execute(t, testDB, "", "create-superuser", "--email", "owner@example.com", "--password", "s3cret-pass")
	assert.ErrorContains(t, err, "already exists")
}

func TestCreateSuperuserCommand_Validation(t *testing.T) {
	testDB := setupCLI(t)

	_, err := execute(t, testDB, "", "create-superuser", "--email", "owner@example.com", "--password", "x")
	assert.ErrorIs(t, err, util.ErrPasswordTooShort)

	_, err = execute(t, testDB, "", "create-superuser", "--password", "s3cret-pass")
	assert.Error(t, err)
}

func TestGrantRoleCommand(t *testing.T) {
	testDB := setupCLI(t)
	users := repository.NewUserRepository(testDB)
	require.NoError(t, users.Create(&model.User{Email: "dan@example.com", PasswordHash: "x", IsActive: true}))

	tests := []struct {
		name     string
		role     string
		expected model.AdminRole
		wantErr  string
	}{
		{name: "dispatcher", role: "dispatcher", expected: model.RoleDispatcher},
		{name: "invalid role", role: "owner", wantErr: "invalid role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, testDB, "", "grant-role", "--email", "dan@example.com", "--role", tt.role)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, string(tt.expected))

			user, err := users.FindByEmail("dan@example.com")
			require.NoError(t, err)
			assert.True(t, user.IsStaff)
			assert.Equal(t, tt.expected, user.Role())
		})
	}

	_, err := execute(t, testDB, "", "grant-role", "--email", "nobody@example.com", "--role", "dispatcher")
	assert.ErrorContains(t, err, "no user")
}

func writeProductSheet(t *testing.T, rows [][]interface{}) string {
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "products.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func productSheet(t *testing.T) string {
	return writeProductSheet(t, [][]interface{}{
		{"name", "slug", "description", "price", "tags"},
		{"Cathedral and Bazaar", "", "Essays on open source", "10.00", "open-source, essays"},
		{"Pride and Prejudice", "pride", "A classic", "2.50", "fiction"},
		{"Duplicate", "pride", "Same slug", "1.00", ""},
		{"Bad price", "bad", "", "abc", ""},
		{"", "nameless", "", "1.00", ""},
	})
}

func TestReadProductsFromXLSX(t *testing.T) {
	rows, skipped, err := readProductsFromXLSX(productSheet(t))
	require.NoError(t, err)

	assert.Equal(t, 3, skipped)
	require.Len(t, rows, 2)
	assert.Equal(t, "cathedral-and-bazaar", rows[0].Slug)
	assert.Equal(t, []string{"open-source", "essays"}, rows[0].TagSlugs)
	assert.True(t, decimal.RequireFromString("2.50").Equal(rows[1].Price))
	assert.True(t, rows[1].Active)
}

func TestReadProductsFromXLSX_MissingFile(t *testing.T) {
	_, _, err := readProductsFromXLSX(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestImportProductsCommand(t *testing.T) {
	testDB := setupCLI(t)
	path := productSheet(t)

	out, err := execute(t, testDB, "", "import-products", "--yes", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 created")
	assert.Contains(t, out, "3 tags created")

	var products, tags int64
	testDB.Model(&model.Product{}).Count(&products)
	testDB.Model(&model.ProductTag{}).Count(&tags)
	assert.Equal(t, int64(2), products)
	assert.Equal(t, int64(3), tags)

	var tag model.ProductTag
	require.NoError(t, testDB.Where("slug = ?", "open-source").First(&tag).Error)
	assert.Equal(t, "Open Source", tag.Name)

	// a second run finds every slug taken
	out, err = execute(t, testDB, "", "import-products", "--yes", path)
	require.NoError(t, err)
	assert.Contains(t, out, "0 created")
}

func TestImportProductsCommand_ConfirmAndDryRun(t *testing.T) {
	testDB := setupCLI(t)
	path := productSheet(t)

	out, err := execute(t, testDB, "no\n", "import-products", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Import cancelled.")

	_, err = execute(t, testDB, "", "import-products", "--dry-run", path)
	require.NoError(t, err)

	var products int64
	testDB.Model(&model.Product{}).Count(&products)
	assert.Zero(t, products)

	out, err = execute(t, testDB, "y\n", "import-products", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 created")
}

func TestSalesReportCommand(t *testing.T) {
	testDB := setupCLI(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")

	out, err := execute(t, testDB, "", "sales-report", "--days", "7", "--period", "60", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Orders per day", "Top products"}, f.GetSheetList())

	_, err = execute(t, testDB, "", "sales-report", "--period", "45", "--out", path)
	assert.Error(t, err)
}
