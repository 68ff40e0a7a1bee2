// internal/domain/branch/service_test.go
package branch

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/retail-backend/internal/config"
	"github.com/your-org/retail-backend/internal/pkg/apperrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Branch{}))
	// Referenced-in checks look at document tables
	require.NoError(t, db.Exec("CREATE TABLE inventories (id INTEGER PRIMARY KEY, branch_id INTEGER)").Error)
	require.NoError(t, db.Exec("CREATE TABLE purchase_orders (id INTEGER PRIMARY KEY, branch_id INTEGER)").Error)
	require.NoError(t, db.Exec("CREATE TABLE sales (id INTEGER PRIMARY KEY, branch_id INTEGER)").Error)

	return NewService(db, &config.Config{})
}

func TestCreateBranch(t *testing.T) {
	svc := newTestService(t)

	t.Run("defaults to active", func(t *testing.T) {
		b, err := svc.Create(&CreateBranchRequest{
			Name:                "Koramangala",
			Address:             "80 Feet Road",
			City:                "Bengaluru",
			ManagerName:         "Priya",
			ManagerMobileNumber: "9876543210",
		})
		require.NoError(t, err)
		assert.True(t, b.IsActive)
		assert.Equal(t, "Active", b.DisplayStatus())
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		_, err := svc.Create(&CreateBranchRequest{Name: "Koramangala", Address: "elsewhere"})
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects malformed mobile numbers", func(t *testing.T) {
		var validationErr *apperrors.ValidationError
		for _, number := range []string{"12345", "98765432101", "98765abcde"} {
			_, err := svc.Create(&CreateBranchRequest{
				Name: "Indiranagar " + number, Address: "x", ManagerMobileNumber: number,
			})
			require.ErrorAs(t, err, &validationErr, "number %q", number)
		}
	})
}

func TestListBranches(t *testing.T) {
	svc := newTestService(t)

	inactive := false
	seed := []CreateBranchRequest{
		{Name: "Koramangala", Address: "x", City: "Bengaluru"},
		{Name: "Anna Nagar", Address: "x", City: "Chennai"},
		{Name: "Old Depot", Address: "x", City: "Chennai", IsActive: &inactive},
	}
	for i := range seed {
		_, err := svc.Create(&seed[i])
		require.NoError(t, err)
	}

	t.Run("active filter", func(t *testing.T) {
		branches, total, err := svc.List(&BranchListRequest{Active: "active", Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, branches, 2)

		_, total, err = svc.List(&BranchListRequest{Active: "inactive", Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("city filter is case insensitive", func(t *testing.T) {
		branches, total, err := svc.List(&BranchListRequest{City: "chennai", Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		// ordered by name
		assert.Equal(t, "Anna Nagar", branches[0].Name)
	})
}

func TestUpdateBranch(t *testing.T) {
	svc := newTestService(t)

	b, err := svc.Create(&CreateBranchRequest{Name: "Koramangala", Address: "80 Feet Road"})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(b.ID, &UpdateBranchRequest{
		ManagerName:         "Arjun",
		ManagerMobileNumber: "9000000000",
		IsActive:            &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Arjun", updated.ManagerName)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Inactive", updated.DisplayStatus())
}

func TestDeleteBranch(t *testing.T) {
	svc := newTestService(t)

	b, err := svc.Create(&CreateBranchRequest{Name: "Koramangala", Address: "80 Feet Road"})
	require.NoError(t, err)

	t.Run("refuses while documents reference it", func(t *testing.T) {
		require.NoError(t, svc.db.Exec("INSERT INTO sales (branch_id) VALUES (?)", b.ID).Error)

		err := svc.Delete(b.ID)
		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("deletes once unreferenced", func(t *testing.T) {
		require.NoError(t, svc.db.Exec("DELETE FROM sales WHERE branch_id = ?", b.ID).Error)
		require.NoError(t, svc.Delete(b.ID))

		_, err := svc.Get(b.ID)
		var notFoundErr *apperrors.NotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}
