package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepository(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewReportRepository(testDB)
	user := createUser(t, testDB, "u@test")
	a := createProduct(t, testDB, "alpha", "1.00", true)
	b := createProduct(t, testDB, "beta", "1.00", true)

	createOrder(t, testDB, user.ID, a, a, b)
	createOrder(t, testDB, user.ID, b)
	old := createOrder(t, testDB, user.ID, a, a, a)
	require.NoError(t, testDB.Model(old).UpdateColumn("date_added", time.Now().AddDate(0, 0, -100)).Error)

	since := time.Now().AddDate(0, 0, -30)

	days, err := repo.OrdersPerDay(since)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, int64(2), days[0].Count)
	assert.Len(t, days[0].Day, 10)

	top, err := repo.MostBoughtProducts(since, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	// alpha and beta tie at 2 units, so name order decides
	assert.Equal(t, "alpha", top[0].Name)
	assert.Equal(t, int64(2), top[0].Quantity)
	assert.Equal(t, "beta", top[1].Name)

	all, err := repo.MostBoughtProducts(time.Now().AddDate(0, 0, -180), 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, int64(5), all[0].Quantity)
}
