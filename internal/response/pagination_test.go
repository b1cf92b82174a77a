package response

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testModel is a simple model for exercising pagination queries
type testModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(255)"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{PrepareStmt: false})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&testModel{}))
	return db
}

func paginationContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return c
}

// TestPaginate_EmptyDataset tests pagination over an empty table
func TestPaginate_EmptyDataset(t *testing.T) {
	db := setupTestDB(t)
	c := paginationContext(t, "page=1&page_size=10")

	var results []testModel
	resp, err := Paginate(c, db.Model(&testModel{}), &results)

	require.NoError(t, err)
	assert.Len(t, results, 0)
	assert.Equal(t, int64(0), resp.Pagination.TotalItems)
	assert.Equal(t, 0, resp.Pagination.TotalPages)
	assert.Equal(t, 1, resp.Pagination.Page)
}

// TestPaginate_SinglePage tests data fitting in one page
func TestPaginate_SinglePage(t *testing.T) {
	db := setupTestDB(t)
	for i := 1; i <= 5; i++ {
		require.NoError(t, db.Create(&testModel{Name: fmt.Sprintf("row-%d", i)}).Error)
	}

	c := paginationContext(t, "page=1&page_size=10")

	var results []testModel
	resp, err := Paginate(c, db.Model(&testModel{}), &results)

	require.NoError(t, err)
	assert.Len(t, results, 5)
	assert.Equal(t, int64(5), resp.Pagination.TotalItems)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
}

// TestPaginate_MultiplePages tests offset math across pages
func TestPaginate_MultiplePages(t *testing.T) {
	db := setupTestDB(t)
	for i := 1; i <= 25; i++ {
		require.NoError(t, db.Create(&testModel{Name: fmt.Sprintf("row-%d", i)}).Error)
	}

	c := paginationContext(t, "page=2&page_size=10")

	var results []testModel
	resp, err := Paginate(c, db.Model(&testModel{}).Order("id"), &results)

	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.Equal(t, int64(25), resp.Pagination.TotalItems)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, uint(11), results[0].ID)
	assert.Equal(t, uint(20), results[9].ID)
}

// TestPaginate_InvalidParamsFallBack tests defaulting of bad query parameters
func TestPaginate_InvalidParamsFallBack(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&testModel{Name: "only"}).Error)

	tests := []struct {
		name             string
		rawQuery         string
		expectedPage     int
		expectedPageSize int
	}{
		{name: "non-numeric page", rawQuery: "page=abc&page_size=10", expectedPage: 1, expectedPageSize: 10},
		{name: "zero page", rawQuery: "page=0&page_size=10", expectedPage: 1, expectedPageSize: 10},
		{name: "negative page size", rawQuery: "page=1&page_size=-5", expectedPage: 1, expectedPageSize: DefaultPageSize},
		{name: "missing parameters", rawQuery: "", expectedPage: 1, expectedPageSize: DefaultPageSize},
		{name: "oversized page size clamps", rawQuery: "page=1&page_size=99999", expectedPage: 1, expectedPageSize: MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := paginationContext(t, tt.rawQuery)

			var results []testModel
			resp, err := Paginate(c, db.Model(&testModel{}), &results)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedPage, resp.Pagination.Page)
			assert.Equal(t, tt.expectedPageSize, resp.Pagination.PageSize)
		})
	}
}
