package database_test

import (
	"fmt"
	"testing"

	"lms/database"
	courseModels "lms/models/course"
	"lms/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		page, limit       int
		wantPage, wantLim int
	}{
		{0, 0, database.DefaultPage, database.DefaultLimit},
		{-3, 5, 1, 5},
		{2, 500, 2, database.MaxLimit},
		{4, 20, 4, 20},
	}
	for _, tc := range cases {
		page, limit := database.NormalizePage(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page, "page for %d/%d", tc.page, tc.limit)
		assert.Equal(t, tc.wantLim, limit, "limit for %d/%d", tc.page, tc.limit)
	}
}

func TestScopes(t *testing.T) {
	db := testutil.DB(t)
	educator := testutil.SeedUser(t, db, "Ada", "EDUCATOR")
	other := testutil.SeedUser(t, db, "Grace", "EDUCATOR")

	for i := 1; i <= 5; i++ {
		testutil.SeedCourse(t, db, educator.ID, fmt.Sprintf("Go Basics %d", i))
	}
	testutil.SeedCourse(t, db, other.ID, "Distributed Systems")
	hidden := testutil.SeedCourse(t, db, other.ID, "Go Internals")
	require.NoError(t, db.Model(hidden).Update("is_deleted", true).Error)

	var courses []courseModels.Course
	require.NoError(t, db.Scopes(database.NotDeleted("courses"), database.Search("go ", "title")).
		Order("id").Find(&courses).Error)
	assert.Len(t, courses, 5)

	courses = nil
	require.NoError(t, db.Scopes(database.WhereEq("educator_id", other.ID)).Find(&courses).Error)
	assert.Len(t, courses, 2)

	courses = nil
	require.NoError(t, db.Scopes(database.WhereEq("educator_id", uint(0))).Find(&courses).Error)
	assert.Len(t, courses, 7)

	courses = nil
	require.NoError(t, db.Scopes(database.NotDeleted("courses"), database.Paginate(2, 4)).
		Order("id").Find(&courses).Error)
	require.Len(t, courses, 2)
	assert.Equal(t, "Go Basics 5", courses[0].Title)
}
