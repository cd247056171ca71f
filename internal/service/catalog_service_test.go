package service

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func principal(store *memStore, u *model.User) policy.Principal {
	profile, _ := memUsers{store}.FindProfile(context.Background(), u.ID)
	return policy.NewPrincipal(u.ID, profile)
}

func ptr[T any](v T) *T { return &v }

func newCatalog(store *memStore) CatalogService {
	return NewCatalogService(memCategories{store}, memCourses{store}, memUsers{store})
}

func TestCategoriesAdminOnly(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newCatalog(store)
	admin := principal(store, store.addUser("root", model.RoleAdmin))
	instructor := principal(store, store.addUser("ivan", model.RoleInstructor))
	student := principal(store, store.addUser("sam", model.RoleStudent))

	for _, p := range []policy.Principal{instructor, student, policy.Anonymous()} {
		_, err := svc.CreateCategory(ctx, p, model.CategoryRequest{Name: ptr("Math")})
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = svc.ListCategories(ctx, p)
		assert.ErrorIs(t, err, ErrForbidden)
	}

	cat, err := svc.CreateCategory(ctx, admin, model.CategoryRequest{Name: ptr("Math"), Description: ptr("Numbers")})
	require.NoError(t, err)
	assert.NotZero(t, cat.ID)

	cat, err = svc.UpdateCategory(ctx, admin, cat.ID, model.CategoryRequest{Description: ptr("All of it")})
	require.NoError(t, err)
	assert.Equal(t, "Math", cat.Name)
	assert.Equal(t, "All of it", cat.Description)

	_, err = svc.CreateCategory(ctx, admin, model.CategoryRequest{})
	assert.Equal(t, KindValidation, KindOf(err))

	require.NoError(t, svc.DeleteCategory(ctx, admin, cat.ID))
	_, err = svc.GetCategory(ctx, admin, cat.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCourseVisibility(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newCatalog(store)
	ivan := store.addUser("ivan", model.RoleInstructor)
	olga := store.addUser("olga", model.RoleInstructor)
	own := store.addCourse("Go", ivan.ID)
	other := store.addCourse("Rust", olga.ID)

	courses, err := svc.ListCourses(ctx, principal(store, ivan))
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, own.ID, courses[0].ID)

	for _, u := range []*model.User{
		store.addUser("root", model.RoleAdmin),
		store.addUser("sam", model.RoleStudent),
		store.addUser("orphan", ""),
	} {
		courses, err := svc.ListCourses(ctx, principal(store, u))
		require.NoError(t, err)
		assert.Len(t, courses, 2, u.Username)
	}

	_, err = svc.GetCourse(ctx, principal(store, ivan), other.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	err = svc.DeleteCourse(ctx, principal(store, ivan), other.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCreateCourse(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newCatalog(store)
	admin := principal(store, store.addUser("root", model.RoleAdmin))
	ivanUser := store.addUser("ivan", model.RoleInstructor)
	ivan := principal(store, ivanUser)
	olga := store.addUser("olga", model.RoleInstructor)
	student := principal(store, store.addUser("sam", model.RoleStudent))

	t.Run("instructor becomes owner", func(t *testing.T) {
		c, err := svc.CreateCourse(ctx, ivan, model.CourseRequest{Title: ptr("Go"), Description: ptr("intro"), InstructorID: &olga.ID})
		require.NoError(t, err)
		assert.Equal(t, ivanUser.ID, c.InstructorID)
		assert.Equal(t, "ivan", c.InstructorName)
	})

	t.Run("admin names instructor", func(t *testing.T) {
		_, err := svc.CreateCourse(ctx, admin, model.CourseRequest{Title: ptr("Go"), Description: ptr("intro")})
		assert.Equal(t, KindValidation, KindOf(err))

		c, err := svc.CreateCourse(ctx, admin, model.CourseRequest{Title: ptr("Rust"), Description: ptr("intro"), InstructorID: &olga.ID})
		require.NoError(t, err)
		assert.Equal(t, olga.ID, c.InstructorID)
	})

	t.Run("student forbidden", func(t *testing.T) {
		_, err := svc.CreateCourse(ctx, student, model.CourseRequest{Title: ptr("Go"), Description: ptr("intro")})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("description required", func(t *testing.T) {
		_, err := svc.CreateCourse(ctx, ivan, model.CourseRequest{Title: ptr("Go")})
		require.Error(t, err)
		assert.Equal(t, "description is required", err.Error())

		_, err = svc.CreateCourse(ctx, ivan, model.CourseRequest{Title: ptr("Go"), Description: ptr("  ")})
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := svc.CreateCourse(ctx, ivan, model.CourseRequest{Title: ptr("Go"), Description: ptr("intro"), CategoryID: model.SomeID(999)})
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("unknown instructor", func(t *testing.T) {
		_, err := svc.CreateCourse(ctx, admin, model.CourseRequest{Title: ptr("Go"), Description: ptr("intro"), InstructorID: ptr(int64(999))})
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("category name resolved", func(t *testing.T) {
		cat, err := svc.CreateCategory(ctx, admin, model.CategoryRequest{Name: ptr("Systems")})
		require.NoError(t, err)
		c, err := svc.CreateCourse(ctx, ivan, model.CourseRequest{Title: ptr("C"), Description: ptr("intro"), CategoryID: model.SomeID(cat.ID)})
		require.NoError(t, err)
		require.NotNil(t, c.CategoryName)
		assert.Equal(t, "Systems", *c.CategoryName)
	})
}

func TestUpdateCourse(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newCatalog(store)
	admin := principal(store, store.addUser("root", model.RoleAdmin))
	ivanUser := store.addUser("ivan", model.RoleInstructor)
	ivan := principal(store, ivanUser)
	olga := store.addUser("olga", model.RoleInstructor)
	student := principal(store, store.addUser("sam", model.RoleStudent))
	course := store.addCourse("Go", ivanUser.ID)

	c, err := svc.UpdateCourse(ctx, ivan, course.ID, model.CourseRequest{Description: ptr("Concurrency")})
	require.NoError(t, err)
	assert.Equal(t, "Go", c.Title)
	assert.Equal(t, "Concurrency", c.Description)

	_, err = svc.UpdateCourse(ctx, ivan, course.ID, model.CourseRequest{Description: ptr("")})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.UpdateCourse(ctx, ivan, course.ID, model.CourseRequest{InstructorID: &olga.ID})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.UpdateCourse(ctx, student, course.ID, model.CourseRequest{Title: ptr("Mine")})
	assert.ErrorIs(t, err, ErrForbidden)

	c, err = svc.UpdateCourse(ctx, admin, course.ID, model.CourseRequest{InstructorID: &olga.ID})
	require.NoError(t, err)
	assert.Equal(t, olga.ID, c.InstructorID)

	// ivan no longer owns it
	_, err = svc.GetCourse(ctx, ivan, course.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	require.NoError(t, svc.DeleteCourse(ctx, admin, course.ID))
}

func TestUpdateCourse_Category(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newCatalog(store)
	admin := principal(store, store.addUser("root", model.RoleAdmin))
	ivanUser := store.addUser("ivan", model.RoleInstructor)
	ivan := principal(store, ivanUser)
	course := store.addCourse("Go", ivanUser.ID)
	cat, err := svc.CreateCategory(ctx, admin, model.CategoryRequest{Name: ptr("Systems")})
	require.NoError(t, err)

	c, err := svc.UpdateCourse(ctx, ivan, course.ID, model.CourseRequest{CategoryID: model.SomeID(cat.ID)})
	require.NoError(t, err)
	require.NotNil(t, c.CategoryID)
	assert.Equal(t, cat.ID, *c.CategoryID)

	// absent category leaves it alone
	c, err = svc.UpdateCourse(ctx, ivan, course.ID, model.CourseRequest{Title: ptr("Go 2")})
	require.NoError(t, err)
	require.NotNil(t, c.CategoryID)
	assert.Equal(t, cat.ID, *c.CategoryID)

	// explicit null clears it
	c, err = svc.UpdateCourse(ctx, ivan, course.ID, model.CourseRequest{CategoryID: model.OptionalID{Set: true}})
	require.NoError(t, err)
	assert.Nil(t, c.CategoryID)
	assert.Nil(t, c.CategoryName)

	_, err = svc.UpdateCourse(ctx, ivan, course.ID, model.CourseRequest{CategoryID: model.SomeID(999)})
	assert.Equal(t, KindValidation, KindOf(err))
}
