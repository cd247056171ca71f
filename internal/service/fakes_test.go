package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lms_backend/internal/mailer"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
)

// memStore is an in-memory stand-in for the Postgres repositories.
type memStore struct {
	mu          sync.Mutex
	nextID      int64
	users       map[int64]*model.User
	profiles    map[int64]*model.Profile
	categories  map[int64]*model.Category
	courses     map[int64]*model.Course
	enrollments map[int64]*model.Enrollment
	blacklist   map[string]bool
	usedResets  map[string]bool

	// passwordWriteErr, when set, fails the next UpdatePassword.
	passwordWriteErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[int64]*model.User{},
		profiles:    map[int64]*model.Profile{},
		categories:  map[int64]*model.Category{},
		courses:     map[int64]*model.Course{},
		enrollments: map[int64]*model.Enrollment{},
		blacklist:   map[string]bool{},
		usedResets:  map[string]bool{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func conflict(constraint string) error {
	return &repository.ConstraintError{Kind: repository.ErrConflict, Constraint: constraint, Err: fmt.Errorf("duplicate key")}
}

// addUser seeds a user with a profile carrying role. An empty role leaves the user without a profile.
func (m *memStore) addUser(username string, role model.Role) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{ID: m.id(), Username: username, Email: username + "@example.com", CreatedAt: time.Now()}
	m.users[u.ID] = u
	if role != "" {
		m.profiles[u.ID] = &model.Profile{ID: m.id(), UserID: u.ID, Role: role}
	}
	return u
}

func (m *memStore) addCourse(title string, instructorID int64) *model.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &model.Course{ID: m.id(), Title: title, InstructorID: instructorID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.courses[c.ID] = c
	return c
}

type memUsers struct{ *memStore }

func (r memUsers) CreateWithProfile(_ context.Context, user *model.User, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return conflict("users_email_key")
		}
		if u.Username == user.Username {
			return conflict("users_username_key")
		}
	}
	user.ID = r.id()
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	profile.ID = r.id()
	profile.UserID = user.ID
	pp := *profile
	r.profiles[user.ID] = &pp
	return nil
}

func (r memUsers) find(match func(*model.User) bool) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (r memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id }), nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email }), nil
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username }), nil
}

func (r memUsers) FindProfile(_ context.Context, userID int64) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r memUsers) UpdateAccount(_ context.Context, user *model.User, profile *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID != user.ID && u.Email == user.Email {
			return conflict("users_email_key")
		}
	}
	cu := *user
	r.users[user.ID] = &cu
	cp := *profile
	r.profiles[user.ID] = &cp
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.passwordWriteErr; err != nil {
		r.passwordWriteErr = nil
		return err
	}
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r memUsers) ListInstructors(_ context.Context) ([]model.Instructor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Instructor{}
	for id, p := range r.profiles {
		if p.Role == model.RoleInstructor {
			u := r.users[id]
			out = append(out, model.Instructor{ID: u.ID, Username: u.Username, Email: u.Email})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUsers) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r memUsers) CountByRole(_ context.Context) (map[model.Role]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.Role]int64{}
	for _, p := range r.profiles {
		out[p.Role]++
	}
	return out, nil
}

type memCategories struct{ *memStore }

func (r memCategories) Create(_ context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r memCategories) FindByID(_ context.Context, id int64) (*model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r memCategories) List(_ context.Context) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Category{}
	for _, c := range r.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCategories) Update(_ context.Context, c *model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r memCategories) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

type memCourses struct{ *memStore }

func (r memCourses) visible(c *model.Course, scope model.CourseScope) bool {
	return scope.InstructorID == nil || c.InstructorID == *scope.InstructorID
}

func (r memCourses) hydrate(c *model.Course) model.Course {
	out := *c
	out.CategoryName = nil
	if u, ok := r.users[c.InstructorID]; ok {
		out.InstructorName = u.DisplayName()
	}
	if c.CategoryID != nil {
		if cat, ok := r.categories[*c.CategoryID]; ok {
			name := cat.Name
			out.CategoryName = &name
		}
	}
	return out
}

func (r memCourses) Create(_ context.Context, c *model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r memCourses) FindByID(_ context.Context, id int64, scope model.CourseScope) (*model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok || !r.visible(c, scope) {
		return nil, nil
	}
	out := r.hydrate(c)
	return &out, nil
}

func (r memCourses) List(_ context.Context, scope model.CourseScope) ([]model.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Course{}
	for _, c := range r.courses {
		if r.visible(c, scope) {
			out = append(out, r.hydrate(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCourses) Update(_ context.Context, c *model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = time.Now()
	cp := *c
	r.courses[c.ID] = &cp
	return nil
}

func (r memCourses) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.courses, id)
	for eid, e := range r.enrollments {
		if e.CourseID == id {
			delete(r.enrollments, eid)
		}
	}
	return nil
}

func (r memCourses) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.courses)), nil
}

type memEnrollments struct{ *memStore }

func (r memEnrollments) visible(e *model.Enrollment, scope model.EnrollmentScope) bool {
	if scope.UserID != nil && e.UserID != *scope.UserID {
		return false
	}
	if scope.CourseInstructorID != nil {
		c, ok := r.courses[e.CourseID]
		if !ok || c.InstructorID != *scope.CourseInstructorID {
			return false
		}
	}
	return true
}

func (r memEnrollments) hydrate(e *model.Enrollment) model.Enrollment {
	out := *e
	if u, ok := r.users[e.UserID]; ok {
		out.UserUsername = u.Username
	}
	if c, ok := r.courses[e.CourseID]; ok {
		out.CourseTitle = c.Title
	}
	return out
}

// Create enforces the (user, course) uniqueness the database constraint provides.
func (r memEnrollments) Create(_ context.Context, e *model.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.enrollments {
		if existing.UserID == e.UserID && existing.CourseID == e.CourseID {
			return conflict("enrollments_user_course_key")
		}
	}
	e.ID = r.id()
	e.EnrolledAt = time.Now()
	cp := *e
	r.enrollments[e.ID] = &cp
	return nil
}

func (r memEnrollments) Exists(_ context.Context, userID, courseID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (r memEnrollments) FindByID(_ context.Context, id int64, scope model.EnrollmentScope) (*model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enrollments[id]
	if !ok || !r.visible(e, scope) {
		return nil, nil
	}
	out := r.hydrate(e)
	return &out, nil
}

func (r memEnrollments) List(_ context.Context, scope model.EnrollmentScope) ([]model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Enrollment{}
	for _, e := range r.enrollments {
		if r.visible(e, scope) {
			out = append(out, r.hydrate(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memEnrollments) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enrollments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.enrollments, id)
	return nil
}

func (r memEnrollments) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.enrollments)), nil
}

type memBlacklist struct{ *memStore }

func (r memBlacklist) Blacklist(_ context.Context, jti string, _ int64, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blacklist[jti] = true
	return nil
}

func (r memBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blacklist[jti], nil
}

type memLedger struct{ *memStore }

func (r memLedger) Consume(_ context.Context, tokenID string, _ time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.usedResets[tokenID] {
		return false, nil
	}
	r.usedResets[tokenID] = true
	return true, nil
}

func (r memLedger) Release(_ context.Context, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.usedResets, tokenID)
	return nil
}

// outbox records sent mail.
type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last() (mailer.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return mailer.Message{}, false
	}
	return o.sent[len(o.sent)-1], true
}
