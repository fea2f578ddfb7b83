package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Classtrail/config"
	"github.com/lshigami/Classtrail/internal/model"
	"github.com/lshigami/Classtrail/internal/repository"
)

// memStore backs every fake repository so services see one consistent dataset.
type memStore struct {
	mu sync.Mutex

	users             map[uuid.UUID]model.User
	classrooms        map[uuid.UUID]model.Classroom
	enrollments       map[uuid.UUID]model.Enrollment
	modules           map[uuid.UUID]model.TrailModule
	lessons           map[uuid.UUID]model.TrailLesson
	progress          map[uuid.UUID]model.LessonProgress
	exercises         map[uint]model.Exercise
	questions         map[uint]model.Question
	exerciseQuestions map[uint][]uint
	links             []model.ClassroomExercise
	attempts          map[uuid.UUID]model.ExerciseAttempt
	answers           []model.Answer
	evaluations       []model.Evaluation
	criteria          []model.Criterion

	nextID uint
	clock  time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:             map[uuid.UUID]model.User{},
		classrooms:        map[uuid.UUID]model.Classroom{},
		enrollments:       map[uuid.UUID]model.Enrollment{},
		modules:           map[uuid.UUID]model.TrailModule{},
		lessons:           map[uuid.UUID]model.TrailLesson{},
		progress:          map[uuid.UUID]model.LessonProgress{},
		exercises:         map[uint]model.Exercise{},
		questions:         map[uint]model.Question{},
		exerciseQuestions: map[uint][]uint{},
		attempts:          map[uuid.UUID]model.ExerciseAttempt{},
		clock:             time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so ordering by creation is deterministic.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// addUser registers a user directly.
func (s *memStore) addUser(role string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: uuid.New(), Name: "User " + role, Email: role + "@example.com", Role: role}
	s.users[u.ID] = u
	return u.ID
}

// addExercise stores an exercise with one question per type given, in order.
func (s *memStore) addExercise(title string, types ...string) (model.Exercise, []model.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ex := model.Exercise{ID: s.nextID, Title: title}
	ex.CreatedAt = s.tick()
	s.exercises[ex.ID] = ex
	var qs []model.Question
	for i, t := range types {
		s.nextID++
		q := model.Question{ID: s.nextID, Title: title, Statement: "Statement " + string(rune('A'+i)), Type: t}
		s.questions[q.ID] = q
		s.exerciseQuestions[ex.ID] = append(s.exerciseQuestions[ex.ID], q.ID)
		qs = append(qs, q)
	}
	return ex, qs
}

// ---- users

type fakeUserRepo struct{ s *memStore }

func (r fakeUserRepo) Sync(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	newID(&user.ID)
	if existing, ok := r.s.users[user.ID]; ok {
		if user.Name == "" {
			user.Name = existing.Name
		}
		if user.Email == "" {
			user.Email = existing.Email
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r fakeUserRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.users[id]
	return ok, nil
}

// ---- classrooms

type fakeClassroomRepo struct{ s *memStore }

func (r fakeClassroomRepo) Create(_ context.Context, c *model.Classroom) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.classrooms {
		if existing.AccessCode == c.AccessCode {
			return repository.ErrDuplicate
		}
	}
	newID(&c.ID)
	c.CreatedAt = r.s.tick()
	c.UpdatedAt = c.CreatedAt
	r.s.classrooms[c.ID] = *c
	return nil
}

func (r fakeClassroomRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Classroom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.classrooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r fakeClassroomRepo) FindByAccessCode(_ context.Context, code string) (*model.Classroom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.classrooms {
		if c.AccessCode == code {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeClassroomRepo) AccessCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByAccessCode(ctx, code)
	return err == nil, nil
}

func (r fakeClassroomRepo) Update(_ context.Context, c *model.Classroom) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.classrooms[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = c.Name
	existing.Description = c.Description
	existing.Active = c.Active
	existing.UpdatedAt = r.s.tick()
	r.s.classrooms[c.ID] = existing
	return nil
}

func (r fakeClassroomRepo) SetDefault(_ context.Context, id uuid.UUID) (*model.Classroom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	target, ok := r.s.classrooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for cid, c := range r.s.classrooms {
		c.IsDefault = false
		r.s.classrooms[cid] = c
	}
	target.IsDefault = true
	r.s.classrooms[id] = target
	return &target, nil
}

func (r fakeClassroomRepo) FindDefault(_ context.Context) (*model.Classroom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.classrooms {
		if c.IsDefault {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeClassroomRepo) ListActiveByOwner(_ context.Context, ownerID uuid.UUID) ([]repository.ClassroomWithCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []repository.ClassroomWithCounts
	for _, c := range r.s.classrooms {
		if c.OwnerID != ownerID || !c.Active {
			continue
		}
		row := repository.ClassroomWithCounts{Classroom: c}
		for _, e := range r.s.enrollments {
			if e.ClassroomID == c.ID && e.Active {
				row.StudentCount++
			}
		}
		for _, m := range r.s.modules {
			if m.ClassroomID == c.ID && m.Active {
				row.ModuleCount++
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- enrollments

type fakeEnrollmentRepo struct{ s *memStore }

func (r fakeEnrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.enrollments {
		if existing.ClassroomID == e.ClassroomID && existing.StudentID == e.StudentID {
			return repository.ErrDuplicate
		}
	}
	newID(&e.ID)
	e.CreatedAt = r.s.tick()
	r.s.enrollments[e.ID] = *e
	return nil
}

func (r fakeEnrollmentRepo) FindByClassroomAndStudent(_ context.Context, classroomID, studentID uuid.UUID) (*model.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.enrollments {
		if e.ClassroomID == classroomID && e.StudentID == studentID {
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeEnrollmentRepo) FindActive(ctx context.Context, classroomID, studentID uuid.UUID) (*model.Enrollment, error) {
	e, err := r.FindByClassroomAndStudent(ctx, classroomID, studentID)
	if err != nil {
		return nil, err
	}
	if !e.Active {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (r fakeEnrollmentRepo) Update(_ context.Context, e *model.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.enrollments[e.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Active = e.Active
	existing.EnrolledAt = e.EnrolledAt
	r.s.enrollments[e.ID] = existing
	return nil
}

func (r fakeEnrollmentRepo) ListActiveByStudent(_ context.Context, studentID uuid.UUID) ([]model.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Enrollment
	for _, e := range r.s.enrollments {
		c := r.s.classrooms[e.ClassroomID]
		if e.StudentID == studentID && e.Active && c.Active {
			e.Classroom = c
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt.After(out[j].EnrolledAt) })
	return out, nil
}

func (r fakeEnrollmentRepo) ListActiveByClassroom(_ context.Context, classroomID uuid.UUID) ([]model.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Enrollment
	for _, e := range r.s.enrollments {
		if e.ClassroomID == classroomID && e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---- trail

type fakeTrailRepo struct{ s *memStore }

func (r fakeTrailRepo) CreateModule(_ context.Context, m *model.TrailModule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	newID(&m.ID)
	m.CreatedAt = r.s.tick()
	stored := *m
	stored.Lessons = nil
	r.s.modules[m.ID] = stored
	return nil
}

func (r fakeTrailRepo) FindModule(_ context.Context, id uuid.UUID) (*model.TrailModule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.modules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r fakeTrailRepo) UpdateModule(_ context.Context, m *model.TrailModule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.modules[m.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored := *m
	stored.ClassroomID = existing.ClassroomID
	stored.Lessons = nil
	r.s.modules[m.ID] = stored
	return nil
}

func (r fakeTrailRepo) ListActiveModules(_ context.Context, classroomID uuid.UUID) ([]model.TrailModule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.TrailModule
	for _, m := range r.s.modules {
		if m.ClassroomID != classroomID || !m.Active {
			continue
		}
		for _, l := range r.s.lessons {
			if l.ModuleID == m.ID {
				l.Exercise = r.s.exercises[l.ExerciseID]
				m.Lessons = append(m.Lessons, l)
			}
		}
		sort.Slice(m.Lessons, func(i, j int) bool {
			if m.Lessons[i].Order != m.Lessons[j].Order {
				return m.Lessons[i].Order < m.Lessons[j].Order
			}
			return m.Lessons[i].CreatedAt.Before(m.Lessons[j].CreatedAt)
		})
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r fakeTrailRepo) CountActiveLessons(ctx context.Context, classroomID uuid.UUID) (int64, error) {
	modules, _ := r.ListActiveModules(ctx, classroomID)
	var n int64
	for _, m := range modules {
		n += int64(len(m.Lessons))
	}
	return n, nil
}

func (r fakeTrailRepo) CreateLesson(_ context.Context, l *model.TrailLesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	newID(&l.ID)
	l.CreatedAt = r.s.tick()
	stored := *l
	stored.Exercise = model.Exercise{}
	r.s.lessons[l.ID] = stored
	return nil
}

func (r fakeTrailRepo) FindLesson(_ context.Context, id uuid.UUID) (*model.TrailLesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lessons[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (r fakeTrailRepo) UpdateLesson(_ context.Context, l *model.TrailLesson) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.lessons[l.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored := *l
	stored.ModuleID = existing.ModuleID
	stored.Exercise = model.Exercise{}
	r.s.lessons[l.ID] = stored
	return nil
}

func (r fakeTrailRepo) DeleteLesson(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lessons[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.lessons, id)
	return nil
}

// ---- progress

type fakeProgressRepo struct{ s *memStore }

func (r fakeProgressRepo) Upsert(_ context.Context, u repository.ProgressUpdate) (*model.LessonProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var completedAt *time.Time
	if u.Completed {
		at := u.At
		completedAt = &at
	}
	for id, p := range r.s.progress {
		if p.EnrollmentID == u.EnrollmentID && p.LessonID == u.LessonID {
			p.Completed = u.Completed
			p.Score = u.Score
			p.XPEarned = u.XPEarned
			p.CompletedAt = completedAt
			p.Attempts++
			r.s.progress[id] = p
			return &p, nil
		}
	}
	p := model.LessonProgress{
		ID:           uuid.New(),
		EnrollmentID: u.EnrollmentID,
		LessonID:     u.LessonID,
		Completed:    u.Completed,
		Score:        u.Score,
		XPEarned:     u.XPEarned,
		Attempts:     1,
		CompletedAt:  completedAt,
	}
	r.s.progress[p.ID] = p
	return &p, nil
}

func (r fakeProgressRepo) ListByEnrollment(_ context.Context, enrollmentID uuid.UUID) ([]model.LessonProgress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.LessonProgress
	for _, p := range r.s.progress {
		if p.EnrollmentID == enrollmentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r fakeProgressRepo) SummarizeEnrollment(_ context.Context, enrollmentID uuid.UUID) (repository.ProgressSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var summary repository.ProgressSummary
	for _, p := range r.s.progress {
		if p.EnrollmentID != enrollmentID || !p.Completed {
			continue
		}
		lesson, ok := r.s.lessons[p.LessonID]
		if !ok || !r.s.modules[lesson.ModuleID].Active {
			continue
		}
		summary.CompletedLessons++
		summary.TotalXP += int64(p.XPEarned)
	}
	return summary, nil
}

// ---- catalog

type fakeCatalogRepo struct{ s *memStore }

func (r fakeCatalogRepo) CreateExercise(_ context.Context, ex *model.Exercise, questions []model.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	ex.ID = r.s.nextID
	ex.CreatedAt = r.s.tick()
	stored := *ex
	stored.Questions = nil
	r.s.exercises[ex.ID] = stored
	for i := range questions {
		r.s.nextID++
		questions[i].ID = r.s.nextID
		r.s.questions[questions[i].ID] = questions[i]
		r.s.exerciseQuestions[ex.ID] = append(r.s.exerciseQuestions[ex.ID], questions[i].ID)
	}
	ex.Questions = questions
	return nil
}

func (r fakeCatalogRepo) FindExercise(_ context.Context, id uint) (*model.Exercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ex, ok := r.s.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ex, nil
}

func (r fakeCatalogRepo) ExerciseExists(ctx context.Context, id uint) (bool, error) {
	_, err := r.FindExercise(ctx, id)
	return err == nil, nil
}

func (r fakeCatalogRepo) QuestionsOf(_ context.Context, exerciseID uint) ([]model.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Question
	for _, qid := range r.s.exerciseQuestions[exerciseID] {
		out = append(out, r.s.questions[qid])
	}
	return out, nil
}

func (r fakeCatalogRepo) QuestionBelongsToExercise(_ context.Context, questionID, exerciseID uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, qid := range r.s.exerciseQuestions[exerciseID] {
		if qid == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeCatalogRepo) FindQuestion(_ context.Context, id uint) (*model.Question, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (r fakeCatalogRepo) ListExercises(_ context.Context) ([]repository.ExerciseWithCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []repository.ExerciseWithCount
	for _, ex := range r.s.exercises {
		out = append(out, repository.ExerciseWithCount{Exercise: ex, QuestionCount: len(r.s.exerciseQuestions[ex.ID])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeCatalogRepo) DeleteExercise(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.exercises[id]; !ok {
		return repository.ErrNotFound
	}
	attemptIDs := map[uuid.UUID]bool{}
	for aid, a := range r.s.attempts {
		if a.ExerciseID == id {
			attemptIDs[aid] = true
			delete(r.s.attempts, aid)
		}
	}
	answerIDs := map[uuid.UUID]bool{}
	keptAnswers := r.s.answers[:0]
	for _, a := range r.s.answers {
		if attemptIDs[a.AttemptID] {
			answerIDs[a.ID] = true
			continue
		}
		keptAnswers = append(keptAnswers, a)
	}
	r.s.answers = keptAnswers
	keptEvals := r.s.evaluations[:0]
	for _, e := range r.s.evaluations {
		if !answerIDs[e.AnswerID] {
			keptEvals = append(keptEvals, e)
		}
	}
	r.s.evaluations = keptEvals
	for lid, l := range r.s.lessons {
		if l.ExerciseID == id {
			for pid, p := range r.s.progress {
				if p.LessonID == lid {
					delete(r.s.progress, pid)
				}
			}
			delete(r.s.lessons, lid)
		}
	}
	keptLinks := r.s.links[:0]
	for _, l := range r.s.links {
		if l.ExerciseID != id {
			keptLinks = append(keptLinks, l)
		}
	}
	r.s.links = keptLinks
	delete(r.s.exerciseQuestions, id)
	delete(r.s.exercises, id)
	return nil
}

func (r fakeCatalogRepo) CreateLink(_ context.Context, link *model.ClassroomExercise) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.links {
		if l.ClassroomID == link.ClassroomID && l.ExerciseID == link.ExerciseID {
			return repository.ErrDuplicate
		}
	}
	newID(&link.ID)
	link.CreatedAt = r.s.tick()
	r.s.links = append(r.s.links, *link)
	return nil
}

func (r fakeCatalogRepo) FindLink(_ context.Context, classroomID uuid.UUID, exerciseID uint) (*model.ClassroomExercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.links {
		if l.ClassroomID == classroomID && l.ExerciseID == exerciseID {
			return &l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeCatalogRepo) ListLinks(_ context.Context, classroomID uuid.UUID) ([]model.ClassroomExercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ClassroomExercise
	for _, l := range r.s.links {
		if l.ClassroomID == classroomID {
			l.Exercise = r.s.exercises[l.ExerciseID]
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r fakeCatalogRepo) DeleteLink(_ context.Context, classroomID uuid.UUID, exerciseID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, l := range r.s.links {
		if l.ClassroomID == classroomID && l.ExerciseID == exerciseID {
			r.s.links = append(r.s.links[:i], r.s.links[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ---- attempts

type fakeAttemptRepo struct{ s *memStore }

func (r fakeAttemptRepo) Create(_ context.Context, a *model.ExerciseAttempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.attempts {
		if existing.StudentID == a.StudentID && existing.ExerciseID == a.ExerciseID {
			return repository.ErrDuplicate
		}
	}
	newID(&a.ID)
	a.CreatedAt = r.s.tick()
	r.s.attempts[a.ID] = *a
	return nil
}

func (r fakeAttemptRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ExerciseAttempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r fakeAttemptRepo) FindByStudentAndExercise(_ context.Context, studentID uuid.UUID, exerciseID uint) (*model.ExerciseAttempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.attempts {
		if a.StudentID == studentID && a.ExerciseID == exerciseID {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeAttemptRepo) Complete(_ context.Context, id uuid.UUID, finishedAt time.Time) (*model.ExerciseAttempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if a.IsCompleted() {
		return nil, repository.ErrStateConflict
	}
	a.Status = model.AttemptStatusCompleted
	a.FinishedAt = &finishedAt
	r.s.attempts[id] = a
	return &a, nil
}

func (r fakeAttemptRepo) ListByStudent(_ context.Context, studentID uuid.UUID) ([]model.ExerciseAttempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.ExerciseAttempt
	for _, a := range r.s.attempts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeAttemptRepo) ListCompletedByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ExerciseAttempt, error) {
	all, _ := r.ListByStudent(ctx, studentID)
	var out []model.ExerciseAttempt
	for _, a := range all {
		if a.IsCompleted() {
			out = append(out, a)
		}
	}
	return out, nil
}

// ---- answers and evaluations

type fakeAnswerRepo struct{ s *memStore }

func (r fakeAnswerRepo) Create(_ context.Context, a *model.Answer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	newID(&a.ID)
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = r.s.tick()
	}
	stored := *a
	stored.Question = model.Question{}
	stored.Evaluations = nil
	r.s.answers = append(r.s.answers, stored)
	return nil
}

// hydrate attaches evaluations with their criterion; callers hold the lock.
func (r fakeAnswerRepo) hydrate(a model.Answer) model.Answer {
	a.Evaluations = nil
	for _, e := range r.s.evaluations {
		if e.AnswerID == a.ID {
			for _, c := range r.s.criteria {
				if c.ID == e.CriterionID {
					e.Criterion = c
				}
			}
			a.Evaluations = append(a.Evaluations, e)
		}
	}
	return a
}

func (r fakeAnswerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Answer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.answers {
		if a.ID == id {
			a = r.hydrate(a)
			a.Question = r.s.questions[a.QuestionID]
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeAnswerRepo) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error) {
	return r.ListByAttempts(ctx, []uuid.UUID{attemptID})
}

func (r fakeAnswerRepo) ListByAttempts(_ context.Context, attemptIDs []uuid.UUID) ([]model.Answer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := map[uuid.UUID]bool{}
	for _, id := range attemptIDs {
		wanted[id] = true
	}
	var out []model.Answer
	for _, a := range r.s.answers {
		if wanted[a.AttemptID] {
			out = append(out, r.hydrate(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (r fakeAnswerRepo) ListUngradedCode(_ context.Context, olderThan time.Time, limit int) ([]model.Answer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Answer
	for _, a := range r.s.answers {
		q := r.s.questions[a.QuestionID]
		if !q.IsCode() || !a.SubmittedAt.Before(olderThan) || len(r.hydrate(a).Evaluations) > 0 {
			continue
		}
		a.Question = q
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeEvaluationRepo struct {
	s   *memStore
	err error
}

func (r fakeEvaluationRepo) CreateBatch(_ context.Context, evaluations []model.Evaluation) error {
	if r.err != nil {
		return r.err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range evaluations {
		duplicate := false
		for _, existing := range r.s.evaluations {
			if existing.AnswerID == e.AnswerID && existing.CriterionID == e.CriterionID {
				duplicate = true
			}
		}
		if duplicate {
			continue
		}
		newID(&e.ID)
		e.Criterion = model.Criterion{}
		r.s.evaluations = append(r.s.evaluations, e)
	}
	return nil
}

func (r fakeEvaluationRepo) ListByAnswer(_ context.Context, answerID uuid.UUID) ([]model.Evaluation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Evaluation
	for _, e := range r.s.evaluations {
		if e.AnswerID == answerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ---- criteria

type fakeCriterionRepo struct{ s *memStore }

func (r fakeCriterionRepo) Create(_ context.Context, c *model.Criterion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.criteria {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	newID(&c.ID)
	r.s.criteria = append(r.s.criteria, *c)
	return nil
}

func (r fakeCriterionRepo) List(_ context.Context) ([]model.Criterion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := append([]model.Criterion(nil), r.s.criteria...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out, nil
}

func (r fakeCriterionRepo) SeedIfEmpty(ctx context.Context, defaults []model.Criterion) ([]model.Criterion, error) {
	r.s.mu.Lock()
	empty := len(r.s.criteria) == 0
	r.s.mu.Unlock()
	if empty {
		for i := range defaults {
			if err := r.Create(ctx, &defaults[i]); err != nil && !errors.Is(err, repository.ErrDuplicate) {
				return nil, err
			}
		}
	}
	return r.List(ctx)
}

// ---- collaborators

// syncRunner runs tasks inline so tests observe their effects immediately.
type syncRunner struct{ names []string }

func (r *syncRunner) Go(name string, task func(ctx context.Context)) {
	r.names = append(r.names, name)
	task(context.Background())
}

// heldRunner keeps tasks until release is called.
type heldRunner struct{ tasks []func(ctx context.Context) }

func (r *heldRunner) Go(_ string, task func(ctx context.Context)) {
	r.tasks = append(r.tasks, task)
}

func (r *heldRunner) release() {
	tasks := r.tasks
	r.tasks = nil
	for _, t := range tasks {
		t(context.Background())
	}
}

type stubEvaluator struct {
	mu        sync.Mutex
	result    *EvaluationResult
	err       error
	message   string
	encErr    error
	calls     int
	lastInput EvaluationRequest
}

func (e *stubEvaluator) Evaluate(_ context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.lastInput = req
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func (e *stubEvaluator) Encourage(_ context.Context, _ EncouragementRequest) (string, error) {
	return e.message, e.encErr
}

type stubIdentity struct {
	profiles map[uuid.UUID]Profile
	err      error
}

func (s stubIdentity) GetProfile(_ context.Context, id uuid.UUID) (*Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrStudentNotFound
	}
	return &p, nil
}

// ---- fixture

func testConfig() *config.Config {
	return &config.Config{Grading: config.Grading{
		AccessCodeMaxAttempts: config.MinAccessCodeAttempts,
		SweeperSchedule:       "@every 1m",
		SweeperStaleAfter:     time.Minute,
	}}
}

type fixture struct {
	store       *memStore
	users       fakeUserRepo
	classroomsR fakeClassroomRepo
	catalogR    fakeCatalogRepo
	runner      *syncRunner
	evaluator   *stubEvaluator

	codes       CodeGenerator
	classrooms  ClassroomService
	progress    ProgressService
	enrollments EnrollmentService
	trails      TrailService
	catalog     CatalogService
	criteria    CriteriaService
	attempts    AttemptService
	grading     GradingService
}

func newFixture(identity IdentityProvider) *fixture {
	s := newMemStore()
	f := &fixture{
		store:       s,
		users:       fakeUserRepo{s},
		classroomsR: fakeClassroomRepo{s},
		catalogR:    fakeCatalogRepo{s},
		runner:      &syncRunner{},
		evaluator: &stubEvaluator{result: &EvaluationResult{
			Approved: true, Score: 90, Feedback: "Well done", Suggestions: []string{"Add tests"},
		}},
	}
	if identity == nil {
		identity = NewUserDirectory(f.users)
	}
	cfg := testConfig()
	f.codes = NewCodeGenerator(f.classroomsR, cfg)
	f.classrooms = NewClassroomService(f.classroomsR, f.catalogR, f.codes)
	f.progress = NewProgressService(f.classroomsR, fakeEnrollmentRepo{s}, fakeTrailRepo{s}, fakeProgressRepo{s})
	f.enrollments = NewEnrollmentService(f.classroomsR, fakeEnrollmentRepo{s}, fakeTrailRepo{s}, f.progress, identity)
	f.trails = NewTrailService(f.classroomsR, fakeTrailRepo{s}, f.catalogR)
	f.catalog = NewCatalogService(f.catalogR)
	f.criteria = NewCriteriaService(fakeCriterionRepo{s})
	f.attempts = NewAttemptService(fakeAttemptRepo{s}, fakeAnswerRepo{s}, f.catalogR, f.users)
	f.grading = NewGradingService(fakeAttemptRepo{s}, fakeAnswerRepo{s}, fakeEvaluationRepo{s: s}, f.catalogR,
		f.attempts, f.criteria, f.evaluator, f.runner)
	return f
}
