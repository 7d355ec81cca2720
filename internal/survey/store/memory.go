package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"tracker/internal/survey/models"
	dErrors "tracker/pkg/domain-errors"
	"tracker/pkg/platform/sentinel"
)

type sectionKey struct {
	survey   models.SurveyID
	category models.CategoryID
}

type answerKey struct {
	survey   models.SurveyID
	question models.QuestionID
}

type memState struct {
	nextID     int64
	surveys    map[models.SurveyID]models.Survey
	categories map[models.CategoryID]models.Category
	questions  map[models.QuestionID]models.Question
	sections   map[sectionKey]models.Section
	answers    map[answerKey]models.Answer
}

func newMemState() *memState {
	return &memState{
		surveys:    make(map[models.SurveyID]models.Survey),
		categories: make(map[models.CategoryID]models.Category),
		questions:  make(map[models.QuestionID]models.Question),
		sections:   make(map[sectionKey]models.Section),
		answers:    make(map[answerKey]models.Answer),
	}
}

func (st *memState) clone() *memState {
	return &memState{
		nextID:     st.nextID,
		surveys:    maps.Clone(st.surveys),
		categories: maps.Clone(st.categories),
		questions:  maps.Clone(st.questions),
		sections:   maps.Clone(st.sections),
		answers:    maps.Clone(st.answers),
	}
}

func (st *memState) id() int64 {
	st.nextID++
	return st.nextID
}

type memTxKey struct{}

// InMemory keeps all survey data in maps. A transaction works on a private
// copy that replaces the live state on commit.
type InMemory struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	state   *memState
	timeout time.Duration
}

func NewInMemory() *InMemory {
	return &InMemory{state: newMemState()}
}

// RunInTx runs fn against a staged copy. Writers are serialized.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel, err := withTxTimeout(ctx, s.timeout)
	defer cancel()
	if err != nil {
		return err
	}
	if _, nested := ctx.Value(memTxKey{}).(*memState); nested {
		return fn(ctx)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	s.mu.RLock()
	staged := s.state.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, memTxKey{}, staged)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	s.mu.Lock()
	s.state = staged
	s.mu.Unlock()
	return nil
}

func (s *InMemory) read(ctx context.Context, fn func(st *memState)) {
	if staged, ok := ctx.Value(memTxKey{}).(*memState); ok {
		fn(staged)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

func (s *InMemory) write(ctx context.Context, fn func(st *memState) error) error {
	if staged, ok := ctx.Value(memTxKey{}).(*memState); ok {
		return fn(staged)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *InMemory) CreateSurvey(ctx context.Context, survey *models.Survey) error {
	return s.write(ctx, func(st *memState) error {
		if survey.ID == 0 {
			survey.ID = models.SurveyID(st.id())
		} else if _, exists := st.surveys[survey.ID]; exists {
			return sentinel.ErrConflict
		}
		st.surveys[survey.ID] = *survey
		return nil
	})
}

func (s *InMemory) CreateCategory(ctx context.Context, c *models.Category) error {
	return s.write(ctx, func(st *memState) error {
		if c.ID == 0 {
			c.ID = models.CategoryID(st.id())
		} else if _, exists := st.categories[c.ID]; exists {
			return sentinel.ErrConflict
		}
		st.categories[c.ID] = *c
		return nil
	})
}

func (s *InMemory) CreateQuestion(ctx context.Context, q *models.Question) error {
	return s.write(ctx, func(st *memState) error {
		if _, ok := st.categories[q.CategoryID]; !ok {
			return sentinel.ErrConflict
		}
		if q.ID == 0 {
			q.ID = models.QuestionID(st.id())
		} else if _, exists := st.questions[q.ID]; exists {
			return sentinel.ErrConflict
		}
		st.questions[q.ID] = *q
		return nil
	})
}

// CreateSection materializes a survey's membership in a category.
func (s *InMemory) CreateSection(ctx context.Context, surveyID models.SurveyID, categoryID models.CategoryID) (models.SectionID, error) {
	var id models.SectionID
	err := s.write(ctx, func(st *memState) error {
		if _, ok := st.surveys[surveyID]; !ok {
			return sentinel.ErrConflict
		}
		if _, ok := st.categories[categoryID]; !ok {
			return sentinel.ErrConflict
		}
		key := sectionKey{surveyID, categoryID}
		if _, exists := st.sections[key]; exists {
			return sentinel.ErrConflict
		}
		id = models.SectionID(st.id())
		st.sections[key] = models.Section{ID: id, SurveyID: surveyID, CategoryID: categoryID}
		return nil
	})
	return id, err
}

func (s *InMemory) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	s.read(ctx, func(st *memState) {
		out = slices.Collect(maps.Values(st.categories))
	})
	slices.SortFunc(out, func(a, b models.Category) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *InMemory) ListSections(ctx context.Context, surveyID models.SurveyID) ([]models.Section, error) {
	var out []models.Section
	s.read(ctx, func(st *memState) {
		for key, sec := range st.sections {
			if key.survey == surveyID {
				out = append(out, sec)
			}
		}
	})
	slices.SortFunc(out, func(a, b models.Section) int { return cmp.Compare(a.CategoryID, b.CategoryID) })
	return out, nil
}

func (s *InMemory) FindQuestionsByCategories(ctx context.Context, categoryIDs []models.CategoryID) ([]models.Question, error) {
	var out []models.Question
	s.read(ctx, func(st *memState) {
		for _, q := range st.questions {
			if slices.Contains(categoryIDs, q.CategoryID) {
				out = append(out, q)
			}
		}
	})
	slices.SortFunc(out, func(a, b models.Question) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *InMemory) FindSurvey(ctx context.Context, id models.SurveyID) (*models.Survey, error) {
	var (
		survey models.Survey
		ok     bool
	)
	s.read(ctx, func(st *memState) {
		survey, ok = st.surveys[id]
	})
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &survey, nil
}

// LockSurvey reads the survey inside a transaction. Writers are already
// serialized, so no row lock is needed.
func (s *InMemory) LockSurvey(ctx context.Context, id models.SurveyID) (*models.Survey, error) {
	return s.FindSurvey(ctx, id)
}

func (s *InMemory) ListAnswers(ctx context.Context, surveyID models.SurveyID) ([]models.Answer, error) {
	var out []models.Answer
	s.read(ctx, func(st *memState) {
		for key, a := range st.answers {
			if key.survey == surveyID {
				out = append(out, a)
			}
		}
	})
	slices.SortFunc(out, func(a, b models.Answer) int { return cmp.Compare(a.QuestionID, b.QuestionID) })
	return out, nil
}

func (s *InMemory) UpsertSection(ctx context.Context, surveyID models.SurveyID, categoryID models.CategoryID, tookPart bool) (models.SectionID, error) {
	var id models.SectionID
	err := s.write(ctx, func(st *memState) error {
		key := sectionKey{surveyID, categoryID}
		sec, ok := st.sections[key]
		if !ok {
			if _, exists := st.surveys[surveyID]; !exists {
				return sentinel.ErrConflict
			}
			sec = models.Section{ID: models.SectionID(st.id()), SurveyID: surveyID, CategoryID: categoryID}
		}
		sec.TookPart = tookPart
		st.sections[key] = sec
		id = sec.ID
		return nil
	})
	return id, err
}

func (s *InMemory) UpsertAnswer(ctx context.Context, a models.Answer) error {
	return s.write(ctx, func(st *memState) error {
		if _, ok := st.questions[a.QuestionID]; !ok {
			return sentinel.ErrConflict
		}
		a.Value = slices.Clone(a.Value)
		st.answers[answerKey{a.SurveyID, a.QuestionID}] = a
		return nil
	})
}

func (s *InMemory) DeleteAnswersForSection(ctx context.Context, surveyID models.SurveyID, sectionID models.SectionID) (int64, error) {
	var n int64
	err := s.write(ctx, func(st *memState) error {
		for key, a := range st.answers {
			if key.survey == surveyID && a.SectionID == sectionID {
				delete(st.answers, key)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (s *InMemory) SetStatus(ctx context.Context, id models.SurveyID, status models.Status, submitDate *time.Time) error {
	return s.write(ctx, func(st *memState) error {
		survey, ok := st.surveys[id]
		if !ok {
			return sentinel.ErrNotFound
		}
		survey.Status = status
		if submitDate != nil {
			t := *submitDate
			survey.SubmitDate = &t
		}
		st.surveys[id] = survey
		return nil
	})
}
