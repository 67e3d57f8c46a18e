package command

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillpath/progress-engine/internal/domain/content"
	"github.com/skillpath/progress-engine/internal/domain/learner"
	"github.com/skillpath/progress-engine/internal/domain/shared"
	"github.com/skillpath/progress-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeStore struct {
	mu           sync.Mutex
	progress     map[learner.LearnerID]*learner.LearnerProgress
	lessons      map[string]*learner.LessonProgress
	questions    map[string]*learner.QuestionProgress
	achievements map[string]*learner.UnlockedAchievement
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		progress:     make(map[learner.LearnerID]*learner.LearnerProgress),
		lessons:      make(map[string]*learner.LessonProgress),
		questions:    make(map[string]*learner.QuestionProgress),
		achievements: make(map[string]*learner.UnlockedAchievement),
	}
}

func (s *fakeStore) GetOrCreateProgress(_ context.Context, id learner.LearnerID) (*learner.LearnerProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.progress[id]; ok {
		cp := *p
		return &cp, nil
	}
	p := learner.NewLearnerProgress(id, time.Now().UTC())
	s.progress[id] = p
	cp := *p
	return &cp, nil
}

func (s *fakeStore) GetProgress(_ context.Context, id learner.LearnerID) (*learner.LearnerProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[id]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) SaveProgress(_ context.Context, p *learner.LearnerProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.progress[p.LearnerID] = &cp
	return nil
}

func (s *fakeStore) GetOrCreateLessonProgress(_ context.Context, id learner.LearnerID, lessonID content.LessonID) (*learner.LessonProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := id.String() + "/" + lessonID.String()
	if lp, ok := s.lessons[key]; ok {
		cp := *lp
		return &cp, nil
	}
	lp := learner.NewLessonProgress(id, lessonID)
	s.lessons[key] = lp
	cp := *lp
	return &cp, nil
}

func (s *fakeStore) SaveLessonProgress(_ context.Context, lp *learner.LessonProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *lp
	s.lessons[lp.LearnerID.String()+"/"+lp.LessonID.String()] = &cp
	return nil
}

func (s *fakeStore) CountCompletedLessons(_ context.Context, id learner.LearnerID, _ content.ModuleID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, lp := range s.lessons {
		if lp.LearnerID == id && lp.Completed {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) GetOrCreateQuestionProgress(_ context.Context, id learner.LearnerID, questionID content.QuestionID) (*learner.QuestionProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := id.String() + "/" + questionID.String()
	if qp, ok := s.questions[key]; ok {
		cp := *qp
		return &cp, nil
	}
	qp := learner.NewQuestionProgress(id, questionID)
	s.questions[key] = qp
	cp := *qp
	return &cp, nil
}

func (s *fakeStore) SaveQuestionProgress(_ context.Context, qp *learner.QuestionProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *qp
	s.questions[qp.LearnerID.String()+"/"+qp.QuestionID.String()] = &cp
	return nil
}

func (s *fakeStore) ListUnlockedAchievements(_ context.Context, id learner.LearnerID) ([]learner.UnlockedAchievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []learner.UnlockedAchievement
	for _, ua := range s.achievements {
		if ua.LearnerID == id {
			out = append(out, *ua)
		}
	}
	return out, nil
}

func (s *fakeStore) SaveUnlockedAchievement(_ context.Context, ua *learner.UnlockedAchievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ua.LearnerID.String() + "/" + ua.AchievementID.String()
	if _, ok := s.achievements[key]; ok {
		return shared.ErrAchievementUnlocked
	}
	cp := *ua
	s.achievements[key] = &cp
	return nil
}

// fakeUnitOfWork executes fn directly against the fake store. The first
// conflictsLeft calls fail with a conflict before fn runs, simulating a
// lost transaction race.
type fakeUnitOfWork struct {
	store         learner.Store
	conflictsLeft int
	executions    int
}

func (u *fakeUnitOfWork) Execute(ctx context.Context, _ learner.LearnerID, fn func(ctx context.Context, store learner.Store) error) error {
	u.executions++
	if u.conflictsLeft > 0 {
		u.conflictsLeft--
		return shared.ErrConflict
	}
	return fn(ctx, u.store)
}

type fakeContentRepo struct {
	lessons      map[content.LessonID]*content.Lesson
	questions    map[content.QuestionID]*content.Question
	levels       []content.Level
	achievements []content.Achievement
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		lessons:   make(map[content.LessonID]*content.Lesson),
		questions: make(map[content.QuestionID]*content.Question),
		levels: []content.Level{
			{Number: 1, MinXP: 0},
			{Number: 2, MinXP: 100},
			{Number: 3, MinXP: 250},
		},
	}
}

func (r *fakeContentRepo) GetModule(_ context.Context, _ content.ModuleID) (*content.Module, error) {
	return nil, shared.ErrModuleNotFound
}

func (r *fakeContentRepo) ListModules(_ context.Context) ([]content.Module, error) {
	return nil, nil
}

func (r *fakeContentRepo) GetLesson(_ context.Context, id content.LessonID) (*content.Lesson, error) {
	lesson, ok := r.lessons[id]
	if !ok {
		return nil, shared.ErrLessonNotFound
	}
	return lesson, nil
}

func (r *fakeContentRepo) GetQuestion(_ context.Context, id content.QuestionID) (*content.Question, error) {
	question, ok := r.questions[id]
	if !ok {
		return nil, shared.ErrQuestionNotFound
	}
	return question, nil
}

func (r *fakeContentRepo) LevelTable(_ context.Context) (*content.LevelTable, error) {
	return content.NewLevelTable(r.levels)
}

func (r *fakeContentRepo) ListAchievements(_ context.Context) ([]content.Achievement, error) {
	return r.achievements, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) eventTypes() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]shared.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON
// ══════════════════════════════════════════════════════════════════════════════

func TestCompleteLessonHandler_FirstCompletion(t *testing.T) {
	store := newFakeStore()
	uow := &fakeUnitOfWork{store: store}
	repo := newFakeContentRepo()
	repo.lessons["lesson-1"] = &content.Lesson{
		ID:       "lesson-1",
		ModuleID: "module-1",
		XPReward: 50,
	}
	publisher := &capturePublisher{}

	handler := NewCompleteLessonHandler(uow, repo, publisher, nil)
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	result, err := handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "learner-1",
		LessonID:  "lesson-1",
		Timestamp: now,
	})
	require.NoError(t, err)

	assert.Equal(t, 50, result.XPAwarded)
	assert.Equal(t, 50, result.TotalXP)
	assert.False(t, result.AlreadyCompleted)
	assert.False(t, result.LeveledUp)
	assert.Equal(t, 1, result.StreakCount)

	types := publisher.eventTypes()
	assert.Contains(t, types, shared.EventLessonCompleted)
	assert.Contains(t, types, shared.EventXPGained)
	assert.Contains(t, types, shared.EventStreakUpdated)
	assert.NotContains(t, types, shared.EventLevelUp)
}

func TestCompleteLessonHandler_ReplayIsIdempotent(t *testing.T) {
	store := newFakeStore()
	uow := &fakeUnitOfWork{store: store}
	repo := newFakeContentRepo()
	repo.lessons["lesson-1"] = &content.Lesson{ID: "lesson-1", ModuleID: "module-1", XPReward: 50}
	publisher := &capturePublisher{}

	handler := NewCompleteLessonHandler(uow, repo, publisher, nil)
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	cmd := CompleteLessonCommand{LearnerID: "learner-1", LessonID: "lesson-1", Timestamp: now}

	first, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, 50, first.XPAwarded)

	eventsAfterFirst := len(publisher.eventTypes())

	replay, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, replay.AlreadyCompleted)
	assert.Equal(t, 0, replay.XPAwarded)
	assert.Equal(t, 50, replay.TotalXP)

	// No events on a replay.
	assert.Len(t, publisher.eventTypes(), eventsAfterFirst)
}

func TestCompleteLessonHandler_LevelUpAndAchievement(t *testing.T) {
	store := newFakeStore()
	uow := &fakeUnitOfWork{store: store}
	repo := newFakeContentRepo()
	repo.lessons["lesson-1"] = &content.Lesson{ID: "lesson-1", ModuleID: "module-1", XPReward: 120}
	repo.achievements = []content.Achievement{
		{
			ID:        "century",
			Name:      "Первая сотня",
			Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 100},
		},
	}
	publisher := &capturePublisher{}

	handler := NewCompleteLessonHandler(uow, repo, publisher, nil)

	result, err := handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "learner-1",
		LessonID:  "lesson-1",
		Timestamp: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 120, result.TotalXP)
	assert.True(t, result.LeveledUp)
	require.NotNil(t, result.NewLevel)
	assert.Equal(t, 2, result.NewLevel.Number)
	require.Len(t, result.UnlockedAchievements, 1)
	assert.Equal(t, content.AchievementID("century"), result.UnlockedAchievements[0].ID)

	types := publisher.eventTypes()
	assert.Contains(t, types, shared.EventLevelUp)
	assert.Contains(t, types, shared.EventAchievementUnlocked)
}

func TestCompleteLessonHandler_RetriesConflicts(t *testing.T) {
	store := newFakeStore()
	uow := &fakeUnitOfWork{store: store, conflictsLeft: 2}
	repo := newFakeContentRepo()
	repo.lessons["lesson-1"] = &content.Lesson{ID: "lesson-1", ModuleID: "module-1", XPReward: 50}
	publisher := &capturePublisher{}

	handler := NewCompleteLessonHandler(uow, repo, publisher, nil)

	result, err := handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "learner-1",
		LessonID:  "lesson-1",
		Timestamp: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, uow.executions)
	assert.Equal(t, 50, result.XPAwarded)
}

func TestCompleteLessonHandler_ConflictExhaustion(t *testing.T) {
	store := newFakeStore()
	uow := &fakeUnitOfWork{store: store, conflictsLeft: 10}
	repo := newFakeContentRepo()
	repo.lessons["lesson-1"] = &content.Lesson{ID: "lesson-1", ModuleID: "module-1", XPReward: 50}
	publisher := &capturePublisher{}

	handler := NewCompleteLessonHandler(uow, repo, publisher, nil)

	_, err := handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "learner-1",
		LessonID:  "lesson-1",
		Timestamp: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConflict)

	// No events when the command never committed.
	assert.Empty(t, publisher.eventTypes())
}

func TestCompleteLessonHandler_ValidationErrors(t *testing.T) {
	handler := NewCompleteLessonHandler(&fakeUnitOfWork{store: newFakeStore()}, newFakeContentRepo(), &capturePublisher{}, nil)

	_, err := handler.Handle(context.Background(), CompleteLessonCommand{LearnerID: "", LessonID: "lesson-1"})
	assert.ErrorIs(t, err, shared.ErrInvalidLearnerID)

	_, err = handler.Handle(context.Background(), CompleteLessonCommand{LearnerID: "learner-1", LessonID: ""})
	assert.Error(t, err)
}

func TestCompleteLessonHandler_UnknownLesson(t *testing.T) {
	handler := NewCompleteLessonHandler(&fakeUnitOfWork{store: newFakeStore()}, newFakeContentRepo(), &capturePublisher{}, nil)

	_, err := handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "learner-1",
		LessonID:  "missing",
	})
	assert.ErrorIs(t, err, shared.ErrLessonNotFound)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ANSWER
// ══════════════════════════════════════════════════════════════════════════════

func TestSubmitAnswerHandler_FirstCorrectAnswer(t *testing.T) {
	store := newFakeStore()
	uow := &fakeUnitOfWork{store: store}
	repo := newFakeContentRepo()
	repo.questions["q-1"] = &content.Question{
		ID:            "q-1",
		LessonID:      "lesson-1",
		CorrectAnswer: "goroutine",
		Difficulty:    content.DifficultyMedium,
	}
	publisher := &capturePublisher{}

	handler := NewSubmitAnswerHandler(uow, repo, publisher, nil)

	result, err := handler.Handle(context.Background(), SubmitAnswerCommand{
		LearnerID:        "learner-1",
		QuestionID:       "q-1",
		Answer:           "  Goroutine ",
		TimeSpentSeconds: 20,
		Timestamp:        time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, result.IsCorrect)
	assert.Equal(t, 20, result.XPAwarded)
	assert.Equal(t, 20, result.TotalXP)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, result.StreakCount)

	types := publisher.eventTypes()
	assert.Contains(t, types, shared.EventAnswerGraded)
	assert.Contains(t, types, shared.EventXPGained)
}

func TestSubmitAnswerHandler_IncorrectAnswer(t *testing.T) {
	store := newFakeStore()
	uow := &fakeUnitOfWork{store: store}
	repo := newFakeContentRepo()
	repo.questions["q-1"] = &content.Question{
		ID:            "q-1",
		CorrectAnswer: "goroutine",
		Difficulty:    content.DifficultyEasy,
	}
	publisher := &capturePublisher{}

	handler := NewSubmitAnswerHandler(uow, repo, publisher, nil)

	result, err := handler.Handle(context.Background(), SubmitAnswerCommand{
		LearnerID:  "learner-1",
		QuestionID: "q-1",
		Answer:     "mutex",
		Timestamp:  time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.False(t, result.IsCorrect)
	assert.Equal(t, 0, result.XPAwarded)
	assert.Equal(t, 0, result.TotalXP)
	assert.Equal(t, 1, result.Attempts)

	// Incorrect answers still produce a graded event but no XP event.
	types := publisher.eventTypes()
	assert.Contains(t, types, shared.EventAnswerGraded)
	assert.NotContains(t, types, shared.EventXPGained)
}

func TestSubmitAnswerHandler_RepeatCorrectAwardsNothing(t *testing.T) {
	store := newFakeStore()
	uow := &fakeUnitOfWork{store: store}
	repo := newFakeContentRepo()
	repo.questions["q-1"] = &content.Question{
		ID:            "q-1",
		CorrectAnswer: "goroutine",
		Difficulty:    content.DifficultyMedium,
	}
	publisher := &capturePublisher{}

	handler := NewSubmitAnswerHandler(uow, repo, publisher, nil)
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	cmd := SubmitAnswerCommand{
		LearnerID:  "learner-1",
		QuestionID: "q-1",
		Answer:     "goroutine",
		Timestamp:  now,
	}

	first, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, 20, first.XPAwarded)

	second, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, second.IsCorrect)
	assert.Equal(t, 0, second.XPAwarded)
	assert.Equal(t, 20, second.TotalXP)
	assert.Equal(t, 2, second.Attempts)
}

func TestSubmitAnswerHandler_IncorrectThenCorrect(t *testing.T) {
	store := newFakeStore()
	uow := &fakeUnitOfWork{store: store}
	repo := newFakeContentRepo()
	repo.questions["q-1"] = &content.Question{
		ID:            "q-1",
		CorrectAnswer: "goroutine",
		Difficulty:    content.DifficultyHard,
	}
	publisher := &capturePublisher{}

	handler := NewSubmitAnswerHandler(uow, repo, publisher, nil)
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	wrong, err := handler.Handle(context.Background(), SubmitAnswerCommand{
		LearnerID: "learner-1", QuestionID: "q-1", Answer: "mutex", Timestamp: now,
	})
	require.NoError(t, err)
	assert.False(t, wrong.IsCorrect)

	right, err := handler.Handle(context.Background(), SubmitAnswerCommand{
		LearnerID: "learner-1", QuestionID: "q-1", Answer: "goroutine", Timestamp: now,
	})
	require.NoError(t, err)

	assert.True(t, right.IsCorrect)
	assert.Equal(t, 40, right.XPAwarded)
	assert.Equal(t, 2, right.Attempts)
}

func TestSubmitAnswerHandler_ValidationErrors(t *testing.T) {
	handler := NewSubmitAnswerHandler(&fakeUnitOfWork{store: newFakeStore()}, newFakeContentRepo(), &capturePublisher{}, nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, SubmitAnswerCommand{LearnerID: "", QuestionID: "q-1", Answer: "x"})
	assert.ErrorIs(t, err, shared.ErrInvalidLearnerID)

	_, err = handler.Handle(ctx, SubmitAnswerCommand{LearnerID: "learner-1", QuestionID: "q-1", Answer: "   "})
	assert.ErrorIs(t, err, shared.ErrEmptyAnswer)

	_, err = handler.Handle(ctx, SubmitAnswerCommand{LearnerID: "learner-1", QuestionID: "q-1", Answer: "x", TimeSpentSeconds: -1})
	assert.ErrorIs(t, err, shared.ErrNegativeTimeSpent)
}

func TestSubmitAnswerHandler_UnknownQuestion(t *testing.T) {
	handler := NewSubmitAnswerHandler(&fakeUnitOfWork{store: newFakeStore()}, newFakeContentRepo(), &capturePublisher{}, nil)

	_, err := handler.Handle(context.Background(), SubmitAnswerCommand{
		LearnerID:  "learner-1",
		QuestionID: "missing",
		Answer:     "x",
	})
	assert.ErrorIs(t, err, shared.ErrQuestionNotFound)
}

// serialUnitOfWork serializes Execute with a mutex, modeling the row lock
// the postgres unit of work takes on the learner's progress row.
type serialUnitOfWork struct {
	mu    sync.Mutex
	store learner.Store
}

func (u *serialUnitOfWork) Execute(ctx context.Context, _ learner.LearnerID, fn func(ctx context.Context, store learner.Store) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(ctx, u.store)
}

func TestSubmitAnswerHandler_ConcurrentCorrectSubmissionsAwardOnce(t *testing.T) {
	store := newFakeStore()
	uow := &serialUnitOfWork{store: store}
	repo := newFakeContentRepo()
	repo.questions["q-1"] = &content.Question{
		ID:            "q-1",
		LessonID:      "lesson-1",
		CorrectAnswer: "dog",
		Difficulty:    content.DifficultyMedium,
	}

	handler := NewSubmitAnswerHandler(uow, repo, &capturePublisher{}, nil)
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	const workers = 32
	results := make([]*SubmitAnswerResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = handler.Handle(context.Background(), SubmitAnswerCommand{
				LearnerID:  "learner-1",
				QuestionID: "q-1",
				Answer:     "dog",
				Timestamp:  now,
			})
		}(i)
	}
	wg.Wait()

	awarded := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.True(t, results[i].IsCorrect)
		awarded += results[i].XPAwarded
	}

	// Exactly one submission wins the first-correct transition.
	assert.Equal(t, 20, awarded)

	progress, err := store.GetProgress(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(20), progress.TotalXP)
	assert.Equal(t, 1, progress.QuestionsCorrect)
}

// failingPublisher rejects every event.
type failingPublisher struct{}

func (failingPublisher) Publish(shared.Event) error {
	return errors.New("bus down")
}

func TestCompleteLessonHandler_PublishFailureDoesNotFailCommand(t *testing.T) {
	store := newFakeStore()
	uow := &fakeUnitOfWork{store: store}
	repo := newFakeContentRepo()
	repo.lessons["lesson-1"] = &content.Lesson{ID: "lesson-1", ModuleID: "module-1", XPReward: 50}

	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelWarn})

	handler := NewCompleteLessonHandler(uow, repo, failingPublisher{}, log)

	result, err := handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "learner-1",
		LessonID:  "lesson-1",
		Timestamp: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 50, result.XPAwarded)

	// The committed result stands; the failed publish is only warn-logged.
	assert.Contains(t, buf.String(), "failed to publish domain event")
	assert.Contains(t, buf.String(), "bus down")
}

// dupUnlockStore reports every unlock row as already present, as if a
// concurrent transaction inserted it first.
type dupUnlockStore struct {
	*fakeStore
}

func (s *dupUnlockStore) SaveUnlockedAchievement(_ context.Context, _ *learner.UnlockedAchievement) error {
	return shared.ErrAchievementUnlocked
}

func TestCompleteLessonHandler_ConcurrentUnlockKeepsBonusAccounting(t *testing.T) {
	store := &dupUnlockStore{fakeStore: newFakeStore()}
	uow := &fakeUnitOfWork{store: store}
	repo := newFakeContentRepo()
	repo.lessons["lesson-1"] = &content.Lesson{ID: "lesson-1", ModuleID: "module-1", XPReward: 120}
	repo.achievements = []content.Achievement{
		{
			ID:        "century",
			Name:      "Первая сотня",
			XPBonus:   30,
			Condition: content.Condition{Type: content.ConditionXPThreshold, Threshold: 100},
		},
	}

	handler := NewCompleteLessonHandler(uow, repo, &capturePublisher{}, nil)

	result, err := handler.Handle(context.Background(), CompleteLessonCommand{
		LearnerID: "learner-1",
		LessonID:  "lesson-1",
		Timestamp: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// The bonus was applied to the aggregate, so the result keeps both the
	// unlock and its XP even when the row insert lost the race.
	require.Len(t, result.UnlockedAchievements, 1)
	assert.Equal(t, 30, result.AchievementXPBonus)
	assert.Equal(t, 120, result.XPAwarded)
	assert.Equal(t, 150, result.TotalXP)
}
