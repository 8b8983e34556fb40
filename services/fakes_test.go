package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Dosada05/cup-manager/models"
	"github.com/Dosada05/cup-manager/repositories"
	"github.com/Dosada05/cup-manager/storage"
)

var errInjected = errors.New("injected failure")

type standingKey struct{ userID, eventID int }

// memStore — in-memory заменитель Postgres для тестов сервисов.
type memStore struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	nextID    int
	users     map[int]*models.User
	events    map[int]*models.Event
	matches   map[int]*models.Match
	results   map[int]*models.Result
	regs      map[standingKey]*models.EventRegistration
	standings map[standingKey]*models.LeagueStanding

	failUpsertForUser int
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[int]*models.User{},
		events:    map[int]*models.Event{},
		matches:   map[int]*models.Match{},
		results:   map[int]*models.Result{},
		regs:      map[standingKey]*models.EventRegistration{},
		standings: map[standingKey]*models.LeagueStanding{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dropResultsLocked повторяет ON DELETE CASCADE для results. Вызывать под mu.
func (s *memStore) dropResultsLocked(matchID int) {
	for id, res := range s.results {
		if res.MatchID == matchID {
			delete(s.results, id)
		}
	}
}

func (s *memStore) addUser(name string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: s.id(), Username: name, Role: models.RoleUser, RegistrationDate: time.Now()}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addEvent(name string, mode models.EventMode) *models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &models.Event{ID: s.id(), Name: name, Mode: mode, CreatedAt: time.Now()}
	s.events[e.ID] = e
	return e
}

func (s *memStore) addMatch(eventID, user1, user2 int) *models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &models.Match{ID: s.id(), EventID: eventID, User1ID: user1, User2ID: user2, CreatedAt: time.Now()}
	s.matches[m.ID] = m
	return m
}

func (s *memStore) register(userID, eventID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[standingKey{userID, eventID}] = &models.EventRegistration{UserID: userID, EventID: eventID}
}

func (s *memStore) standing(userID, eventID int) models.LeagueStanding {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.standings[standingKey{userID, eventID}]; ok {
		return *st
	}
	return models.LeagueStanding{}
}

func (s *memStore) resultCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func (s *memStore) withMatch(m *models.Match) *models.Match {
	cp := *m
	if u, ok := s.users[m.User1ID]; ok {
		cp.User1Username = u.Username
	}
	if u, ok := s.users[m.User2ID]; ok {
		cp.User2Username = u.Username
	}
	return &cp
}

// --- Transactor ---

type fakeTransactor struct{ store *memStore }

func (t fakeTransactor) WithinTransaction(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	t.store.mu.Lock()
	results := make(map[int]*models.Result, len(t.store.results))
	for k, v := range t.store.results {
		cp := *v
		results[k] = &cp
	}
	standings := make(map[standingKey]*models.LeagueStanding, len(t.store.standings))
	for k, v := range t.store.standings {
		cp := *v
		standings[k] = &cp
	}
	t.store.mu.Unlock()

	if err := fn(nil); err != nil {
		t.store.mu.Lock()
		t.store.results = results
		t.store.standings = standings
		t.store.mu.Unlock()
		return err
	}
	return nil
}

// --- Users ---

type fakeUserRepo struct{ store *memStore }

func (r fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
	}
	user.ID = r.store.id()
	user.RegistrationDate = time.Now()
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

func (r fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r fakeUserRepo) List(ctx context.Context) ([]*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	users := make([]*models.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		cp := *u
		users = append(users, &cp)
	}
	slices.SortFunc(users, func(a, b *models.User) int { return a.ID - b.ID })
	return users, nil
}

func (r fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	for _, u := range r.store.users {
		if u.ID != user.ID && u.Username == user.Username {
			return repositories.ErrUserUsernameConflict
		}
	}
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

func (r fakeUserRepo) Delete(ctx context.Context, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[id]; !ok {
		return repositories.ErrUserNotFound
	}
	delete(r.store.users, id)
	for mid, m := range r.store.matches {
		if m.HasParticipant(id) {
			delete(r.store.matches, mid)
			r.store.dropResultsLocked(mid)
		}
	}
	return nil
}

// --- Events ---

type fakeEventRepo struct{ store *memStore }

func (r fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	event.ID = r.store.id()
	event.CreatedAt = time.Now()
	cp := *event
	r.store.events[event.ID] = &cp
	return nil
}

func (r fakeEventRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (r fakeEventRepo) List(ctx context.Context) ([]*models.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	events := make([]*models.Event, 0, len(r.store.events))
	for _, e := range r.store.events {
		cp := *e
		events = append(events, &cp)
	}
	return events, nil
}

func (r fakeEventRepo) Update(ctx context.Context, event *models.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[event.ID]; !ok {
		return repositories.ErrEventNotFound
	}
	cp := *event
	r.store.events[event.ID] = &cp
	return nil
}

func (r fakeEventRepo) Delete(ctx context.Context, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[id]; !ok {
		return repositories.ErrEventNotFound
	}
	delete(r.store.events, id)
	for mid, m := range r.store.matches {
		if m.EventID == id {
			delete(r.store.matches, mid)
		}
	}
	return nil
}

func (r fakeEventRepo) HasMatches(ctx context.Context, id int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.matches {
		if m.EventID == id {
			return true, nil
		}
	}
	return false, nil
}

// --- Matches ---

type fakeMatchRepo struct{ store *memStore }

func (r fakeMatchRepo) Create(ctx context.Context, match *models.Match) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	match.ID = r.store.id()
	match.CreatedAt = time.Now()
	cp := *match
	r.store.matches[match.ID] = &cp
	return nil
}

func (r fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return r.store.withMatch(m), nil
}

func (r fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, id)
}

func (r fakeMatchRepo) filter(keep func(m *models.Match) bool) []*models.Match {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	matches := make([]*models.Match, 0)
	for _, m := range r.store.matches {
		if keep(m) {
			matches = append(matches, r.store.withMatch(m))
		}
	}
	slices.SortFunc(matches, func(a, b *models.Match) int { return a.ID - b.ID })
	return matches
}

func (r fakeMatchRepo) List(ctx context.Context, eventID *int) ([]*models.Match, error) {
	return r.filter(func(m *models.Match) bool { return eventID == nil || m.EventID == *eventID }), nil
}

func (r fakeMatchRepo) ListByUser(ctx context.Context, userID int) ([]*models.Match, error) {
	return r.filter(func(m *models.Match) bool { return m.HasParticipant(userID) }), nil
}

func (r fakeMatchRepo) Update(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.matches[match.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	cp := *match
	r.store.matches[match.ID] = &cp
	return nil
}

func (r fakeMatchRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.store.matches, id)
	r.store.dropResultsLocked(id)
	return nil
}

func (r fakeMatchRepo) ListHistory(ctx context.Context, userID int, eventID *int, newestFirst bool) ([]*models.MatchHistoryEntry, error) {
	matches := r.filter(func(m *models.Match) bool {
		return m.HasParticipant(userID) && (eventID == nil || m.EventID == *eventID)
	})
	if newestFirst {
		slices.Reverse(matches)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entries := make([]*models.MatchHistoryEntry, 0, len(matches))
	for _, m := range matches {
		e := &models.MatchHistoryEntry{
			MatchID:       m.ID,
			EventID:       m.EventID,
			EventName:     r.store.events[m.EventID].Name,
			User1ID:       m.User1ID,
			User1Username: m.User1Username,
			User2ID:       m.User2ID,
			User2Username: m.User2Username,
		}
		for _, res := range r.store.results {
			if res.MatchID == m.ID {
				e.HasResult = true
				e.User1Score, e.User2Score, e.WinnerUserID = res.User1Score, res.User2Score, res.WinnerUserID
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// --- Results ---

type fakeResultRepo struct{ store *memStore }

func (r fakeResultRepo) Create(ctx context.Context, exec repositories.SQLExecutor, result *models.Result) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, res := range r.store.results {
		if res.MatchID == result.MatchID {
			return repositories.ErrResultMatchConflict
		}
	}
	result.ID = r.store.id()
	result.CreatedAt = time.Now()
	cp := *result
	r.store.results[result.ID] = &cp
	return nil
}

func (r fakeResultRepo) GetByID(ctx context.Context, id int) (*models.Result, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	res, ok := r.store.results[id]
	if !ok {
		return nil, repositories.ErrResultNotFound
	}
	cp := *res
	return &cp, nil
}

func (r fakeResultRepo) GetByMatchID(ctx context.Context, exec repositories.SQLExecutor, matchID int) (*models.Result, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, res := range r.store.results {
		if res.MatchID == matchID {
			cp := *res
			return &cp, nil
		}
	}
	return nil, repositories.ErrResultNotFound
}

func (r fakeResultRepo) List(ctx context.Context, filter repositories.ResultFilter) ([]*models.Result, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*models.Result, 0)
	for _, res := range r.store.results {
		if filter.MatchID != nil && res.MatchID != *filter.MatchID {
			continue
		}
		if filter.EventID != nil {
			m, ok := r.store.matches[res.MatchID]
			if !ok || m.EventID != *filter.EventID {
				continue
			}
		}
		cp := *res
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Result) int { return a.ID - b.ID })
	return out, nil
}

func (r fakeResultRepo) Update(ctx context.Context, result *models.Result) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.results[result.ID]; !ok {
		return repositories.ErrResultNotFound
	}
	cp := *result
	r.store.results[result.ID] = &cp
	return nil
}

func (r fakeResultRepo) Delete(ctx context.Context, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.results[id]; !ok {
		return repositories.ErrResultNotFound
	}
	delete(r.store.results, id)
	return nil
}

// --- Registrations ---

type fakeRegistrationRepo struct{ store *memStore }

func (r fakeRegistrationRepo) Create(ctx context.Context, reg *models.EventRegistration) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	k := standingKey{reg.UserID, reg.EventID}
	if _, ok := r.store.regs[k]; ok {
		return repositories.ErrRegistrationConflict
	}
	reg.RegistrationDate = time.Now()
	cp := *reg
	r.store.regs[k] = &cp
	return nil
}

func (r fakeRegistrationRepo) Exists(ctx context.Context, userID, eventID int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	_, ok := r.store.regs[standingKey{userID, eventID}]
	return ok, nil
}

func (r fakeRegistrationRepo) List(ctx context.Context, filter repositories.RegistrationFilter) ([]*models.EventRegistration, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*models.EventRegistration, 0)
	for _, reg := range r.store.regs {
		if filter.UserID != nil && reg.UserID != *filter.UserID {
			continue
		}
		if filter.EventID != nil && reg.EventID != *filter.EventID {
			continue
		}
		cp := *reg
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.EventRegistration) int { return a.UserID - b.UserID })
	return out, nil
}

func (r fakeRegistrationRepo) ListParticipants(ctx context.Context, eventID int) ([]*models.Participant, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*models.Participant, 0)
	for k := range r.store.regs {
		if k.eventID == eventID {
			out = append(out, &models.Participant{ID: k.userID, Username: r.store.users[k.userID].Username})
		}
	}
	slices.SortFunc(out, func(a, b *models.Participant) int { return a.ID - b.ID })
	return out, nil
}

func (r fakeRegistrationRepo) Delete(ctx context.Context, userID, eventID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	k := standingKey{userID, eventID}
	if _, ok := r.store.regs[k]; !ok {
		return repositories.ErrRegistrationNotFound
	}
	delete(r.store.regs, k)
	return nil
}

// --- Standings ---

type fakeStandingRepo struct{ store *memStore }

func (r fakeStandingRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, eventID, userID int, delta models.StandingDelta) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failUpsertForUser == userID {
		return errInjected
	}
	k := standingKey{userID, eventID}
	st, ok := r.store.standings[k]
	if !ok {
		r.store.standings[k] = &models.LeagueStanding{
			ID: r.store.id(), UserID: userID, EventID: eventID,
			Points: delta.Points, Wins: delta.Wins, Draws: delta.Draws, Losses: delta.Losses,
			GoalsScored: delta.GoalsScored, GoalsAgainst: delta.GoalsAgainst,
			GamesPlayed: 1,
		}
		return nil
	}
	st.Points += delta.Points
	st.Wins += delta.Wins
	st.Draws += delta.Draws
	st.Losses += delta.Losses
	st.GoalsScored += delta.GoalsScored
	st.GoalsAgainst += delta.GoalsAgainst
	st.GamesPlayed++
	return nil
}

func (r fakeStandingRepo) ListByEvent(ctx context.Context, exec repositories.SQLExecutor, eventID int) ([]*repositories.StandingView, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*repositories.StandingView, 0)
	for k, st := range r.store.standings {
		if k.eventID == eventID {
			out = append(out, &repositories.StandingView{LeagueStanding: *st, Username: r.store.users[k.userID].Username})
		}
	}
	slices.SortFunc(out, func(a, b *repositories.StandingView) int { return a.UserID - b.UserID })
	return out, nil
}

// --- Storage ---

type memUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemUploader() *memUploader {
	return &memUploader{objects: map[string][]byte{}}
}

func (u *memUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.objects[key]; !ok {
		return fs.ErrNotExist
	}
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *memUploader) GetPublicURL(key string) string {
	return "https://files.test/" + key
}

func (u *memUploader) has(key string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.objects[key]
	return ok
}

// --- Сборка сервисов ---

type testEnv struct {
	store        *memStore
	uploader     *memUploader
	results      ResultService
	standings    StandingsService
	events       EventService
	matches      MatchService
	users        UserService
	registration RegistrationService
	auth         AuthService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	uploader := newMemUploader()
	logger := testLogger()

	userRepo := fakeUserRepo{store}
	eventRepo := fakeEventRepo{store}
	matchRepo := fakeMatchRepo{store}
	resultRepo := fakeResultRepo{store}
	regRepo := fakeRegistrationRepo{store}
	standingRepo := fakeStandingRepo{store}

	return &testEnv{
		store:        store,
		uploader:     uploader,
		results:      NewResultService(fakeTransactor{store}, resultRepo, matchRepo, eventRepo, NewStandingsAggregator(standingRepo), logger),
		standings:    NewStandingsService(eventRepo, standingRepo),
		events:       NewEventService(eventRepo, matchRepo, userRepo, regRepo, uploader, logger),
		matches:      NewMatchService(fakeTransactor{store}, matchRepo, eventRepo, userRepo, resultRepo, uploader, 1024, logger),
		users:        NewUserService(userRepo, matchRepo, eventRepo, uploader, logger),
		registration: NewRegistrationService(regRepo, eventRepo, userRepo),
		auth:         NewAuthService(userRepo, NewTokenIssuer("test-secret", time.Hour), logger),
	}
}

func ptr[T any](v T) *T { return &v }
