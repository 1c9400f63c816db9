package services

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// memoryAccounts is an in-memory AccountStore
type memoryAccounts struct {
	mu           sync.Mutex
	byID         map[uuid.UUID]models.Account
	markCalls    int
	failMarkOnce error
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byID: map[uuid.UUID]models.Account{}}
}

func (m *memoryAccounts) add(a models.Account) *models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.byID[a.ID] = a
	return &a
}

func (m *memoryAccounts) Create(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return database.ErrDuplicateEmail
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.byID[a.ID] = *a
	return nil
}

func (m *memoryAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memoryAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range m.byID {
		if a.Email == email {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryAccounts) MarkSetupComplete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls++
	if err := m.failMarkOnce; err != nil {
		m.failMarkOnce = nil
		return err
	}
	a := m.byID[id]
	a.HasCompletedSetup = true
	m.byID[id] = a
	return nil
}

func (m *memoryAccounts) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.byID[id]
	a.LastLoginAt = models.NullTime{}
	a.LastLoginAt.Time, a.LastLoginAt.Valid = time.Now(), true
	m.byID[id] = a
	return nil
}

func (m *memoryAccounts) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.byID[id]
	a.PasswordHash = hash
	m.byID[id] = a
	return nil
}

func (m *memoryAccounts) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return database.ErrNotFound
	}
	a.IsActive = active
	m.byID[id] = a
	return nil
}

func (m *memoryAccounts) ListByRole(_ context.Context, role string) ([]*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Account{}
	for _, a := range m.byID {
		if a.Role == role {
			found := a
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memoryAccounts) CountByRole(_ context.Context) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, a := range m.byID {
		counts[a.Role]++
	}
	return counts, nil
}

func (m *memoryAccounts) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type storedListing struct {
	doc     []byte
	created time.Time
}

// memoryListings is an in-memory ListingStore that keeps JSON copies so
// callers never share state with the store
type memoryListings struct {
	mu         sync.Mutex
	docs       map[models.BusinessType]map[string]storedListing
	saves      int
	createErr  error
	beforeSave func()
}

func newMemoryListings() *memoryListings {
	return &memoryListings{docs: map[models.BusinessType]map[string]storedListing{}}
}

func (m *memoryListings) put(l models.BusinessListing) {
	doc, err := json.Marshal(l)
	if err != nil {
		panic(err)
	}
	if m.docs[l.Type()] == nil {
		m.docs[l.Type()] = map[string]storedListing{}
	}
	m.docs[l.Type()][l.Base().ID] = storedListing{doc: doc, created: time.Now()}
}

func decode(t models.BusinessType, doc []byte) models.BusinessListing {
	l, err := models.NewListing(t)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(doc, l); err != nil {
		panic(err)
	}
	return l
}

// seed stores l as-is, assigning an id and version when missing
func (m *memoryListings) seed(l models.BusinessListing) models.BusinessListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := l.Base()
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.Version == 0 {
		base.Version = 1
	}
	m.put(l)
	return l
}

// current returns a fresh copy of the stored listing
func (m *memoryListings) current(t models.BusinessType, id string) models.BusinessListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[t][id]
	if !ok {
		return nil
	}
	return decode(t, stored.doc)
}

func (m *memoryListings) Create(_ context.Context, l models.BusinessListing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	base := l.Base()
	for _, stored := range m.docs[l.Type()] {
		if decode(l.Type(), stored.doc).Base().Owner == base.Owner {
			return database.ErrListingExists
		}
	}
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	base.Version = 1
	base.CreatedAt = time.Now()
	base.UpdatedAt = base.CreatedAt
	m.put(l)
	return nil
}

func (m *memoryListings) GetByID(_ context.Context, t models.BusinessType, id string) (models.BusinessListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.docs[t][id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return decode(t, stored.doc), nil
}

func (m *memoryListings) GetByOwner(_ context.Context, t models.BusinessType, ownerID string) (models.BusinessListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stored := range m.docs[t] {
		l := decode(t, stored.doc)
		if l.Base().Owner == ownerID {
			return l, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *memoryListings) Save(_ context.Context, l models.BusinessListing) error {
	if m.beforeSave != nil {
		m.beforeSave()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	base := l.Base()
	stored, ok := m.docs[l.Type()][base.ID]
	if !ok {
		return database.ErrVersionConflict
	}
	if decode(l.Type(), stored.doc).Base().Version != base.Version {
		return database.ErrVersionConflict
	}
	base.Version++
	base.UpdatedAt = time.Now()
	m.saves++
	m.put(l)
	return nil
}

func (m *memoryListings) Delete(_ context.Context, t models.BusinessType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[t][id]; !ok {
		return database.ErrNotFound
	}
	delete(m.docs[t], id)
	return nil
}

func (m *memoryListings) List(_ context.Context, t models.BusinessType, filter database.ListingFilter) ([]models.BusinessListing, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filter = filter.Normalize()

	var matches []models.BusinessListing
	for _, stored := range m.docs[t] {
		l := decode(t, stored.doc)
		if filter.Status != "" && l.Base().Status != filter.Status {
			continue
		}
		if filter.City != "" && !inArea(l.SearchArea(), filter.City, func(a models.Area) string { return a.City }) {
			continue
		}
		if filter.District != "" && !inArea(l.SearchArea(), filter.District, func(a models.Area) string { return a.District }) {
			continue
		}
		if !matchesVariant(l, filter) {
			continue
		}
		matches = append(matches, l)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Base().ID < matches[j].Base().ID })

	total := len(matches)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

// matchesVariant mirrors the repositories' variant filters
func matchesVariant(l models.BusinessListing, filter database.ListingFilter) bool {
	if filter.MinRating > 0 && l.Base().Rating.Average < filter.MinRating {
		return false
	}
	switch v := l.(type) {
	case *models.Hotel:
		if filter.StarRating > 0 && v.StarRating != filter.StarRating {
			return false
		}
		if filter.MinPrice > 0 || filter.MaxPrice > 0 {
			priced := false
			for _, room := range v.Rooms {
				if room.PricePerNight >= filter.MinPrice && (filter.MaxPrice == 0 || room.PricePerNight <= filter.MaxPrice) {
					priced = true
					break
				}
			}
			if !priced {
				return false
			}
		}
		if len(filter.Amenities) > 0 && !anyOf(v.Amenities, filter.Amenities) {
			return false
		}
	case *models.Restaurant:
		if len(filter.Cuisine) > 0 && !anyOf(v.Cuisine, filter.Cuisine) {
			return false
		}
		if filter.PriceRange != "" && v.PriceRange != filter.PriceRange {
			return false
		}
	case *models.Transport:
		if filter.TransportType != "" && v.ServiceType != filter.TransportType {
			return false
		}
	}
	return true
}

func anyOf(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

func inArea(areas []models.Area, needle string, field func(models.Area) string) bool {
	for _, a := range areas {
		if strings.Contains(strings.ToLower(field(a)), strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

func (m *memoryListings) CountByStatus(_ context.Context, t models.BusinessType) (map[models.ListingStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.ListingStatus]int{}
	for _, stored := range m.docs[t] {
		counts[decode(t, stored.doc).Base().Status]++
	}
	return counts, nil
}

// recordingAudit collects audit events
type recordingAudit struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (r *recordingAudit) Record(_ context.Context, e AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAudit) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

// recordingNotifier collects activation notices
type recordingNotifier struct {
	activated []string
}

func (r *recordingNotifier) ListingActivated(_ context.Context, _ *models.Account, l models.BusinessListing) {
	r.activated = append(r.activated, l.Base().ID)
}

// recordingInvalidator collects invalidated listing ids
type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ models.BusinessType, id string) {
	r.ids = append(r.ids, id)
}

// memoryTokens is an in-memory RefreshTokenStore keyed by the raw token
type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: map[string]*models.RefreshToken{}}
}

func (m *memoryTokens) Store(_ context.Context, userID uuid.UUID, token, ip, ua string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = &models.RefreshToken{
		UserID:    userID,
		IPAddress: models.NewNullString(ip),
		UserAgent: models.NewNullString(ua),
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	return nil
}

func (m *memoryTokens) Get(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[token]
	if !ok {
		return nil, nil
	}
	cp := *stored
	return &cp, nil
}

func (m *memoryTokens) Revoke(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.tokens[token]; ok {
		stored.Revoked = true
	}
	return nil
}

func (m *memoryTokens) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stored := range m.tokens {
		if stored.UserID == userID {
			stored.Revoked = true
		}
	}
	return nil
}

// memoryLimiter blocks an email after max recorded failures
type memoryLimiter struct {
	mu       sync.Mutex
	max      int
	failures map[string]int
}

func newMemoryLimiter(max int) *memoryLimiter {
	return &memoryLimiter{max: max, failures: map[string]int{}}
}

func (l *memoryLimiter) Check(_ context.Context, email, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures[normalizeEmail(email)] >= l.max {
		return emailLimitError(time.Now().Add(time.Minute))
	}
	return nil
}

func (l *memoryLimiter) RecordFailure(_ context.Context, email, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[normalizeEmail(email)]++
	return nil
}

func (l *memoryLimiter) Reset(_ context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, normalizeEmail(email))
	return nil
}
