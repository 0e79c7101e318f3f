package service

import (
	"context"
	"sync"
	"time"

	"skeptical-attorney-backend/llm"
	"skeptical-attorney-backend/models"
	"skeptical-attorney-backend/repository"
	"skeptical-attorney-backend/rules"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var (
	ownerID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherID = uuid.MustParse("22222222-2222-2222-2222-222222222222")

	smithID   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	doeID     = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	riveraID  = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000003")
	foreignID = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")

	pacific = time.FixedZone("PST", -8*60*60)

	// 10:00 Pacific on Friday 2024-03-01
	fixedNow = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
)

func strPtr(s string) *string { return &s }

func testPrincipal() models.Principal {
	return models.Principal{
		UserID:      ownerID,
		Email:       "jane@example.com",
		Name:        "Jane Counsel",
		FirmName:    "Counsel LLP",
		BillingGoal: "160 hours per month",
	}
}

// fixtureCases returns three cases owned by ownerID and one owned by otherID
func fixtureCases() []*models.Case {
	return []*models.Case{
		{
			ID:         smithID,
			UserID:     ownerID,
			CaseName:   "Smith v. Jones",
			CaseNumber: "23STCV04567",
			CaseType:   strPtr("personal_injury"),
			Client:     strPtr("Alice Smith"),
			TrialDate:  strPtr("2024-06-03"),
			Court:      strPtr("Superior Court of California"),
			Deadlines: models.Deadlines{
				{ID: "d1", Date: "2024-03-16", Description: "Outside the window"},
				{ID: "d2", Date: "2024-03-01", Description: "Serve discovery responses"},
				{ID: "d3", Date: "2024-03-15", Description: "Opposition to motion due"},
				{ID: "d4", Date: "2024-02-29", Description: "Overdue meet and confer letter"},
				{ID: "d5", Date: "2024-03-03", Description: "Already done", Completed: true},
			},
			PlaintiffCount: 1,
			DefendantCount: 2,
		},
		{
			ID:         doeID,
			UserID:     ownerID,
			CaseName:   "Doe v. Acme Corp",
			CaseNumber: "24STCV00123",
			CaseType:   strPtr("products_liability"),
			Client:     strPtr("John Doe"),
			Deadlines: models.Deadlines{
				{ID: "d6", Date: "2024-03-15", Description: "Deposition of plant manager"},
			},
		},
		{
			ID:         riveraID,
			UserID:     ownerID,
			CaseName:   "Rivera v. City of Los Angeles",
			CaseNumber: "22STCV09999",
			Client:     strPtr("Maria Rivera"),
			TrialDate:  strPtr("2024-03-15"),
			Deadlines:  models.Deadlines{},
		},
		{
			ID:         foreignID,
			UserID:     otherID,
			CaseName:   "Smith v. Other Firm Client",
			CaseNumber: "24STCV77777",
			Deadlines: models.Deadlines{
				{ID: "x1", Date: "2024-03-02", Description: "Not yours"},
			},
		},
	}
}

type fakeCaseStore struct {
	mu        sync.Mutex
	order     []uuid.UUID
	cases     map[uuid.UUID]*models.Case
	appendErr error
	listErr   error
	appends   int
	lists     int
}

func newFakeCaseStore(cases ...*models.Case) *fakeCaseStore {
	f := &fakeCaseStore{cases: make(map[uuid.UUID]*models.Case)}
	for _, c := range cases {
		f.order = append(f.order, c.ID)
		f.cases[c.ID] = c
	}
	return f
}

func cloneCase(c *models.Case) *models.Case {
	cp := *c
	cp.Deadlines = append(models.Deadlines{}, c.Deadlines...)
	return &cp
}

func (f *fakeCaseStore) GetForOwner(_ context.Context, owner, id uuid.UUID) (*models.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[id]
	if !ok || c.UserID != owner {
		return nil, repository.ErrNotFound
	}
	return cloneCase(c), nil
}

func (f *fakeCaseStore) ListByOwner(_ context.Context, owner uuid.UUID) ([]*models.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Case
	for _, id := range f.order {
		if c := f.cases[id]; c.UserID == owner {
			out = append(out, cloneCase(c))
		}
	}
	return out, nil
}

func (f *fakeCaseStore) AppendDeadline(_ context.Context, owner, id uuid.UUID, d models.Deadline) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	if f.appendErr != nil {
		return f.appendErr
	}
	c, ok := f.cases[id]
	if !ok || c.UserID != owner {
		return repository.ErrNotFound
	}
	c.Deadlines = append(c.Deadlines, d)
	return nil
}

func (f *fakeCaseStore) deadlines(id uuid.UUID) models.Deadlines {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(models.Deadlines{}, f.cases[id].Deadlines...)
}

// panickingCaseStore blows up on writes
type panickingCaseStore struct {
	*fakeCaseStore
}

func (panickingCaseStore) AppendDeadline(context.Context, uuid.UUID, uuid.UUID, models.Deadline) error {
	panic("storage exploded")
}

type fakeBillingStore struct {
	mu        sync.Mutex
	entries   []*models.BillingEntry
	createErr error
}

func (f *fakeBillingStore) Create(_ context.Context, e *models.BillingEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	cp := *e
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeBillingStore) ListByOwner(_ context.Context, owner uuid.UUID, from, to string) ([]*models.BillingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.BillingEntry
	for _, e := range f.entries {
		if e.UserID == owner && e.BillingDate >= from && e.BillingDate <= to {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBillingStore) all() []*models.BillingEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.BillingEntry{}, f.entries...)
}

// MockModel implements llm.Client
type MockModel struct {
	mock.Mock
}

func (m *MockModel) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*llm.Response)
	return resp, args.Error(1)
}

func (m *MockModel) Provider() string {
	return "mock"
}

func fixedClock() time.Time { return fixedNow }

func newTestBuilder(store CaseStore) *ContextBuilder {
	return NewContextBuilder(store, pacific, fixedClock)
}

func newTestDispatcher(cases CaseStore, billing BillingStore) *ToolDispatcher {
	n := 0
	return NewToolDispatcher(cases, billing, rules.NewCalculator(rules.California()),
		WithDeadlineIDs(func() string {
			n++
			return "new-" + string(rune('0'+n))
		}),
	)
}

// caseContext builds a case-mode context for id the way a request would
func caseContext(store CaseStore, id uuid.UUID) *models.AssistantContext {
	ac, err := newTestBuilder(store).Build(context.Background(), testPrincipal(), models.ModeCase, id.String())
	if err != nil {
		panic(err)
	}
	return ac
}

func dashboardContext(store CaseStore) *models.AssistantContext {
	ac, err := newTestBuilder(store).Build(context.Background(), testPrincipal(), models.ModeDashboard, "")
	if err != nil {
		panic(err)
	}
	return ac
}
