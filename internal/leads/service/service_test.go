package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"gymflow_backend/internal/events"
	"gymflow_backend/internal/leads/repository"
	"gymflow_backend/platform/apperr"
	"gymflow_backend/platform/logger"
)

// fakeRepo is an in-memory Repository with enough behavior to exercise the
// service's persistence semantics.
type fakeRepo struct {
	mu           sync.Mutex
	leads        map[uuid.UUID]repository.Lead
	activities   []repository.LeadActivity
	interactions []repository.Interaction
	factors      map[uuid.UUID]repository.ScoringFactors
	history      []repository.ScoreHistoryEntry
	configJSON   []byte

	persistCalls int
	configReads  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:   make(map[uuid.UUID]repository.Lead),
		factors: make(map[uuid.UUID]repository.ScoringFactors),
	}
}

func (f *fakeRepo) GetLead(_ context.Context, orgID, leadID uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[leadID]
	if !ok || lead.OrganizationID != orgID {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeRepo) ListLeadsByScoreRange(_ context.Context, orgID uuid.UUID, min, max int) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Lead
	for _, lead := range f.leads {
		if lead.OrganizationID == orgID && lead.LeadScore >= min && lead.LeadScore <= max {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListLeadIDs(_ context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uuid.UUID
	for id, lead := range f.leads {
		if lead.OrganizationID == orgID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertActivity(_ context.Context, a repository.NewActivity) (repository.LeadActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value := 0.0
	if a.ActivityValue != nil {
		value = *a.ActivityValue
	}
	activity := repository.LeadActivity{
		ID:             uuid.New(),
		LeadID:         a.LeadID,
		OrganizationID: a.OrganizationID,
		ActivityType:   a.ActivityType,
		ActivityValue:  value,
		Metadata:       a.Metadata,
		CreatedAt:      time.Now(),
	}
	f.activities = append(f.activities, activity)
	return activity, nil
}

func (f *fakeRepo) InsertActivities(ctx context.Context, activities []repository.NewActivity) (int, error) {
	for _, a := range activities {
		if _, err := f.InsertActivity(ctx, a); err != nil {
			return 0, err
		}
	}
	return len(activities), nil
}

func (f *fakeRepo) ListLeadActivities(_ context.Context, orgID, leadID uuid.UUID) ([]repository.LeadActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.LeadActivity
	for _, a := range f.activities {
		if a.OrganizationID == orgID && a.LeadID == leadID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListLeadInteractions(_ context.Context, orgID, leadID uuid.UUID) ([]repository.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Interaction
	for _, in := range f.interactions {
		if in.OrganizationID == orgID && in.LeadID == leadID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetScoringFactors(_ context.Context, orgID, leadID uuid.UUID) (repository.ScoringFactors, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	factors, ok := f.factors[leadID]
	if !ok || factors.OrganizationID != orgID {
		return repository.ScoringFactors{}, apperr.NotFound("scoring factors not found")
	}
	return factors, nil
}

func (f *fakeRepo) PersistScore(_ context.Context, params repository.PersistScoreParams) (repository.PersistScoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persistCalls++

	lead, ok := f.leads[params.LeadID]
	if !ok || lead.OrganizationID != params.OrganizationID {
		return repository.PersistScoreResult{}, apperr.NotFound("lead not found")
	}

	previous := lead.LeadScore
	next := params.Factors.TotalScore
	f.factors[params.LeadID] = params.Factors

	result := repository.PersistScoreResult{PreviousScore: previous, NewScore: next, Changed: previous != next}
	if !result.Changed {
		return result, nil
	}

	lead.LeadScore = next
	f.leads[params.LeadID] = lead
	f.history = append(f.history, repository.ScoreHistoryEntry{
		ID:             uuid.New(),
		LeadID:         params.LeadID,
		OrganizationID: params.OrganizationID,
		PreviousScore:  previous,
		NewScore:       next,
		ScoreChange:    next - previous,
		TriggeredBy:    params.TriggeredBy,
		ChangeReason:   params.ChangeReason,
		CreatedAt:      time.Now(),
	})
	return result, nil
}

func (f *fakeRepo) ListStaleScoredLeads(_ context.Context, scoredBefore time.Time, limit int) ([]repository.LeadRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.LeadRef
	for id, factors := range f.factors {
		if factors.UpdatedAt.Before(scoredBefore) && len(out) < limit {
			out = append(out, repository.LeadRef{LeadID: id, OrganizationID: factors.OrganizationID})
		}
	}
	return out, nil
}

func (f *fakeRepo) GetScoringConfigJSON(_ context.Context, _ uuid.UUID) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configReads++
	if f.configJSON == nil {
		return nil, apperr.NotFound("scoring configuration not found")
	}
	return f.configJSON, nil
}

func (f *fakeRepo) UpsertScoringConfigJSON(_ context.Context, _ uuid.UUID, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configJSON = raw
	return nil
}

func (f *fakeRepo) AverageLeadScore(_ context.Context, orgID uuid.UUID) (float64, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum, count := 0, 0
	for _, lead := range f.leads {
		if lead.OrganizationID == orgID {
			sum += lead.LeadScore
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (f *fakeRepo) CountLeadsByBand(_ context.Context, orgID uuid.UUID) (repository.ScoreDistribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var dist repository.ScoreDistribution
	for _, lead := range f.leads {
		if lead.OrganizationID != orgID {
			continue
		}
		switch {
		case lead.LeadScore >= 80:
			dist.Hot++
		case lead.LeadScore >= 60:
			dist.Warm++
		case lead.LeadScore >= 40:
			dist.Lukewarm++
		default:
			dist.Cold++
		}
	}
	return dist, nil
}

func (f *fakeRepo) TopActivityTypes(_ context.Context, orgID uuid.UUID, since time.Time, limit int) ([]repository.ActivityTypeCount, error) {
	return nil, nil
}

func (f *fakeRepo) RecentScoreHistory(_ context.Context, orgID uuid.UUID, since time.Time, limit int) ([]repository.ScoreHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.ScoreHistoryEntry
	for _, e := range f.history {
		if e.OrganizationID == orgID {
			out = append(out, e)
		}
	}
	return out, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

// fakeBus captures published events synchronously.
type fakeBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *fakeBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *fakeBus) Subscribe(string, events.Handler) {}

func (b *fakeBus) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

func newTestService(repo *fakeRepo) (*Service, *fakeBus) {
	bus := &fakeBus{}
	svc := NewService(repo, logger.New("development"), bus, nil, 0)
	return svc, bus
}

// seedLead adds a fresh referral lead with full contact details, which the
// default weights score at 36.
func seedLead(repo *fakeRepo) (uuid.UUID, uuid.UUID) {
	orgID := uuid.New()
	leadID := uuid.New()
	repo.leads[leadID] = repository.Lead{
		ID:             leadID,
		OrganizationID: orgID,
		Name:           "Sam Carter",
		Email:          "sam@example.com",
		Phone:          "+447700900123",
		Source:         "referral",
		CreatedAt:      time.Now().UTC().Add(-2 * time.Hour),
	}
	return orgID, leadID
}

func TestUpdateLeadScoreNotFound(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, err := svc.UpdateLeadScore(context.Background(), uuid.New(), uuid.New(), repository.TriggeredByManual, nil)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestUpdateLeadScoreWritesHistoryOnChange(t *testing.T) {
	repo := newFakeRepo()
	svc, bus := newTestService(repo)
	orgID, leadID := seedLead(repo)

	update, err := svc.UpdateLeadScore(context.Background(), orgID, leadID, repository.TriggeredByManual, nil)
	if err != nil {
		t.Fatalf("UpdateLeadScore: %v", err)
	}

	if update.PreviousScore != 0 || update.NewScore != 36 || update.ScoreChange != 36 {
		t.Errorf("update = %+v, want 0 -> 36", update)
	}
	if !update.Changed {
		t.Error("expected Changed = true")
	}
	if len(repo.history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(repo.history))
	}
	if repo.history[0].ScoreChange != 36 || repo.history[0].TriggeredBy != repository.TriggeredByManual {
		t.Errorf("history = %+v", repo.history[0])
	}
	if repo.leads[leadID].LeadScore != 36 {
		t.Errorf("lead score = %d, want 36", repo.leads[leadID].LeadScore)
	}

	published := bus.published()
	if len(published) != 1 {
		t.Fatalf("published events = %d, want 1", len(published))
	}
	changed, ok := published[0].(events.LeadScoreChanged)
	if !ok {
		t.Fatalf("published event has type %T", published[0])
	}
	if changed.PreviousScore != 0 || changed.NewScore != 36 {
		t.Errorf("event = %+v, want 0 -> 36", changed)
	}
}

func TestUpdateLeadScoreUnchangedWritesNoHistory(t *testing.T) {
	repo := newFakeRepo()
	svc, bus := newTestService(repo)
	orgID, leadID := seedLead(repo)

	lead := repo.leads[leadID]
	lead.LeadScore = 36
	repo.leads[leadID] = lead

	update, err := svc.UpdateLeadScore(context.Background(), orgID, leadID, repository.TriggeredByManual, nil)
	if err != nil {
		t.Fatalf("UpdateLeadScore: %v", err)
	}

	if update.Changed {
		t.Error("expected Changed = false")
	}
	if len(repo.history) != 0 {
		t.Errorf("history entries = %d, want 0", len(repo.history))
	}
	if len(bus.published()) != 0 {
		t.Error("no event expected for an unchanged score")
	}
	// the snapshot still refreshes
	if _, ok := repo.factors[leadID]; !ok {
		t.Error("expected factor snapshot to be written")
	}
}

func TestRecordActivityDefaultsValueFromWeightTable(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	orgID, leadID := seedLead(repo)

	result, err := svc.RecordActivity(context.Background(), orgID, ActivityInput{
		LeadID:       leadID,
		ActivityType: "booking_attempt",
	})
	if err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}

	if result.Activity.ActivityValue != 10 {
		t.Errorf("activity value = %v, want default 10", result.Activity.ActivityValue)
	}
	if result.ScoreUpdate.PreviousScore != 0 || result.ScoreUpdate.NewScore != 46 {
		t.Errorf("score update = %+v, want 0 -> 46", result.ScoreUpdate)
	}
	if len(repo.history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(repo.history))
	}
	if repo.history[0].TriggeredBy != repository.TriggeredByActivity {
		t.Errorf("triggered_by = %q", repo.history[0].TriggeredBy)
	}
	if repo.history[0].ChangeReason == nil || *repo.history[0].ChangeReason != "New activity: booking_attempt" {
		t.Errorf("change reason = %v", repo.history[0].ChangeReason)
	}
}

func TestRecordActivityUnknownTypeGetsNeutralWeight(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	orgID, leadID := seedLead(repo)

	result, err := svc.RecordActivity(context.Background(), orgID, ActivityInput{
		LeadID:       leadID,
		ActivityType: "mystery_event",
	})
	if err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if result.Activity.ActivityValue != 1 {
		t.Errorf("activity value = %v, want fallback 1", result.Activity.ActivityValue)
	}
}

func TestRecordActivityExplicitValueWins(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	orgID, leadID := seedLead(repo)

	value := 7.5
	result, err := svc.RecordActivity(context.Background(), orgID, ActivityInput{
		LeadID:       leadID,
		ActivityType: "booking_attempt",
		Value:        &value,
	})
	if err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if result.Activity.ActivityValue != 7.5 {
		t.Errorf("activity value = %v, want explicit 7.5", result.Activity.ActivityValue)
	}
}

func TestRecordActivitiesRescoresEachLeadOnce(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	orgID, leadA := seedLead(repo)

	leadB := uuid.New()
	repo.leads[leadB] = repository.Lead{
		ID:             leadB,
		OrganizationID: orgID,
		Name:           "Alex Reed",
		Source:         "website",
		CreatedAt:      time.Now().UTC().Add(-2 * time.Hour),
	}

	result, err := svc.RecordActivities(context.Background(), orgID, []ActivityInput{
		{LeadID: leadA, ActivityType: "email_open"},
		{LeadID: leadA, ActivityType: "email_click"},
		{LeadID: leadB, ActivityType: "page_view"},
	})
	if err != nil {
		t.Fatalf("RecordActivities: %v", err)
	}

	if result.Recorded != 3 {
		t.Errorf("recorded = %d, want 3", result.Recorded)
	}
	if result.LeadsRescored != 2 {
		t.Errorf("leads rescored = %d, want 2", result.LeadsRescored)
	}
	if repo.persistCalls != 2 {
		t.Errorf("persist calls = %d, want one per distinct lead", repo.persistCalls)
	}
	for _, e := range repo.history {
		if e.TriggeredBy != repository.TriggeredByBatchActivity {
			t.Errorf("triggered_by = %q, want batch_activity", e.TriggeredBy)
		}
	}
}

func TestBulkUpdateScoresPartialFailure(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	orgID, leadID := seedLead(repo)
	missing := uuid.New()

	result, err := svc.BulkUpdateScores(context.Background(), orgID, []uuid.UUID{leadID, missing}, repository.TriggeredByManual)
	if err != nil {
		t.Fatalf("BulkUpdateScores: %v", err)
	}

	if result.Updated != 1 || result.Failed != 1 {
		t.Errorf("result = %+v, want 1 updated 1 failed", result)
	}
	if len(result.Succeeded) != 1 || result.Succeeded[0] != leadID {
		t.Errorf("succeeded = %v, want [%s]", result.Succeeded, leadID)
	}
	if len(result.Errors) != 1 || result.Errors[0].LeadID != missing {
		t.Errorf("errors = %+v", result.Errors)
	}
}

func TestBulkUpdateScoresRecordsTriggeredBy(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	orgID, leadID := seedLead(repo)

	result, err := svc.BulkUpdateScores(context.Background(), orgID, []uuid.UUID{leadID}, repository.TriggeredByAutomation)
	if err != nil {
		t.Fatalf("BulkUpdateScores: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("result = %+v, want 1 updated", result)
	}

	if len(repo.history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(repo.history))
	}
	if got := repo.history[0].TriggeredBy; got != repository.TriggeredByAutomation {
		t.Errorf("triggered_by = %q, want automation", got)
	}
}

func TestBulkUpdateScoresRejectsUnknownTriggeredBy(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	orgID, leadID := seedLead(repo)

	_, err := svc.BulkUpdateScores(context.Background(), orgID, []uuid.UUID{leadID}, "cron")
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
	if calls := repo.persistCalls; calls != 0 {
		t.Errorf("persistCalls = %d, want 0", calls)
	}
}

func TestLeadsByTemperatureRejectsUnknownBand(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, err := svc.LeadsByTemperature(context.Background(), uuid.New(), "tepid")
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}
