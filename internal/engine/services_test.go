package engine_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embedded "github.com/openfield/crewmarket/db"
	dbpkg "github.com/openfield/crewmarket/internal/db"
	"github.com/openfield/crewmarket/internal/engine"
	sqlite "github.com/openfield/crewmarket/internal/repository/sqlite"
	"github.com/openfield/crewmarket/pkg/models"
	"github.com/openfield/crewmarket/pkg/repository"
)

var engineDBSeq atomic.Int64

// eventRecorder captures bus events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []engine.Event
}

func (r *eventRecorder) record(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) ofType(t engine.EventType) []engine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []engine.Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	repo     *sqlite.SQLiteRepo
	jobs     *engine.Jobs
	requests *engine.Requests
	ratings  *engine.Ratings
	events   *eventRecorder
}

func setupEngine(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:enginedb%d?mode=memory&cache=shared", engineDBSeq.Add(1))
	d, err := dbpkg.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, dbpkg.Migrate(ctx, d, embedded.Migrations))

	repo := sqlite.New(d, nil)
	details, err := engine.NewDetailValidator(embedded.DetailSchemas, "schemas")
	require.NoError(t, err)

	bus := engine.NewBus(nil)
	rec := &eventRecorder{}
	bus.Subscribe(rec.record)

	return &testEnv{
		repo:     repo,
		jobs:     engine.NewJobs(repo, repo, details, bus, nil),
		requests: engine.NewRequests(repo, repo, bus, nil),
		ratings:  engine.NewRatings(repo, repo, repo, repo, nil),
		events:   rec,
	}
}

func (e *testEnv) account(t *testing.T, role models.Role, email string) int64 {
	t.Helper()
	id, err := e.repo.CreateAccount(context.Background(), &models.Account{
		Name: "acct " + email, Email: email, Role: role, PasswordHash: "h", Created: time.Now().Unix(),
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) worker(t *testing.T, email string, wt models.WorkType, ownsEquipment bool) int64 {
	t.Helper()
	id := e.account(t, models.RoleWorker, email)
	_, err := e.repo.CreateWorkerProfile(context.Background(), &models.WorkerProfile{
		OwnerID: id, WorkType: wt, OwnsEquipment: ownsEquipment, Available: true,
	})
	require.NoError(t, err)
	return id
}

func TestCreateJobRequestValidation(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	poster := env.account(t, models.RolePoster, "poster@example.com")

	base := engine.CreateJobInput{
		WorkType:    models.WorkTypeBackhoe,
		ServiceType: models.OperatorOnly,
		Location:    "quarry road",
		ScheduledAt: time.Now().Add(time.Hour).Unix(),
	}

	var verr *engine.ValidationError

	bad := base
	bad.WorkType = "trebuchet"
	_, err := env.jobs.CreateJobRequest(ctx, poster, bad)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "work_type", verr.Field)

	bad = base
	bad.ServiceType = "barter"
	_, err = env.jobs.CreateJobRequest(ctx, poster, bad)
	require.ErrorAs(t, err, &verr)

	bad = base
	bad.Location = ""
	_, err = env.jobs.CreateJobRequest(ctx, poster, bad)
	require.ErrorAs(t, err, &verr)

	bad = base
	bad.Detail = &models.JobDetail{Kind: models.DetailSandDelivery}
	_, err = env.jobs.CreateJobRequest(ctx, poster, bad)
	require.ErrorAs(t, err, &verr)

	// urgency defaults to medium, detail defaults to standard
	j, err := env.jobs.CreateJobRequest(ctx, poster, base)
	require.NoError(t, err)
	assert.Equal(t, models.UrgencyMedium, j.Urgency)
	assert.Equal(t, models.JobOpen, j.Status)
	assert.Equal(t, models.DetailStandard, j.Detail.Kind)

	got, err := env.jobs.GetJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, poster, got.PosterID)
}

func TestListEligible(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	poster := env.account(t, models.RolePoster, "poster@example.com")
	worker := env.worker(t, "worker@example.com", models.WorkTypeBackhoe, false)

	_, err := env.jobs.CreateJobRequest(ctx, poster, engine.CreateJobInput{
		WorkType: models.WorkTypeBackhoe, ServiceType: models.OperatorOnly,
		Location: "site a", ScheduledAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	_, err = env.jobs.CreateJobRequest(ctx, poster, engine.CreateJobInput{
		WorkType: models.WorkTypeCrane, ServiceType: models.OperatorOnly,
		Location: "site b", ScheduledAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	visible, err := env.jobs.ListEligible(ctx, worker, 50, 0)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, models.WorkTypeBackhoe, visible[0].WorkType)

	// an account without a capability profile has no eligible view
	_, err = env.jobs.ListEligible(ctx, poster, 50, 0)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCompleteJobEmitsOnce(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	poster := env.account(t, models.RolePoster, "poster@example.com")
	worker := env.worker(t, "worker@example.com", models.WorkTypeBackhoe, false)

	j, err := env.jobs.CreateJobRequest(ctx, poster, engine.CreateJobInput{
		WorkType: models.WorkTypeBackhoe, ServiceType: models.OperatorOnly,
		Location: "site", ScheduledAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = env.jobs.AcceptJob(ctx, j.ID, worker)
	require.NoError(t, err)

	done, err := env.jobs.CompleteJob(ctx, j.ID, poster)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, done.Status)

	// the repeat attempt loses at the storage layer and must not re-announce
	_, err = env.jobs.CompleteJob(ctx, j.ID, poster)
	assert.ErrorIs(t, err, repository.ErrInvalidStateTransition)

	evs := env.events.ofType(engine.EventJobCompleted)
	require.Len(t, evs, 1)
	assert.Equal(t, models.JobEngagementID(j.ID), evs[0].Engagement)
	assert.Equal(t, worker, evs[0].SubjectID)
	assert.Equal(t, poster, evs[0].PosterID)
}

func TestServiceRequestAndQuotes(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	poster := env.account(t, models.RolePoster, "poster@example.com")
	techA := env.account(t, models.RoleTechnician, "a@example.com")
	techB := env.account(t, models.RoleTechnician, "b@example.com")

	low, high := 100.0, 50.0
	_, err := env.requests.OpenServiceRequest(ctx, poster, engine.OpenServiceRequestInput{
		EquipmentType: "crane", MaintenanceType: "inspection", Location: "yard",
		BudgetMin: &low, BudgetMax: &high,
	})
	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "budget_min", verr.Field)

	r, err := env.requests.OpenServiceRequest(ctx, poster, engine.OpenServiceRequestInput{
		EquipmentType: "crane", MaintenanceType: "inspection", Location: "yard",
		Attachments: []string{"https://img.example.com/1.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestOpen, r.Status)

	_, err = env.requests.SubmitQuote(ctx, techA, r.ID, engine.SubmitQuoteInput{Price: 0})
	require.ErrorAs(t, err, &verr)

	qa, err := env.requests.SubmitQuote(ctx, techA, r.ID, engine.SubmitQuoteInput{Price: 300, Description: "full check"})
	require.NoError(t, err)
	qb, err := env.requests.SubmitQuote(ctx, techB, r.ID, engine.SubmitQuoteInput{Price: 250})
	require.NoError(t, err)

	// only the poster sees the bids
	_, err = env.requests.ListQuotes(ctx, r.ID, techA, false)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	quotes, err := env.requests.ListQuotes(ctx, r.ID, poster, true)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, qb.ID, quotes[0].ID)

	closed, err := env.requests.AcceptQuote(ctx, qb.ID, poster)
	require.NoError(t, err)
	assert.Equal(t, models.RequestClosed, closed.Status)

	_, err = env.requests.AcceptQuote(ctx, qa.ID, poster)
	assert.ErrorIs(t, err, repository.ErrAlreadyResolved)

	evs := env.events.ofType(engine.EventQuoteAccepted)
	require.Len(t, evs, 1)
	assert.Equal(t, models.ServiceEngagementID(r.ID), evs[0].Engagement)
	assert.Equal(t, techB, evs[0].SubjectID)
}

func TestSubmitRatingGating(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	poster := env.account(t, models.RolePoster, "poster@example.com")
	worker := env.worker(t, "worker@example.com", models.WorkTypeBackhoe, false)
	stranger := env.account(t, models.RolePoster, "stranger@example.com")

	j, err := env.jobs.CreateJobRequest(ctx, poster, engine.CreateJobInput{
		WorkType: models.WorkTypeBackhoe, ServiceType: models.OperatorOnly,
		Location: "site", ScheduledAt: time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	_, err = env.jobs.AcceptJob(ctx, j.ID, worker)
	require.NoError(t, err)

	key := models.JobEngagementID(j.ID)

	var verr *engine.ValidationError
	_, err = env.ratings.SubmitRating(ctx, poster, engine.SubmitRatingInput{EngagementID: key, SubjectID: worker, Score: 6})
	require.ErrorAs(t, err, &verr)
	_, err = env.ratings.SubmitRating(ctx, poster, engine.SubmitRatingInput{EngagementID: key, SubjectID: poster, Score: 4})
	require.ErrorAs(t, err, &verr)
	_, err = env.ratings.SubmitRating(ctx, poster, engine.SubmitRatingInput{EngagementID: "nonsense", SubjectID: worker, Score: 4})
	require.ErrorAs(t, err, &verr)

	// the engagement is not finished yet
	_, err = env.ratings.SubmitRating(ctx, poster, engine.SubmitRatingInput{EngagementID: key, SubjectID: worker, Score: 4})
	assert.ErrorIs(t, err, repository.ErrInvalidStateTransition)

	_, err = env.jobs.CompleteJob(ctx, j.ID, poster)
	require.NoError(t, err)

	// a third party cannot rate it
	_, err = env.ratings.SubmitRating(ctx, stranger, engine.SubmitRatingInput{EngagementID: key, SubjectID: worker, Score: 4})
	assert.ErrorIs(t, err, repository.ErrForbidden)
	_, err = env.ratings.SubmitRating(ctx, poster, engine.SubmitRatingInput{EngagementID: key, SubjectID: stranger, Score: 4})
	assert.ErrorIs(t, err, repository.ErrForbidden)

	// both parties rate each other, once each
	_, err = env.ratings.SubmitRating(ctx, poster, engine.SubmitRatingInput{EngagementID: key, SubjectID: worker, Score: 5, Review: "solid work"})
	require.NoError(t, err)
	_, err = env.ratings.SubmitRating(ctx, worker, engine.SubmitRatingInput{EngagementID: key, SubjectID: poster, Score: 4})
	require.NoError(t, err)
	_, err = env.ratings.SubmitRating(ctx, poster, engine.SubmitRatingInput{EngagementID: key, SubjectID: worker, Score: 1})
	assert.ErrorIs(t, err, repository.ErrDuplicateSubmission)

	p, err := env.repo.GetWorkerProfileByOwner(ctx, worker)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.RatingCount)
	assert.InDelta(t, 5.0, p.RatingMean, 0.001)

	list, err := env.ratings.ListBySubject(ctx, worker, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "solid work", list[0].Review)
}

func TestSubmitRatingServiceEngagement(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	poster := env.account(t, models.RolePoster, "poster@example.com")
	tech := env.account(t, models.RoleTechnician, "tech@example.com")

	r, err := env.requests.OpenServiceRequest(ctx, poster, engine.OpenServiceRequestInput{
		EquipmentType: "loader", MaintenanceType: "engine swap", Location: "depot",
	})
	require.NoError(t, err)
	q, err := env.requests.SubmitQuote(ctx, tech, r.ID, engine.SubmitQuoteInput{Price: 900})
	require.NoError(t, err)

	key := models.ServiceEngagementID(r.ID)

	_, err = env.ratings.SubmitRating(ctx, poster, engine.SubmitRatingInput{EngagementID: key, SubjectID: tech, Score: 5})
	assert.ErrorIs(t, err, repository.ErrInvalidStateTransition)

	_, err = env.requests.AcceptQuote(ctx, q.ID, poster)
	require.NoError(t, err)

	rt, err := env.ratings.SubmitRating(ctx, poster, engine.SubmitRatingInput{EngagementID: key, SubjectID: tech, Score: 5})
	require.NoError(t, err)
	assert.Equal(t, key, rt.EngagementID)

	// the accepted provider rates back
	_, err = env.ratings.SubmitRating(ctx, tech, engine.SubmitRatingInput{EngagementID: key, SubjectID: poster, Score: 4})
	require.NoError(t, err)
}
