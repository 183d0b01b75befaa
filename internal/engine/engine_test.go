package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"domestique/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func seedClient(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u := models.User{
		FirstName:    "Cleo",
		LastName:     "Martin",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleClient,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func seedProvider(t *testing.T, db *gorm.DB, approved bool) *models.User {
	t.Helper()
	u := models.User{
		FirstName:    "Pat",
		LastName:     "Miller",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleProvider,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, db.Create(&models.ProviderProfile{UserID: u.ID, IsApproved: approved}).Error)
	return &u
}

func seedService(t *testing.T, db *gorm.DB) *models.Service {
	t.Helper()
	svc := models.Service{
		Category: "home",
		Name:     datatypes.JSONMap{"en": "Plumbing"},
	}
	require.NoError(t, db.Create(&svc).Error)
	return &svc
}

func seedRequest(t *testing.T, eng *Engine, client *models.User, svc *models.Service, taskDate *time.Time) *models.Request {
	t.Helper()
	req, err := eng.CreateRequest(client, CreateRequestInput{
		ServiceID:   svc.ID,
		Description: "fix the kitchen sink",
		Location:    "12 Oak St",
		Price:       50.00,
		TaskDate:    taskDate,
	})
	require.NoError(t, err)
	return req
}

func TestCreateRequest_StartsPending(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)

	req := seedRequest(t, eng, client, svc, nil)

	require.Equal(t, models.RequestStatusPending, req.Status)
	require.Equal(t, client.ID, req.ClientID)
	require.Nil(t, req.AcceptedProviderID)
}

func TestCreateRequest_Validation(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	provider := seedProvider(t, db, true)
	svc := seedService(t, db)

	_, err := eng.CreateRequest(provider, CreateRequestInput{
		ServiceID: svc.ID, Description: "d", Location: "l", Price: 10,
	})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = eng.CreateRequest(client, CreateRequestInput{
		ServiceID: svc.ID, Description: "", Location: "l", Price: 10,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = eng.CreateRequest(client, CreateRequestInput{
		ServiceID: svc.ID, Description: "d", Location: "l", Price: 0,
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = eng.CreateRequest(client, CreateRequestInput{
		ServiceID: 9999, Description: "d", Location: "l", Price: 10,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitResponse_TwoProvidersBothPending(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)
	p1 := seedProvider(t, db, true)
	p2 := seedProvider(t, db, true)

	r1, err := eng.SubmitResponse(p1, req.ID, "can do tomorrow", 45.00)
	require.NoError(t, err)
	require.Equal(t, models.ResponseStatusPending, r1.Status)

	r2, err := eng.SubmitResponse(p2, req.ID, "cheaper offer", 40.00)
	require.NoError(t, err)
	require.Equal(t, models.ResponseStatusPending, r2.Status)
}

func TestSubmitResponse_Gates(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)

	unapproved := seedProvider(t, db, false)
	_, err := eng.SubmitResponse(unapproved, req.ID, "pick me", 30)
	require.ErrorIs(t, err, ErrNotApproved)

	_, err = eng.SubmitResponse(client, req.ID, "i am not a provider", 30)
	require.ErrorIs(t, err, ErrUnauthorized)

	p := seedProvider(t, db, true)
	_, err = eng.SubmitResponse(p, req.ID, "", 30)
	require.ErrorIs(t, err, ErrValidation)

	_, err = eng.SubmitResponse(p, uuid.New(), "ghost request", 30)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitResponse_OncePerProvider(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)
	p := seedProvider(t, db, true)

	_, err := eng.SubmitResponse(p, req.ID, "first", 45)
	require.NoError(t, err)

	_, err = eng.SubmitResponse(p, req.ID, "second", 40)
	require.ErrorIs(t, err, ErrDuplicateResponse)
}

func TestSubmitResponse_NonPendingRequest(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)
	p := seedProvider(t, db, true)

	require.NoError(t, eng.CancelRequest(client, req.ID))

	_, err := eng.SubmitResponse(p, req.ID, "too late", 30)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitResponse_SoftDeletedRequestHidden(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)
	p := seedProvider(t, db, true)

	require.NoError(t, eng.SoftDeleteRequest(client, req.ID))

	_, err := eng.SubmitResponse(p, req.ID, "still there?", 30)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptResponse_LocksRequestToProvider(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)
	p1 := seedProvider(t, db, true)
	p2 := seedProvider(t, db, true)

	r1, err := eng.SubmitResponse(p1, req.ID, "offer one", 45.00)
	require.NoError(t, err)
	r2, err := eng.SubmitResponse(p2, req.ID, "offer two", 40.00)
	require.NoError(t, err)

	require.NoError(t, eng.AcceptResponse(client, req.ID, r1.ID, p1.ID))

	var gotReq models.Request
	require.NoError(t, db.First(&gotReq, "id = ?", req.ID).Error)
	require.Equal(t, models.RequestStatusAccepted, gotReq.Status)
	require.NotNil(t, gotReq.AcceptedProviderID)
	require.Equal(t, p1.ID, *gotReq.AcceptedProviderID)

	var gotR1, gotR2 models.Response
	require.NoError(t, db.First(&gotR1, "id = ?", r1.ID).Error)
	require.NoError(t, db.First(&gotR2, "id = ?", r2.ID).Error)
	require.Equal(t, models.ResponseStatusAccepted, gotR1.Status)
	// Competing responses are not auto-rejected.
	require.Equal(t, models.ResponseStatusPending, gotR2.Status)
}

func TestAcceptResponse_SecondAcceptFails(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)
	p1 := seedProvider(t, db, true)
	p2 := seedProvider(t, db, true)

	r1, err := eng.SubmitResponse(p1, req.ID, "offer one", 45.00)
	require.NoError(t, err)
	r2, err := eng.SubmitResponse(p2, req.ID, "offer two", 40.00)
	require.NoError(t, err)

	require.NoError(t, eng.AcceptResponse(client, req.ID, r1.ID, p1.ID))

	err = eng.AcceptResponse(client, req.ID, r2.ID, p2.ID)
	require.ErrorIs(t, err, ErrAlreadyAccepted)

	var gotReq models.Request
	require.NoError(t, db.First(&gotReq, "id = ?", req.ID).Error)
	require.Equal(t, models.RequestStatusAccepted, gotReq.Status)
	require.Equal(t, p1.ID, *gotReq.AcceptedProviderID)

	var gotR1, gotR2 models.Response
	require.NoError(t, db.First(&gotR1, "id = ?", r1.ID).Error)
	require.NoError(t, db.First(&gotR2, "id = ?", r2.ID).Error)
	require.Equal(t, models.ResponseStatusAccepted, gotR1.Status)
	require.Equal(t, models.ResponseStatusPending, gotR2.Status)
}

func TestAcceptResponse_OwnerOnly(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	other := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)
	p := seedProvider(t, db, true)

	r, err := eng.SubmitResponse(p, req.ID, "offer", 45)
	require.NoError(t, err)

	err = eng.AcceptResponse(other, req.ID, r.ID, p.ID)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAcceptResponse_Mismatches(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	reqA := seedRequest(t, eng, client, svc, nil)
	reqB := seedRequest(t, eng, client, svc, nil)
	p1 := seedProvider(t, db, true)
	p2 := seedProvider(t, db, true)

	rB, err := eng.SubmitResponse(p1, reqB.ID, "offer on B", 45)
	require.NoError(t, err)

	// Response belongs to another request.
	err = eng.AcceptResponse(client, reqA.ID, rB.ID, p1.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Provider does not match the response.
	err = eng.AcceptResponse(client, reqB.ID, rB.ID, p2.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Response id does not exist at all.
	err = eng.AcceptResponse(client, reqB.ID, uuid.New(), p1.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLazyExpiry_PersistedOnFirstRead(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)

	yesterday := time.Now().Add(-24 * time.Hour)
	req := seedRequest(t, eng, client, svc, &yesterday)

	got, err := eng.GetRequest(client, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusExpired, got.Status)

	// Persisted, not just computed.
	var stored models.Request
	require.NoError(t, db.First(&stored, "id = ?", req.ID).Error)
	require.Equal(t, models.RequestStatusExpired, stored.Status)

	again, err := eng.GetRequest(client, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStatusExpired, again.Status)
}

func TestLazyExpiry_BlocksAcceptAndResponses(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	p := seedProvider(t, db, true)

	future := time.Now().Add(time.Hour)
	req := seedRequest(t, eng, client, svc, &future)
	r, err := eng.SubmitResponse(p, req.ID, "offer", 45)
	require.NoError(t, err)

	// Task date passes before the client gets around to accepting.
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.Request{}).Where("id = ?", req.ID).Update("task_date", past).Error)

	err = eng.AcceptResponse(client, req.ID, r.ID, p.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	p2 := seedProvider(t, db, true)
	_, err = eng.SubmitResponse(p2, req.ID, "late offer", 40)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCancelRequest_FromPendingOnly(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)

	require.NoError(t, eng.CancelRequest(client, req.ID))

	var got models.Request
	require.NoError(t, db.First(&got, "id = ?", req.ID).Error)
	require.Equal(t, models.RequestStatusCancelled, got.Status)

	err := eng.CancelRequest(client, req.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteRequest_FromAcceptedOnly(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)
	p := seedProvider(t, db, true)

	err := eng.CompleteRequest(client, req.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	r, err := eng.SubmitResponse(p, req.ID, "offer", 45)
	require.NoError(t, err)
	require.NoError(t, eng.AcceptResponse(client, req.ID, r.ID, p.ID))

	require.NoError(t, eng.CompleteRequest(client, req.ID))

	var got models.Request
	require.NoError(t, db.First(&got, "id = ?", req.ID).Error)
	require.Equal(t, models.RequestStatusCompleted, got.Status)
}

func TestRejectResponse(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	other := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)
	p := seedProvider(t, db, true)

	r, err := eng.SubmitResponse(p, req.ID, "offer", 45)
	require.NoError(t, err)

	err = eng.RejectResponse(other, r.ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, eng.RejectResponse(client, r.ID))

	var gotResp models.Response
	require.NoError(t, db.First(&gotResp, "id = ?", r.ID).Error)
	require.Equal(t, models.ResponseStatusRejected, gotResp.Status)

	// The request itself stays PENDING.
	var gotReq models.Request
	require.NoError(t, db.First(&gotReq, "id = ?", req.ID).Error)
	require.Equal(t, models.RequestStatusPending, gotReq.Status)

	err = eng.RejectResponse(client, r.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestSoftDeleteRequest_HiddenEverywhere(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	req := seedRequest(t, eng, client, svc, nil)

	require.NoError(t, eng.SoftDeleteRequest(client, req.ID))

	_, err := eng.GetRequest(client, req.ID)
	require.ErrorIs(t, err, ErrNotFound)

	err = eng.CancelRequest(client, req.ID)
	require.ErrorIs(t, err, ErrNotFound)

	err = eng.SoftDeleteRequest(client, req.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// Row still exists physically.
	var n int64
	require.NoError(t, db.Unscoped().Model(&models.Request{}).Where("id = ?", req.ID).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestListOpenRequests_FiltersStatusAndDate(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)

	open := seedRequest(t, eng, client, svc, nil)
	cancelled := seedRequest(t, eng, client, svc, nil)
	require.NoError(t, eng.CancelRequest(client, cancelled.ID))
	yesterday := time.Now().Add(-24 * time.Hour)
	seedRequest(t, eng, client, svc, &yesterday)

	reqs, total, err := eng.ListOpenRequests(0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, reqs, 1)
	require.Equal(t, open.ID, reqs[0].ID)
}

func TestDashboards(t *testing.T) {
	db := newTestDB(t)
	eng := New(db)
	client := seedClient(t, db)
	svc := seedService(t, db)
	p := seedProvider(t, db, true)

	req := seedRequest(t, eng, client, svc, nil)
	r, err := eng.SubmitResponse(p, req.ID, "offer", 45)
	require.NoError(t, err)

	cdash, err := eng.ClientDashboardFor(client)
	require.NoError(t, err)
	require.Len(t, cdash.Requests, 1)
	require.EqualValues(t, 1, cdash.UnreadResponses)

	pdash, err := eng.ProviderDashboardFor(p)
	require.NoError(t, err)
	require.Len(t, pdash.Responses, 1)
	require.EqualValues(t, 0, pdash.AcceptedRequests)

	require.NoError(t, eng.AcceptResponse(client, req.ID, r.ID, p.ID))

	cdash, err = eng.ClientDashboardFor(client)
	require.NoError(t, err)
	require.EqualValues(t, 0, cdash.UnreadResponses)

	pdash, err = eng.ProviderDashboardFor(p)
	require.NoError(t, err)
	require.EqualValues(t, 1, pdash.AcceptedRequests)

	_, err = eng.ClientDashboardFor(p)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = eng.ProviderDashboardFor(client)
	require.ErrorIs(t, err, ErrUnauthorized)
}
