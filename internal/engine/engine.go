package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"domestique/internal/models"
)

// Engine owns the request/response lifecycle. Every operation takes
// the acting user explicitly and runs as a single transaction.
type Engine struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Engine {
	return &Engine{DB: db}
}

type CreateRequestInput struct {
	ServiceID   uint
	Description string
	Location    string
	Price       float64
	TaskDate    *time.Time
}

// CreateRequest posts a new PENDING request owned by the acting client.
func (e *Engine) CreateRequest(actor *models.User, in CreateRequestInput) (*models.Request, error) {
	if actor.Role != models.RoleClient {
		return nil, fmt.Errorf("%w: only clients may create requests", ErrUnauthorized)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if strings.TrimSpace(in.Location) == "" {
		return nil, fmt.Errorf("%w: location is required", ErrValidation)
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}

	var svc models.Service
	if err := e.DB.First(&svc, "id = ?", in.ServiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: service %d", ErrNotFound, in.ServiceID)
		}
		return nil, err
	}

	req := models.Request{
		ClientID:    actor.ID,
		ServiceID:   svc.ID,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Price:       in.Price,
		Status:      models.RequestStatusPending,
		TaskDate:    in.TaskDate,
	}
	if err := e.DB.Create(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// GetRequest loads a request for the actor and applies lazy expiry:
// a non-terminal request whose task date has passed is flipped to
// EXPIRED and the new status persisted before returning.
//
// Visible to the owning client, the accepted provider, any provider
// (they browse requests to respond) and admins.
func (e *Engine) GetRequest(actor *models.User, id uuid.UUID) (*models.Request, error) {
	var req models.Request
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Service").Preload("Responses").First(&req, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !e.canView(actor, &req) {
			return ErrUnauthorized
		}
		return e.refreshExpiry(tx, &req)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (e *Engine) canView(actor *models.User, req *models.Request) bool {
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleProvider {
		return true
	}
	return req.ClientID == actor.ID
}

// refreshExpiry persists EXPIRED on a request whose task date has
// passed. The update is conditional on the status the caller read so a
// concurrent transition wins cleanly; on conflict the row is reloaded.
func (e *Engine) refreshExpiry(tx *gorm.DB, req *models.Request) error {
	if req.TaskDate == nil || req.Status.Terminal() || !req.TaskDate.Before(time.Now()) {
		return nil
	}
	res := tx.Model(&models.Request{}).
		Where("id = ? AND status = ?", req.ID, req.Status).
		Update("status", models.RequestStatusExpired)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		req.Status = models.RequestStatusExpired
		return nil
	}
	return tx.First(req, "id = ?", req.ID).Error
}

// ListOpenRequests returns PENDING requests providers can respond to.
// Requests whose task date has already passed are filtered out even if
// their persisted status has not been refreshed yet.
func (e *Engine) ListOpenRequests(offset, limit int) ([]models.Request, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	open := e.DB.Model(&models.Request{}).
		Where("status = ?", models.RequestStatusPending).
		Where("task_date IS NULL OR task_date > ?", time.Now())

	var total int64
	if err := open.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reqs []models.Request
	err := open.Preload("Service").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&reqs).Error
	return reqs, total, err
}

type ClientDashboard struct {
	Requests        []models.Request `json:"requests"`
	UnreadResponses int64            `json:"unread_responses"`
}

// ClientDashboardFor lists the client's own non-expired requests plus
// the count of pending responses awaiting their decision.
func (e *Engine) ClientDashboardFor(actor *models.User) (*ClientDashboard, error) {
	if actor.Role != models.RoleClient {
		return nil, ErrUnauthorized
	}

	var out ClientDashboard
	err := e.DB.
		Where("client_id = ?", actor.ID).
		Where("status <> ?", models.RequestStatusExpired).
		Preload("Service").Preload("Responses").
		Order("created_at desc").
		Find(&out.Requests).Error
	if err != nil {
		return nil, err
	}

	err = e.DB.Model(&models.Response{}).
		Joins("JOIN requests ON requests.id = responses.request_id").
		Where("requests.client_id = ? AND requests.deleted_at IS NULL", actor.ID).
		Where("responses.status = ?", models.ResponseStatusPending).
		Count(&out.UnreadResponses).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type ProviderDashboard struct {
	Responses        []models.Response `json:"responses"`
	AcceptedRequests int64             `json:"accepted_requests"`
}

// ProviderDashboardFor lists the provider's responses on live requests
// plus the count of requests locked in to them.
func (e *Engine) ProviderDashboardFor(actor *models.User) (*ProviderDashboard, error) {
	if actor.Role != models.RoleProvider {
		return nil, ErrUnauthorized
	}

	var out ProviderDashboard
	err := e.DB.
		Joins("JOIN requests ON requests.id = responses.request_id").
		Where("responses.provider_id = ?", actor.ID).
		Where("requests.deleted_at IS NULL AND requests.status <> ?", models.RequestStatusExpired).
		Preload("Request").Preload("Request.Service").
		Order("responses.created_at desc").
		Find(&out.Responses).Error
	if err != nil {
		return nil, err
	}

	err = e.DB.Model(&models.Request{}).
		Where("accepted_provider_id = ?", actor.ID).
		Where("status <> ?", models.RequestStatusExpired).
		Count(&out.AcceptedRequests).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitResponse records a provider's offer on a PENDING request.
// The provider must be approved, and may respond once per request.
func (e *Engine) SubmitResponse(actor *models.User, requestID uuid.UUID, message string, price float64) (*models.Response, error) {
	if actor.Role != models.RoleProvider {
		return nil, fmt.Errorf("%w: only providers may respond", ErrUnauthorized)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: proposed price must be positive", ErrValidation)
	}

	var resp models.Response
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		var profile models.ProviderProfile
		if err := tx.First(&profile, "user_id = ?", actor.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotApproved
			}
			return err
		}
		if !profile.IsApproved {
			return ErrNotApproved
		}

		var req models.Request
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := e.refreshExpiry(tx, &req); err != nil {
			return err
		}
		if req.Status != models.RequestStatusPending {
			return fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
		}

		var dup int64
		if err := tx.Model(&models.Response{}).
			Where("request_id = ? AND provider_id = ?", req.ID, actor.ID).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return ErrDuplicateResponse
		}

		resp = models.Response{
			RequestID:     req.ID,
			ProviderID:    actor.ID,
			Message:       strings.TrimSpace(message),
			ProposedPrice: price,
			Status:        models.ResponseStatusPending,
		}
		return tx.Create(&resp).Error
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// AcceptResponse locks a request to one provider. Only the owning
// client may accept; the response must belong to the request and to
// the named provider. The request row is updated with a compare-and-set
// on status = PENDING so two concurrent accepts cannot both succeed.
//
// Competing pending responses deliberately stay PENDING; rejecting
// them remains an explicit client action.
func (e *Engine) AcceptResponse(actor *models.User, requestID, responseID, providerID uuid.UUID) error {
	return e.DB.Transaction(func(tx *gorm.DB) error {
		var req models.Request
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if req.ClientID != actor.ID {
			return fmt.Errorf("%w: not the owner of this request", ErrUnauthorized)
		}
		if err := e.refreshExpiry(tx, &req); err != nil {
			return err
		}
		switch req.Status {
		case models.RequestStatusPending:
		case models.RequestStatusAccepted:
			return ErrAlreadyAccepted
		default:
			return fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
		}

		var resp models.Response
		if err := tx.First(&resp, "id = ?", responseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if resp.RequestID != req.ID || resp.ProviderID != providerID {
			return fmt.Errorf("%w: response does not match request/provider", ErrNotFound)
		}
		if resp.Status != models.ResponseStatusPending {
			return fmt.Errorf("%w: response is %s", ErrInvalidState, resp.Status)
		}

		res := tx.Model(&models.Request{}).
			Where("id = ? AND status = ?", req.ID, models.RequestStatusPending).
			Updates(map[string]interface{}{
				"status":               models.RequestStatusAccepted,
				"accepted_provider_id": providerID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race to a concurrent accept.
			return ErrAlreadyAccepted
		}

		return tx.Model(&resp).Update("status", models.ResponseStatusAccepted).Error
	})
}

// RejectResponse marks one response REJECTED. Independent of the
// request's own status; requires ownership of the parent request.
func (e *Engine) RejectResponse(actor *models.User, responseID uuid.UUID) error {
	return e.DB.Transaction(func(tx *gorm.DB) error {
		var resp models.Response
		if err := tx.Preload("Request").First(&resp, "id = ?", responseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if resp.Request == nil {
			// Parent was soft-deleted; hide the response with it.
			return ErrNotFound
		}
		if resp.Request.ClientID != actor.ID {
			return fmt.Errorf("%w: not the owner of this request", ErrUnauthorized)
		}
		if resp.Status != models.ResponseStatusPending {
			return fmt.Errorf("%w: response is %s", ErrInvalidState, resp.Status)
		}
		return tx.Model(&resp).Update("status", models.ResponseStatusRejected).Error
	})
}

// CancelRequest: PENDING -> CANCELLED, by the owner or an admin.
func (e *Engine) CancelRequest(actor *models.User, requestID uuid.UUID) error {
	return e.transition(actor, requestID, models.RequestStatusPending, models.RequestStatusCancelled)
}

// CompleteRequest: ACCEPTED -> COMPLETED, by the owner or an admin.
func (e *Engine) CompleteRequest(actor *models.User, requestID uuid.UUID) error {
	return e.transition(actor, requestID, models.RequestStatusAccepted, models.RequestStatusCompleted)
}

func (e *Engine) transition(actor *models.User, requestID uuid.UUID, from, to models.RequestStatus) error {
	return e.DB.Transaction(func(tx *gorm.DB) error {
		var req models.Request
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if req.ClientID != actor.ID && actor.Role != models.RoleAdmin {
			return fmt.Errorf("%w: not the owner of this request", ErrUnauthorized)
		}
		if err := e.refreshExpiry(tx, &req); err != nil {
			return err
		}
		if req.Status != from {
			return fmt.Errorf("%w: request is %s, want %s", ErrInvalidState, req.Status, from)
		}

		res := tx.Model(&models.Request{}).
			Where("id = ? AND status = ?", req.ID, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request left %s concurrently", ErrInvalidState, from)
		}
		return nil
	})
}

// SoftDeleteRequest hides a request (and with it, its responses) from
// every listing. Owner or admin only.
func (e *Engine) SoftDeleteRequest(actor *models.User, requestID uuid.UUID) error {
	return e.DB.Transaction(func(tx *gorm.DB) error {
		var req models.Request
		if err := tx.First(&req, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if req.ClientID != actor.ID && actor.Role != models.RoleAdmin {
			return fmt.Errorf("%w: not the owner of this request", ErrUnauthorized)
		}
		return tx.Delete(&req).Error
	})
}

// ListAllRequests is the admin view over every live request.
func (e *Engine) ListAllRequests(actor *models.User, offset, limit int) ([]models.Request, int64, error) {
	if actor.Role != models.RoleAdmin {
		return nil, 0, ErrUnauthorized
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := e.DB.Model(&models.Request{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reqs []models.Request
	err := q.Preload("Service").Preload("Client").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&reqs).Error
	return reqs, total, err
}
