package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/labhubhq/labhub/internal/models"
	apperrors "github.com/labhubhq/labhub/pkg/errors"
	"github.com/labhubhq/labhub/pkg/logger"
	"github.com/labhubhq/labhub/pkg/metrics"
)

// Decision actions accepted by Decide.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

var (
	// ErrGroupNotFound indicates the requested group does not exist.
	ErrGroupNotFound = apperrors.New("GROUP_NOT_FOUND", "Group not found", http.StatusNotFound)
	// ErrAlreadyMember signals the requester already holds a membership in the group.
	ErrAlreadyMember = apperrors.New("ALREADY_MEMBER", "User is already a member of the group", http.StatusConflict)
	// ErrDuplicatePendingRequest signals an undecided request already exists for the pair.
	ErrDuplicatePendingRequest = apperrors.New("DUPLICATE_PENDING_REQUEST", "A pending join request already exists", http.StatusConflict)
	// ErrJoinRequestNotFound indicates no request with the identifier exists under the group.
	ErrJoinRequestNotFound = apperrors.New("JOIN_REQUEST_NOT_FOUND", "Join request not found", http.StatusNotFound)
	// ErrAlreadyDecided signals the request has left the pending state.
	ErrAlreadyDecided = apperrors.New("JOIN_REQUEST_ALREADY_DECIDED", "Join request has already been decided", http.StatusConflict)
	// ErrCannotRemoveCreator protects the group creator's permanent membership.
	ErrCannotRemoveCreator = apperrors.New("CANNOT_REMOVE_CREATOR", "The group creator cannot be removed", http.StatusForbidden)
	// ErrMembershipNotFound indicates the target holds no membership in the group.
	ErrMembershipNotFound = apperrors.New("MEMBERSHIP_NOT_FOUND", "User is not a member of the group", http.StatusNotFound)
	// ErrPartialApproval is returned when the status transition committed but the
	// membership insert failed. The request is approved on record and the
	// reconciliation job will create the missing membership.
	ErrPartialApproval = apperrors.New("JOIN_REQUEST_PARTIAL_APPROVAL", "Request approved but membership creation failed", http.StatusInternalServerError)
)

// MembershipOption customises MembershipService behaviour.
type MembershipOption func(*MembershipService)

// WithMembershipClock injects a custom clock primarily for testing.
func WithMembershipClock(clock func() time.Time) MembershipOption {
	return func(s *MembershipService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// MembershipService owns the group membership and join-request lifecycle: who
// may join a group, how pending requests are tracked, and how admin decisions
// transition request and membership state.
type MembershipService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMembershipService constructs a MembershipService instance.
func NewMembershipService(db *gorm.DB, opts ...MembershipOption) (*MembershipService, error) {
	if db == nil {
		return nil, errors.New("membership service: db is required")
	}

	service := &MembershipService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// IsMember reports whether the user holds any membership in the group.
func (s *MembershipService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	membership, err := s.getMembership(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	return membership != nil, nil
}

// IsAdmin reports whether the user holds an admin membership in the group.
func (s *MembershipService) IsAdmin(ctx context.Context, groupID, userID string) (bool, error) {
	membership, err := s.getMembership(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	return membership != nil && membership.Role == models.RoleAdmin, nil
}

// RequestJoin files a pending join request on behalf of the requester,
// snapshotting their display attributes at request time. It returns the
// created request together with the group's display name.
func (s *MembershipService) RequestJoin(ctx context.Context, groupID string, requester *models.User, message string) (*models.JoinRequest, string, error) {
	ctx = ensureContext(ctx)

	if requester == nil || trimmed(requester.ID) == "" {
		return nil, "", apperrors.NewBadRequest("requester is required")
	}

	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return nil, "", err
	}

	member, err := s.IsMember(ctx, group.ID, requester.ID)
	if err != nil {
		return nil, "", err
	}
	if member {
		return nil, "", ErrAlreadyMember
	}

	request := &models.JoinRequest{
		GroupID:     group.ID,
		UserID:      requester.ID,
		Username:    requester.Username,
		Email:       requester.Email,
		DisplayName: requester.DisplayName,
		Message:     trimmed(message),
		Status:      models.JoinRequestPending,
	}

	// Check and insert run in one transaction; the partial unique index on
	// pending requests backs this up where the store supports it.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		err := tx.Model(&models.JoinRequest{}).
			Where("group_id = ? AND user_id = ? AND status = ?", group.ID, requester.ID, models.JoinRequestPending).
			Count(&pending).Error
		if err != nil {
			return fmt.Errorf("membership service: check pending request: %w", err)
		}
		if pending > 0 {
			return ErrDuplicatePendingRequest
		}

		if err := tx.Create(request).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrDuplicatePendingRequest
			}
			return fmt.Errorf("membership service: create join request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return request, group.Name, nil
}

// Decide transitions a pending request to approved or rejected. Only group
// admins may decide. The status transition uses compare-and-set semantics so
// two interleaved decisions on the same request cannot both succeed: the
// loser of the race observes ErrAlreadyDecided.
func (s *MembershipService) Decide(ctx context.Context, groupID, requestID, actorID, action string) (*models.JoinRequest, error) {
	ctx = ensureContext(ctx)

	var status string
	switch action {
	case DecisionApprove:
		status = models.JoinRequestApproved
	case DecisionReject:
		status = models.JoinRequestRejected
	default:
		return nil, apperrors.NewBadRequest("action must be approve or reject")
	}

	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		metrics.JoinRequestDecisions.WithLabelValues(action, "forbidden").Inc()
		return nil, err
	}

	var request models.JoinRequest
	err := s.db.WithContext(ctx).
		First(&request, "id = ? AND group_id = ?", requestID, groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJoinRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("membership service: load join request: %w", err)
	}

	if request.Status != models.JoinRequestPending {
		return nil, ErrAlreadyDecided
	}

	now := s.now()
	res := s.db.WithContext(ctx).
		Model(&models.JoinRequest{}).
		Where("id = ? AND status = ?", request.ID, models.JoinRequestPending).
		Updates(map[string]any{
			"status":       status,
			"responded_at": now,
			"responded_by": actorID,
		})
	if res.Error != nil {
		metrics.JoinRequestDecisions.WithLabelValues(action, "error").Inc()
		return nil, fmt.Errorf("membership service: update request status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost the race against a concurrent decision.
		metrics.JoinRequestDecisions.WithLabelValues(action, "conflict").Inc()
		return nil, ErrAlreadyDecided
	}

	request.Status = status
	request.RespondedAt = &now
	request.RespondedBy = actorID

	if action == DecisionApprove {
		membership := models.Membership{
			GroupID: request.GroupID,
			UserID:  request.UserID,
			Role:    models.RoleMember,
		}
		if err := s.db.WithContext(ctx).Create(&membership).Error; err != nil {
			if !isUniqueConstraintError(err) {
				// The approval is committed; the membership is not. Surface the
				// gap explicitly so an operator or the reconciler can repair it.
				metrics.PartialApprovals.Inc()
				metrics.JoinRequestDecisions.WithLabelValues(action, "partial").Inc()
				logger.WithModule("membership").Error("approved request without membership",
					zap.String("request_id", request.ID),
					zap.String("group_id", request.GroupID),
					zap.String("user_id", request.UserID),
					zap.Error(err),
				)
				return nil, ErrPartialApproval.WithInternal(err)
			}
		}
	}

	metrics.JoinRequestDecisions.WithLabelValues(action, "success").Inc()
	return &request, nil
}

// ListPending returns the group's undecided requests in first-come order.
// Only group admins may review the queue.
func (s *MembershipService) ListPending(ctx context.Context, groupID, actorID string) ([]models.JoinRequest, error) {
	ctx = ensureContext(ctx)

	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	var requests []models.JoinRequest
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND status = ?", groupID, models.JoinRequestPending).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("membership service: list pending requests: %w", err)
	}

	return requests, nil
}

// RemoveMember deletes the target's membership. The group creator's
// membership is permanent and cannot be removed by anyone.
func (s *MembershipService) RemoveMember(ctx context.Context, groupID, actorID, targetID string) error {
	ctx = ensureContext(ctx)

	if err := s.requireAdmin(ctx, groupID, actorID); err != nil {
		return err
	}

	group, err := s.loadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if targetID == group.CreatorID {
		return ErrCannotRemoveCreator
	}

	res := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, targetID).
		Delete(&models.Membership{})
	if res.Error != nil {
		return fmt.Errorf("membership service: remove member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMembershipNotFound
	}

	return nil
}

// ListMembers returns the group's memberships with user details preloaded.
// Visible to any member of the group.
func (s *MembershipService) ListMembers(ctx context.Context, groupID, actorID string) ([]models.Membership, error) {
	ctx = ensureContext(ctx)

	member, err := s.IsMember(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperrors.ErrForbidden
	}

	var memberships []models.Membership
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("membership service: list members: %w", err)
	}

	return memberships, nil
}

func (s *MembershipService) requireAdmin(ctx context.Context, groupID, userID string) error {
	admin, err := s.IsAdmin(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !admin {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *MembershipService) getMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	ctx = ensureContext(ctx)

	if trimmed(groupID) == "" || trimmed(userID) == "" {
		return nil, nil
	}

	var membership models.Membership
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("membership service: load membership: %w", err)
	}

	return &membership, nil
}

func (s *MembershipService) loadGroup(ctx context.Context, groupID string) (*models.Group, error) {
	var group models.Group
	err := s.db.WithContext(ctx).First(&group, "id = ?", groupID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("membership service: load group: %w", err)
	}
	return &group, nil
}
