package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/labhubhq/labhub/internal/models"
	apperrors "github.com/labhubhq/labhub/pkg/errors"
)

// CreateGroupInput captures new group metadata.
type CreateGroupInput struct {
	Name        string
	Description string
}

// UpdateGroupInput describes mutable group fields.
type UpdateGroupInput struct {
	Name        *string
	Description *string
}

// GroupDetail is the role-shaped detail view of a group. Members see the
// roster; admins additionally see the pending join-request queue.
type GroupDetail struct {
	Group           models.Group         `json:"group"`
	Role            string               `json:"role,omitempty"`
	Members         []models.Membership  `json:"members,omitempty"`
	PendingRequests []models.JoinRequest `json:"pending_requests,omitempty"`
}

// GroupService handles group lifecycle. Membership and join-request rules
// live in MembershipService.
type GroupService struct {
	db      *gorm.DB
	members *MembershipService
}

// NewGroupService constructs a GroupService instance.
func NewGroupService(db *gorm.DB, members *MembershipService) (*GroupService, error) {
	if db == nil {
		return nil, errors.New("group service: db is required")
	}
	if members == nil {
		return nil, errors.New("group service: membership service is required")
	}
	return &GroupService{db: db, members: members}, nil
}

// Create registers a new group and atomically grants the creator an admin
// membership, so a group can never exist without its implicit admin.
func (s *GroupService) Create(ctx context.Context, creatorID string, input CreateGroupInput) (*models.Group, error) {
	ctx = ensureContext(ctx)

	name := trimmed(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("group name is required")
	}
	if trimmed(creatorID) == "" {
		return nil, apperrors.NewBadRequest("creator id is required")
	}

	group := &models.Group{
		Name:        name,
		Description: trimmed(input.Description),
		CreatorID:   creatorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return fmt.Errorf("group service: create group: %w", err)
		}

		membership := models.Membership{
			GroupID: group.ID,
			UserID:  creatorID,
			Role:    models.RoleAdmin,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("group service: create admin membership: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// GetByID loads the detail view for a group, shaped by the requester's role.
// Non-members receive only the basic group record they need to request a join.
func (s *GroupService) GetByID(ctx context.Context, id, requesterID string) (*GroupDetail, error) {
	ctx = ensureContext(ctx)

	var group models.Group
	err := s.db.WithContext(ctx).First(&group, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("group service: get group: %w", err)
	}

	detail := &GroupDetail{Group: group}

	member, err := s.members.IsMember(ctx, group.ID, requesterID)
	if err != nil {
		return nil, err
	}
	if !member {
		return detail, nil
	}

	memberships, err := s.members.ListMembers(ctx, group.ID, requesterID)
	if err != nil {
		return nil, err
	}
	detail.Members = memberships
	detail.Role = models.RoleMember

	admin, err := s.members.IsAdmin(ctx, group.ID, requesterID)
	if err != nil {
		return nil, err
	}
	if admin {
		detail.Role = models.RoleAdmin
		pending, err := s.members.ListPending(ctx, group.ID, requesterID)
		if err != nil {
			return nil, err
		}
		detail.PendingRequests = pending
	}

	return detail, nil
}

// ListMine returns the groups the user belongs to, oldest first.
func (s *GroupService) ListMine(ctx context.Context, userID string) ([]models.Group, error) {
	ctx = ensureContext(ctx)

	var groups []models.Group
	err := s.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.group_id = groups.id").
		Where("memberships.user_id = ?", userID).
		Order("groups.created_at ASC").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("group service: list groups: %w", err)
	}

	return groups, nil
}

// Update modifies group metadata. Admin only.
func (s *GroupService) Update(ctx context.Context, id, requesterID string, input UpdateGroupInput) (*models.Group, error) {
	ctx = ensureContext(ctx)

	group := &models.Group{}
	err := s.db.WithContext(ctx).First(group, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("group service: load group: %w", err)
	}

	if err := s.members.requireAdmin(ctx, id, requesterID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := trimmed(*input.Name); name != "" && name != group.Name {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = trimmed(*input.Description)
	}

	if len(updates) == 0 {
		return group, nil
	}

	if err := s.db.WithContext(ctx).Model(group).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("group service: update group: %w", err)
	}

	if err := s.db.WithContext(ctx).First(group, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("group service: reload group: %w", err)
	}

	return group, nil
}

// Delete removes a group and everything referencing it in one transaction:
// memberships, join requests (including undecided ones), projects with their
// checklist items and assignments. Only the creator may delete a group.
func (s *GroupService) Delete(ctx context.Context, id, actorID string) error {
	ctx = ensureContext(ctx)

	var group models.Group
	err := s.db.WithContext(ctx).First(&group, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrGroupNotFound
	}
	if err != nil {
		return fmt.Errorf("group service: load group: %w", err)
	}

	if group.CreatorID != actorID {
		return apperrors.ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectIDs := tx.Model(&models.Project{}).Select("id").Where("group_id = ?", id)

		if err := tx.Where("project_id IN (?)", projectIDs).Delete(&models.ProjectAssignment{}).Error; err != nil {
			return fmt.Errorf("group service: delete assignments: %w", err)
		}
		if err := tx.Where("project_id IN (?)", projectIDs).Delete(&models.ChecklistItem{}).Error; err != nil {
			return fmt.Errorf("group service: delete checklist items: %w", err)
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return fmt.Errorf("group service: delete projects: %w", err)
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.JoinRequest{}).Error; err != nil {
			return fmt.Errorf("group service: delete join requests: %w", err)
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return fmt.Errorf("group service: delete memberships: %w", err)
		}
		if err := tx.Delete(&group).Error; err != nil {
			return fmt.Errorf("group service: delete group: %w", err)
		}

		return nil
	})
}
