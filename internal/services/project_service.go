package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/labhubhq/labhub/internal/models"
	apperrors "github.com/labhubhq/labhub/pkg/errors"
)

var (
	// ErrProjectNotFound indicates the requested project does not exist.
	ErrProjectNotFound = apperrors.New("PROJECT_NOT_FOUND", "Project not found", http.StatusNotFound)
	// ErrChecklistItemNotFound indicates the checklist item does not exist under the project.
	ErrChecklistItemNotFound = apperrors.New("CHECKLIST_ITEM_NOT_FOUND", "Checklist item not found", http.StatusNotFound)
	// ErrAssigneeNotMember signals the assignment target is not a member of the owning group.
	ErrAssigneeNotMember = apperrors.New("ASSIGNEE_NOT_MEMBER", "Assignee must be a member of the group", http.StatusBadRequest)
	// ErrAlreadyAssigned signals the user is already assigned to the project.
	ErrAlreadyAssigned = apperrors.New("ALREADY_ASSIGNED", "User is already assigned to the project", http.StatusConflict)
	// ErrAssignmentNotFound indicates the user is not assigned to the project.
	ErrAssignmentNotFound = apperrors.New("ASSIGNMENT_NOT_FOUND", "User is not assigned to the project", http.StatusNotFound)
)

// CreateProjectInput captures new project metadata.
type CreateProjectInput struct {
	Name        string
	Description string
}

// UpdateProjectInput describes mutable project fields.
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// ChecklistItemInput describes mutable checklist item fields.
type ChecklistItemInput struct {
	Title    *string
	Done     *bool
	Position *int
}

// ProjectService handles project and checklist tracking within groups.
type ProjectService struct {
	db      *gorm.DB
	members *MembershipService
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(db *gorm.DB, members *MembershipService) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	if members == nil {
		return nil, errors.New("project service: membership service is required")
	}
	return &ProjectService{db: db, members: members}, nil
}

// Create registers a project inside a group. Any member may create projects.
func (s *ProjectService) Create(ctx context.Context, groupID, creatorID string, input CreateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	name := trimmed(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("project name is required")
	}

	if err := s.requireMember(ctx, groupID, creatorID); err != nil {
		return nil, err
	}

	project := &models.Project{
		GroupID:     groupID,
		Name:        name,
		Description: trimmed(input.Description),
		CreatorID:   creatorID,
	}

	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("project service: create project: %w", err)
	}

	return project, nil
}

// ListByGroup returns the group's projects, oldest first. Members only.
func (s *ProjectService) ListByGroup(ctx context.Context, groupID, requesterID string) ([]models.Project, error) {
	ctx = ensureContext(ctx)

	if err := s.requireMember(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("project service: list projects: %w", err)
	}

	return projects, nil
}

// Get loads a project with checklist items and assignments. Members of the
// owning group only.
func (s *ProjectService) Get(ctx context.Context, projectID, requesterID string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("ChecklistItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Assignments.User").
		First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: get project: %w", err)
	}

	if err := s.requireMember(ctx, project.GroupID, requesterID); err != nil {
		return nil, err
	}

	return &project, nil
}

// Update modifies project metadata. Members of the owning group only.
func (s *ProjectService) Update(ctx context.Context, projectID, requesterID string, input UpdateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, project.GroupID, requesterID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := trimmed(*input.Name); name != "" {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = trimmed(*input.Description)
	}

	if len(updates) == 0 {
		return project, nil
	}

	if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("project service: update project: %w", err)
	}

	return project, nil
}

// Delete removes a project with its checklist items and assignments.
// Allowed for group admins and the project's creator.
func (s *ProjectService) Delete(ctx context.Context, projectID, requesterID string) error {
	ctx = ensureContext(ctx)

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}

	if project.CreatorID != requesterID {
		admin, err := s.members.IsAdmin(ctx, project.GroupID, requesterID)
		if err != nil {
			return err
		}
		if !admin {
			return apperrors.ErrForbidden
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectAssignment{}).Error; err != nil {
			return fmt.Errorf("project service: delete assignments: %w", err)
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ChecklistItem{}).Error; err != nil {
			return fmt.Errorf("project service: delete checklist items: %w", err)
		}
		if err := tx.Delete(project).Error; err != nil {
			return fmt.Errorf("project service: delete project: %w", err)
		}
		return nil
	})
}

// Assign links a group member to the project.
func (s *ProjectService) Assign(ctx context.Context, projectID, requesterID, targetID string) error {
	ctx = ensureContext(ctx)

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, project.GroupID, requesterID); err != nil {
		return err
	}

	member, err := s.members.IsMember(ctx, project.GroupID, targetID)
	if err != nil {
		return err
	}
	if !member {
		return ErrAssigneeNotMember
	}

	assignment := models.ProjectAssignment{
		ProjectID:  projectID,
		UserID:     targetID,
		AssignedBy: requesterID,
	}
	if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrAlreadyAssigned
		}
		return fmt.Errorf("project service: create assignment: %w", err)
	}

	return nil
}

// Unassign removes a project assignment.
func (s *ProjectService) Unassign(ctx context.Context, projectID, requesterID, targetID string) error {
	ctx = ensureContext(ctx)

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, project.GroupID, requesterID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, targetID).
		Delete(&models.ProjectAssignment{})
	if res.Error != nil {
		return fmt.Errorf("project service: delete assignment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAssignmentNotFound
	}

	return nil
}

// AddItem appends a checklist item to the project.
func (s *ProjectService) AddItem(ctx context.Context, projectID, requesterID, title string, position int) (*models.ChecklistItem, error) {
	ctx = ensureContext(ctx)

	title = trimmed(title)
	if title == "" {
		return nil, apperrors.NewBadRequest("item title is required")
	}

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, project.GroupID, requesterID); err != nil {
		return nil, err
	}

	item := &models.ChecklistItem{
		ProjectID: projectID,
		Title:     title,
		Position:  position,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("project service: create checklist item: %w", err)
	}

	return item, nil
}

// UpdateItem modifies a checklist item (title, done flag, position).
func (s *ProjectService) UpdateItem(ctx context.Context, projectID, itemID, requesterID string, input ChecklistItemInput) (*models.ChecklistItem, error) {
	ctx = ensureContext(ctx)

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, project.GroupID, requesterID); err != nil {
		return nil, err
	}

	var item models.ChecklistItem
	err = s.db.WithContext(ctx).
		First(&item, "id = ? AND project_id = ?", itemID, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChecklistItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: load checklist item: %w", err)
	}

	updates := map[string]any{}
	if input.Title != nil {
		if title := trimmed(*input.Title); title != "" {
			updates["title"] = title
		}
	}
	if input.Done != nil {
		updates["done"] = *input.Done
	}
	if input.Position != nil {
		updates["position"] = *input.Position
	}

	if len(updates) == 0 {
		return &item, nil
	}

	if err := s.db.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("project service: update checklist item: %w", err)
	}

	return &item, nil
}

// RemoveItem deletes a checklist item.
func (s *ProjectService) RemoveItem(ctx context.Context, projectID, itemID, requesterID string) error {
	ctx = ensureContext(ctx)

	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, project.GroupID, requesterID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", itemID, projectID).
		Delete(&models.ChecklistItem{})
	if res.Error != nil {
		return fmt.Errorf("project service: delete checklist item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrChecklistItemNotFound
	}

	return nil
}

func (s *ProjectService) loadProject(ctx context.Context, projectID string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ?", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: load project: %w", err)
	}
	return &project, nil
}

func (s *ProjectService) requireMember(ctx context.Context, groupID, userID string) error {
	member, err := s.members.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.ErrForbidden
	}
	return nil
}
