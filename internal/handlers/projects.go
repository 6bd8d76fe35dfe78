package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/labhubhq/labhub/internal/services"
	"github.com/labhubhq/labhub/pkg/response"
)

// ProjectHandler exposes project and checklist tracking.
type ProjectHandler struct {
	projects *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) (*ProjectHandler, error) {
	members, err := services.NewMembershipService(db)
	if err != nil {
		return nil, err
	}
	projects, err := services.NewProjectService(db, members)
	if err != nil {
		return nil, err
	}
	return &ProjectHandler{projects: projects}, nil
}

type createProjectRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=128"`
	Description string `json:"description" validate:"omitempty,max=512"`
}

type updateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=128"`
	Description *string `json:"description" validate:"omitempty,max=512"`
}

type assigneeRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

type createItemRequest struct {
	Title    string `json:"title" validate:"required,min=1,max=256"`
	Position int    `json:"position" validate:"omitempty,min=0"`
}

type updateItemRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=256"`
	Done     *bool   `json:"done"`
	Position *int    `json:"position" validate:"omitempty,min=0"`
}

// POST /api/groups/:id/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var body createProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	project, err := h.projects.Create(requestContext(c), c.Param("id"), currentUserID(c), services.CreateProjectInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// GET /api/groups/:id/projects
func (h *ProjectHandler) ListByGroup(c *gin.Context) {
	projects, err := h.projects.ListByGroup(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, projects)
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projects.Get(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var body updateProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	project, err := h.projects.Update(requestContext(c), c.Param("id"), currentUserID(c), services.UpdateProjectInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(requestContext(c), c.Param("id"), currentUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/projects/:id/assignees
func (h *ProjectHandler) Assign(c *gin.Context) {
	var body assigneeRequest
	if !bindAndValidate(c, &body) {
		return
	}

	if err := h.projects.Assign(requestContext(c), c.Param("id"), currentUserID(c), body.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assigned": true})
}

// DELETE /api/projects/:id/assignees/:userID
func (h *ProjectHandler) Unassign(c *gin.Context) {
	if err := h.projects.Unassign(requestContext(c), c.Param("id"), currentUserID(c), c.Param("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// POST /api/projects/:id/items
func (h *ProjectHandler) AddItem(c *gin.Context) {
	var body createItemRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.projects.AddItem(requestContext(c), c.Param("id"), currentUserID(c), body.Title, body.Position)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// PATCH /api/projects/:id/items/:itemID
func (h *ProjectHandler) UpdateItem(c *gin.Context) {
	var body updateItemRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.projects.UpdateItem(requestContext(c), c.Param("id"), c.Param("itemID"), currentUserID(c), services.ChecklistItemInput{
		Title:    body.Title,
		Done:     body.Done,
		Position: body.Position,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

// DELETE /api/projects/:id/items/:itemID
func (h *ProjectHandler) RemoveItem(c *gin.Context) {
	if err := h.projects.RemoveItem(requestContext(c), c.Param("id"), c.Param("itemID"), currentUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
