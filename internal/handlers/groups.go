package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/labhubhq/labhub/internal/services"
	"github.com/labhubhq/labhub/pkg/response"
)

// GroupHandler exposes group lifecycle and the join-request workflow.
type GroupHandler struct {
	groups  *services.GroupService
	members *services.MembershipService
	users   *services.UserService
}

func NewGroupHandler(db *gorm.DB) (*GroupHandler, error) {
	members, err := services.NewMembershipService(db)
	if err != nil {
		return nil, err
	}
	groups, err := services.NewGroupService(db, members)
	if err != nil {
		return nil, err
	}
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	return &GroupHandler{groups: groups, members: members, users: users}, nil
}

type createGroupRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=128"`
	Description string `json:"description" validate:"omitempty,max=512"`
}

type updateGroupRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=128"`
	Description *string `json:"description" validate:"omitempty,max=512"`
}

type joinGroupRequest struct {
	Message string `json:"message" validate:"omitempty,max=500"`
}

type decideRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

// GET /api/groups
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groups.ListMine(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, groups)
}

// POST /api/groups
func (h *GroupHandler) Create(c *gin.Context) {
	var body createGroupRequest
	if !bindAndValidate(c, &body) {
		return
	}

	group, err := h.groups.Create(requestContext(c), currentUserID(c), services.CreateGroupInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// GET /api/groups/:id
func (h *GroupHandler) Get(c *gin.Context) {
	detail, err := h.groups.GetByID(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// PATCH /api/groups/:id
func (h *GroupHandler) Update(c *gin.Context) {
	var body updateGroupRequest
	if !bindAndValidate(c, &body) {
		return
	}

	group, err := h.groups.Update(requestContext(c), c.Param("id"), currentUserID(c), services.UpdateGroupInput{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, group)
}

// DELETE /api/groups/:id
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.groups.Delete(requestContext(c), c.Param("id"), currentUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/groups/:id/join
func (h *GroupHandler) RequestJoin(c *gin.Context) {
	var body joinGroupRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if !bindAndValidate(c, &body) {
			return
		}
	}

	ctx := requestContext(c)
	requester, err := h.users.GetByID(ctx, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	request, groupName, err := h.members.RequestJoin(ctx, c.Param("id"), requester, body.Message)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"request_id": request.ID,
		"group_name": groupName,
		"status":     request.Status,
	})
}

// GET /api/groups/:id/requests
func (h *GroupHandler) ListRequests(c *gin.Context) {
	requests, err := h.members.ListPending(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, requests)
}

// POST /api/groups/:id/requests/:requestID
func (h *GroupHandler) Decide(c *gin.Context) {
	var body decideRequest
	if !bindAndValidate(c, &body) {
		return
	}

	request, err := h.members.Decide(requestContext(c), c.Param("id"), c.Param("requestID"), currentUserID(c), body.Action)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, request)
}

// DELETE /api/groups/:id/members/:userID
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if err := h.members.RemoveMember(requestContext(c), c.Param("id"), currentUserID(c), c.Param("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// GET /api/groups/:id/members
func (h *GroupHandler) ListMembers(c *gin.Context) {
	memberships, err := h.members.ListMembers(requestContext(c), c.Param("id"), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, memberships)
}
