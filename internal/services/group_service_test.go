package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/labhubhq/labhub/internal/models"
	apperrors "github.com/labhubhq/labhub/pkg/errors"
)

func newGroupTestServices(t *testing.T) (*GroupService, *MembershipService, *gorm.DB) {
	t.Helper()

	db := openServiceTestDB(t)
	members, err := NewMembershipService(db)
	require.NoError(t, err)
	groups, err := NewGroupService(db, members)
	require.NoError(t, err)
	return groups, members, db
}

func TestCreateGroupGrantsAdminMembership(t *testing.T) {
	groups, members, db := newGroupTestServices(t)
	alice := createTestUser(t, db, "alice")

	ctx := context.Background()
	group, err := groups.Create(ctx, alice.ID, CreateGroupInput{Name: "  Folding Study  ", Description: "weekly tracking"})
	require.NoError(t, err)
	require.Equal(t, "Folding Study", group.Name)
	require.Equal(t, alice.ID, group.CreatorID)

	admin, err := members.IsAdmin(ctx, group.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, admin)

	_, err = groups.Create(ctx, alice.ID, CreateGroupInput{Name: "   "})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestGetGroupShapedByRole(t *testing.T) {
	groups, members, db := newGroupTestServices(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	ctx := context.Background()
	group, err := groups.Create(ctx, alice.ID, CreateGroupInput{Name: "Folding Study"})
	require.NoError(t, err)
	addTestMember(t, db, group, bob)

	_, _, err = members.RequestJoin(ctx, group.ID, carol, "")
	require.NoError(t, err)

	// Outsiders see only the basic record they need to request a join.
	outsider, err := groups.GetByID(ctx, group.ID, carol.ID)
	require.NoError(t, err)
	require.Equal(t, group.ID, outsider.Group.ID)
	require.Empty(t, outsider.Role)
	require.Empty(t, outsider.Members)
	require.Empty(t, outsider.PendingRequests)

	// Members see the roster but not the review queue.
	member, err := groups.GetByID(ctx, group.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleMember, member.Role)
	require.Len(t, member.Members, 2)
	require.Empty(t, member.PendingRequests)

	// Admins additionally see pending requests.
	admin, err := groups.GetByID(ctx, group.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, admin.Role)
	require.Len(t, admin.PendingRequests, 1)
	require.Equal(t, carol.ID, admin.PendingRequests[0].UserID)

	_, err = groups.GetByID(ctx, "missing", alice.ID)
	require.ErrorIs(t, err, ErrGroupNotFound)
}

func TestListMineReturnsOnlyMemberGroups(t *testing.T) {
	groups, _, db := newGroupTestServices(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	ctx := context.Background()
	first, err := groups.Create(ctx, alice.ID, CreateGroupInput{Name: "First"})
	require.NoError(t, err)
	_, err = groups.Create(ctx, bob.ID, CreateGroupInput{Name: "Second"})
	require.NoError(t, err)

	mine, err := groups.ListMine(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, first.ID, mine[0].ID)
}

func TestUpdateGroupAdminOnly(t *testing.T) {
	groups, _, db := newGroupTestServices(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	ctx := context.Background()
	group, err := groups.Create(ctx, alice.ID, CreateGroupInput{Name: "Folding Study"})
	require.NoError(t, err)
	addTestMember(t, db, group, bob)

	name := "Folding Study v2"
	_, err = groups.Update(ctx, group.ID, bob.ID, UpdateGroupInput{Name: &name})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := groups.Update(ctx, group.ID, alice.ID, UpdateGroupInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
}

func TestDeleteGroupCreatorOnlyAndCascades(t *testing.T) {
	groups, members, db := newGroupTestServices(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	ctx := context.Background()
	group, err := groups.Create(ctx, alice.ID, CreateGroupInput{Name: "Folding Study"})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Membership{GroupID: group.ID, UserID: bob.ID, Role: models.RoleAdmin}).Error)

	_, _, err = members.RequestJoin(ctx, group.ID, carol, "undecided")
	require.NoError(t, err)

	projects, err := NewProjectService(db, members)
	require.NoError(t, err)
	project, err := projects.Create(ctx, group.ID, alice.ID, CreateProjectInput{Name: "Baselines"})
	require.NoError(t, err)
	_, err = projects.AddItem(ctx, project.ID, alice.ID, "Import dataset", 0)
	require.NoError(t, err)
	require.NoError(t, projects.Assign(ctx, project.ID, alice.ID, bob.ID))

	// A non-creator admin cannot delete the group.
	require.ErrorIs(t, groups.Delete(ctx, group.ID, bob.ID), apperrors.ErrForbidden)

	require.NoError(t, groups.Delete(ctx, group.ID, alice.ID))

	for _, count := range []struct {
		name  string
		model any
		where string
	}{
		{"memberships", &models.Membership{}, "group_id = ?"},
		{"join requests", &models.JoinRequest{}, "group_id = ?"},
		{"projects", &models.Project{}, "group_id = ?"},
	} {
		var n int64
		require.NoError(t, db.Model(count.model).Where(count.where, group.ID).Count(&n).Error)
		require.Zero(t, n, "leftover %s", count.name)
	}

	var items int64
	require.NoError(t, db.Model(&models.ChecklistItem{}).Where("project_id = ?", project.ID).Count(&items).Error)
	require.Zero(t, items)

	var assignments int64
	require.NoError(t, db.Model(&models.ProjectAssignment{}).Where("project_id = ?", project.ID).Count(&assignments).Error)
	require.Zero(t, assignments)

	require.ErrorIs(t, groups.Delete(ctx, group.ID, alice.ID), ErrGroupNotFound)
}
