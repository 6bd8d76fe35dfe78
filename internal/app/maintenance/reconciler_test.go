package maintenance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/labhubhq/labhub/internal/models"
)

func openReconcilerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Membership{},
		&models.JoinRequest{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestRunOnceRepairsOrphanedApprovals(t *testing.T) {
	db := openReconcilerTestDB(t)

	group := models.Group{Name: "Folding Study", CreatorID: "creator"}
	require.NoError(t, db.Create(&group).Error)

	// Approved without a membership: the gap the reconciler exists to close.
	orphan := models.JoinRequest{
		GroupID:  group.ID,
		UserID:   "user-orphan",
		Username: "carol",
		Email:    "carol@example.com",
		Status:   models.JoinRequestApproved,
	}
	require.NoError(t, db.Create(&orphan).Error)

	// Approved with its membership already in place.
	settled := models.JoinRequest{
		GroupID:  group.ID,
		UserID:   "user-settled",
		Username: "bob",
		Email:    "bob@example.com",
		Status:   models.JoinRequestApproved,
	}
	require.NoError(t, db.Create(&settled).Error)
	require.NoError(t, db.Create(&models.Membership{
		GroupID: group.ID,
		UserID:  "user-settled",
		Role:    models.RoleMember,
	}).Error)

	// Rejected and pending requests are never repaired.
	rejected := models.JoinRequest{
		GroupID:  group.ID,
		UserID:   "user-rejected",
		Username: "dave",
		Email:    "dave@example.com",
		Status:   models.JoinRequestRejected,
	}
	require.NoError(t, db.Create(&rejected).Error)
	pending := models.JoinRequest{
		GroupID:  group.ID,
		UserID:   "user-pending",
		Username: "erin",
		Email:    "erin@example.com",
		Status:   models.JoinRequestPending,
	}
	require.NoError(t, db.Create(&pending).Error)

	reconciler := NewReconciler(db)

	repaired, err := reconciler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), repaired)

	var membership models.Membership
	require.NoError(t, db.First(&membership, "group_id = ? AND user_id = ?", group.ID, "user-orphan").Error)
	require.Equal(t, models.RoleMember, membership.Role)

	var total int64
	require.NoError(t, db.Model(&models.Membership{}).Count(&total).Error)
	require.Equal(t, int64(2), total)

	// A second pass finds nothing left to repair.
	repaired, err = reconciler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, repaired)
}

func TestRunOnceWithoutDatabase(t *testing.T) {
	reconciler := NewReconciler(nil)
	repaired, err := reconciler.RunOnce(context.Background())
	require.NoError(t, err)
	require.Zero(t, repaired)
}
