package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/labhubhq/labhub/internal/models"
	"github.com/labhubhq/labhub/pkg/crypto"
)

func TestDemoMode(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"explicit demo driver", Config{Driver: "demo"}, true},
		{"postgres without credentials", Config{Driver: "postgres"}, true},
		{"mysql without credentials", Config{Driver: "mysql"}, true},
		{"postgres with credentials", Config{Driver: "postgres", User: "labhub", Name: "labhub"}, false},
		{"postgres with dsn", Config{Driver: "postgres", DSN: "postgres://u:p@localhost/db"}, false},
		{"sqlite", Config{Driver: "sqlite", Path: ":memory:"}, false},
		{"empty driver", Config{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.cfg.DemoMode())
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestPendingRequestUniqueIndex(t *testing.T) {
	db, err := Open(Config{Driver: "demo"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, Migrate(db))

	first := models.JoinRequest{
		GroupID:  "group-1",
		UserID:   "user-1",
		Username: "carol",
		Email:    "carol@example.com",
		Status:   models.JoinRequestPending,
	}
	require.NoError(t, db.Create(&first).Error)

	// A second undecided request for the same pair is rejected by the store
	// itself, independent of any service-level check.
	duplicate := models.JoinRequest{
		GroupID:  "group-1",
		UserID:   "user-1",
		Username: "carol",
		Email:    "carol@example.com",
		Status:   models.JoinRequestPending,
	}
	require.Error(t, db.Create(&duplicate).Error)

	// Once decided, the slot frees up for a fresh request.
	require.NoError(t, db.Model(&first).Update("status", models.JoinRequestRejected).Error)
	fresh := models.JoinRequest{
		GroupID:  "group-1",
		UserID:   "user-1",
		Username: "carol",
		Email:    "carol@example.com",
		Status:   models.JoinRequestPending,
	}
	require.NoError(t, db.Create(&fresh).Error)
}

func TestSeedDemoData(t *testing.T) {
	db, err := Open(Config{Driver: "demo"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, Migrate(db))
	require.NoError(t, SeedDemoData(db))

	var alice models.User
	require.NoError(t, db.First(&alice, "username = ?", "alice").Error)
	require.True(t, crypto.VerifyPassword(alice.Password, DemoPassword))

	var group models.Group
	require.NoError(t, db.First(&group, "creator_id = ?", alice.ID).Error)

	var memberships int64
	require.NoError(t, db.Model(&models.Membership{}).Where("group_id = ?", group.ID).Count(&memberships).Error)
	require.Equal(t, int64(2), memberships)

	var pending int64
	require.NoError(t, db.Model(&models.JoinRequest{}).
		Where("group_id = ? AND status = ?", group.ID, models.JoinRequestPending).
		Count(&pending).Error)
	require.Equal(t, int64(1), pending)

	var items int64
	require.NoError(t, db.Model(&models.ChecklistItem{}).Count(&items).Error)
	require.Equal(t, int64(3), items)

	// Seeding again must not duplicate anything.
	require.NoError(t, SeedDemoData(db))

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.Equal(t, int64(3), users)
}
