package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/labhubhq/labhub/internal/models"
	"github.com/labhubhq/labhub/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Membership{},
		&models.JoinRequest{},
		&models.Project{},
		&models.ChecklistItem{},
		&models.ProjectAssignment{},
	); err != nil {
		return err
	}
	return createPendingRequestIndex(db)
}

// createPendingRequestIndex enforces one undecided request per (group, user)
// at the store. MySQL has no partial indexes, so there the invariant rests on
// the transactional check in the membership service alone.
func createPendingRequestIndex(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "sqlite", "postgres":
		return db.Exec(
			"CREATE UNIQUE INDEX IF NOT EXISTS uniq_join_requests_pending " +
				"ON join_requests (group_id, user_id) WHERE status = 'pending'",
		).Error
	default:
		return nil
	}
}

// DemoPassword is the shared password for seeded demo accounts.
const DemoPassword = "demo1234"

// SeedDemoData populates the volatile demo store with sample accounts, a group
// with an admin and a member, and one pending join request awaiting review.
func SeedDemoData(db *gorm.DB) error {
	hashed, err := crypto.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	users := []models.User{
		{Username: "alice", Email: "alice@demo.labhub.dev", DisplayName: "Alice Zhang", Affiliation: "Computational Biology Lab"},
		{Username: "bob", Email: "bob@demo.labhub.dev", DisplayName: "Bob Petrov", Affiliation: "Computational Biology Lab"},
		{Username: "carol", Email: "carol@demo.labhub.dev", DisplayName: "Carol Mbeki", Affiliation: "Statistics Department"},
	}

	for i := range users {
		users[i].Password = hashed
		users[i].IsActive = true
		if err := db.Where(models.User{Username: users[i].Username}).
			Attrs(users[i]).
			FirstOrCreate(&users[i]).Error; err != nil {
			return fmt.Errorf("seed user %s: %w", users[i].Username, err)
		}
	}
	alice, bob, carol := users[0], users[1], users[2]

	group := models.Group{
		Name:        "Protein Folding Study",
		Description: "Weekly experiment tracking for the folding pipeline",
		CreatorID:   alice.ID,
	}
	if err := db.Where(models.Group{Name: group.Name, CreatorID: alice.ID}).
		Attrs(group).
		FirstOrCreate(&group).Error; err != nil {
		return fmt.Errorf("seed group: %w", err)
	}

	memberships := []models.Membership{
		{GroupID: group.ID, UserID: alice.ID, Role: models.RoleAdmin},
		{GroupID: group.ID, UserID: bob.ID, Role: models.RoleMember},
	}
	for _, m := range memberships {
		if err := db.Where(models.Membership{GroupID: m.GroupID, UserID: m.UserID}).
			Attrs(m).
			FirstOrCreate(&models.Membership{}).Error; err != nil {
			return fmt.Errorf("seed membership: %w", err)
		}
	}

	request := models.JoinRequest{
		GroupID:     group.ID,
		UserID:      carol.ID,
		Username:    carol.Username,
		Email:       carol.Email,
		DisplayName: carol.DisplayName,
		Message:     "I can help with the statistical analysis.",
		Status:      models.JoinRequestPending,
	}
	if err := db.Where(models.JoinRequest{GroupID: group.ID, UserID: carol.ID}).
		Attrs(request).
		FirstOrCreate(&models.JoinRequest{}).Error; err != nil {
		return fmt.Errorf("seed join request: %w", err)
	}

	project := models.Project{
		GroupID:     group.ID,
		Name:        "Baseline simulations",
		Description: "Reproduce last quarter's folding baselines",
		CreatorID:   alice.ID,
	}
	if err := db.Where(models.Project{GroupID: group.ID, Name: project.Name}).
		Attrs(project).
		FirstOrCreate(&project).Error; err != nil {
		return fmt.Errorf("seed project: %w", err)
	}

	items := []models.ChecklistItem{
		{ProjectID: project.ID, Title: "Import reference dataset", Done: true, Position: 0},
		{ProjectID: project.ID, Title: "Run baseline batch", Position: 1},
		{ProjectID: project.ID, Title: "Review divergence report", Position: 2},
	}
	for _, item := range items {
		if err := db.Where(models.ChecklistItem{ProjectID: project.ID, Title: item.Title}).
			Attrs(item).
			FirstOrCreate(&models.ChecklistItem{}).Error; err != nil {
			return fmt.Errorf("seed checklist item: %w", err)
		}
	}

	return nil
}
