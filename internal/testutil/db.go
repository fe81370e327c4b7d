package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"venuebook/internal/database"
	"venuebook/internal/domain"
)

// NewDB opens a private in-memory SQLite database with the schema applied.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:venuebook_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", uuid.NewString())
	db, err := database.Connect(dsn, database.Options{Silent: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, email string, role domain.UserRole) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &domain.User{Email: email, PasswordHash: string(hash), Role: role, Name: email}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateVenueWithHall(t *testing.T, db *gorm.DB, ownerID int64, hall domain.Hall) (*domain.Venue, *domain.Hall) {
	t.Helper()

	v := &domain.Venue{OwnerID: ownerID, Name: "Riverside Hall", City: "Almaty", IsActive: true}
	require.NoError(t, db.Create(v).Error)

	hall.VenueID = v.ID
	if hall.Name == "" {
		hall.Name = "Main"
	}
	hall.IsActive = true
	require.NoError(t, db.Create(&hall).Error)
	return v, &hall
}
