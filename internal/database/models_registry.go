package database

import "warden/internal/models"

// PersistentModels returns the set of models registered for migration.
// Order matters: users must exist before bans and topups reference them.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Ban{},
		&models.Topup{},
	}
}
