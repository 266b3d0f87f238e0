package repository

import (
	"testing"

	"github.com/nimasrn/service-reminders/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// dedupIndexSQL mirrors the partial unique index from the migrations.
const dedupIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS ux_reminder_messages_dedup
	ON reminder_messages (customer_id, vehicle_id, service_record_id, reminder_rule_id)
	WHERE status IN ('queued', 'sent', 'delivered')`

// Entities lists every table the repositories need, in creation order.
func Entities() []any {
	return []any{
		&OrganizationEntity{},
		&TwilioConfigEntity{},
		&CustomerEntity{},
		&VehicleEntity{},
		&ServiceRecordEntity{},
		&ConsentLogEntity{},
		&ServiceTypeEntity{},
		&ReminderTemplateEntity{},
		&ReminderRuleEntity{},
		&ReminderMessageEntity{},
	}
}

// NewTestDB opens an isolated in-memory sqlite database with the full schema.
// It is exported so service tests can run against the real repositories.
func NewTestDB(t testing.TB) *pg.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), pg.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every new connection would open a separate in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Entities()...))
	require.NoError(t, db.Exec(dedupIndexSQL).Error)

	return pg.NewDB(db, db)
}
