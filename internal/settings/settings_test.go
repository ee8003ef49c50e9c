package settings

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/movequote/internal/apperr"
	"github.com/Simplici0/movequote/internal/db"
	"github.com/Simplici0/movequote/internal/migrations"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "settings-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, migrations.Up(context.Background(), database))
	return database
}

func TestUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	require.NoError(t, store.Upsert(ctx, Setting{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "leader_rate", Value: "22000"}))
	require.NoError(t, store.Upsert(ctx, Setting{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "leader_rate", Value: "23000", DataType: TypeNumber}))

	got, err := store.Get(ctx, CategoryRates, SubcategoryStaff, "leader_rate")
	require.NoError(t, err)
	assert.Equal(t, "23000", got.Value)
	assert.Equal(t, TypeNumber, got.DataType)

	d, err := got.Decimal()
	require.NoError(t, err)
	assert.Equal(t, int64(23000), d.IntPart())
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	store := NewStore(newTestDB(t))

	_, err := store.Get(context.Background(), CategoryRates, SubcategoryStaff, "leader_rate")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertRejectsNonNumericNumber(t *testing.T) {
	store := NewStore(newTestDB(t))

	for _, v := range []string{"abc", "NaN", "Inf", ""} {
		err := store.Upsert(context.Background(), Setting{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "leader_rate", Value: v, DataType: TypeNumber})
		assert.True(t, apperr.Is(err, apperr.KindValidation), "value %q: %v", v, err)
	}
}

func TestListFiltersByCategory(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	require.NoError(t, store.Upsert(ctx, Setting{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "leader_rate", Value: "22000"}))
	require.NoError(t, store.Upsert(ctx, Setting{Category: CategoryRates, Subcategory: SubcategoryVehicle, Key: "2t車_full_day_A", Value: "30000"}))
	require.NoError(t, store.Upsert(ctx, Setting{Category: CategorySystem, Subcategory: SubcategoryTax, Key: KeyTaxRate, Value: "0.10"}))

	all, err := store.List(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	vehicles, err := store.List(ctx, CategoryRates, SubcategoryVehicle)
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "2t車_full_day_A", vehicles[0].Key)
}

func TestInsertIfMissingKeepsExistingValue(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))

	require.NoError(t, store.Upsert(ctx, Setting{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "leader_rate", Value: "22000"}))

	inserted, err := store.InsertIfMissing(ctx, Setting{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "leader_rate", Value: "1", DataType: TypeNumber})
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := store.Get(ctx, CategoryRates, SubcategoryStaff, "leader_rate")
	require.NoError(t, err)
	assert.Equal(t, "22000", got.Value)
}

func TestExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	store := NewStore(database)

	require.NoError(t, store.Upsert(ctx, Setting{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "leader_rate", Value: "22000"}))
	require.NoError(t, store.Upsert(ctx, Setting{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "supervisor_rate", Value: "25000"}))

	backup, err := store.Export(ctx)
	require.NoError(t, err)
	require.Len(t, backup.Settings, 2)

	require.NoError(t, store.Upsert(ctx, Setting{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "leader_rate", Value: "1"}))
	require.NoError(t, store.Upsert(ctx, Setting{Category: CategorySystem, Subcategory: SubcategoryTax, Key: KeyTaxRate, Value: "0.08"}))

	var restored int
	err = db.WithTx(ctx, database, func(tx *sql.Tx) error {
		var err error
		restored, err = NewStore(tx).Restore(ctx, backup, nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	all, err := store.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	got, err := store.Get(ctx, CategoryRates, SubcategoryStaff, "leader_rate")
	require.NoError(t, err)
	assert.Equal(t, "22000", got.Value)
}

func TestRestoreRejectsInvalidRowWithoutClearing(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	store := NewStore(database)

	require.NoError(t, store.Upsert(ctx, Setting{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "leader_rate", Value: "22000"}))

	bad := Backup{Version: backupVersion, Settings: []Setting{{Category: CategoryRates, Subcategory: SubcategoryStaff, Key: "leader_rate", Value: "oops", DataType: TypeNumber}}}
	err := db.WithTx(ctx, database, func(tx *sql.Tx) error {
		_, err := NewStore(tx).Restore(ctx, bad, nil)
		return err
	})
	require.Error(t, err)

	got, err := store.Get(ctx, CategoryRates, SubcategoryStaff, "leader_rate")
	require.NoError(t, err)
	assert.Equal(t, "22000", got.Value)
}
