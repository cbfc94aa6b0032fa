package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/minecraft-monitor/internal/models"
)

const (
	aliceID = "11111111-1111-1111-1111-111111111111"
	bobID   = "22222222-2222-2222-2222-222222222222"
)

func TestPlayerRepository_UpsertCreates(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	player := CreateTestPlayer(aliceID, "Alice", 10, 64, -5, "minecraft:overworld")
	require.NoError(t, repo.Upsert(ctx, player))

	found, err := repo.FindByID(ctx, uuid.MustParse(aliceID))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Alice", found.Name)
	assert.True(t, found.IsOnline)
	require.NotNil(t, found.Coordinates)
	assert.Equal(t, 10, found.Coordinates.X)
	assert.Equal(t, 64, found.Coordinates.Y)
	assert.Equal(t, -5, found.Coordinates.Z)
	assert.Equal(t, "minecraft:overworld", found.Coordinates.Dimension)
	assert.Nil(t, found.Inventory)
}

func TestPlayerRepository_UpsertKeepsCoordinateRow(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, CreateTestPlayer(aliceID, "Alice", 1, 2, 3, "minecraft:overworld")))
	first, err := repo.FindByID(ctx, uuid.MustParse(aliceID))
	require.NoError(t, err)
	coordID := first.Coordinates.ID

	// 改名并移动到末地
	inventory := `[{"id":"minecraft:stone","Slot":0,"Count":1}]`
	update := CreateTestPlayer(aliceID, "Alice2", 7, 8, 9, "minecraft:the_end")
	update.Inventory = &inventory
	require.NoError(t, repo.Upsert(ctx, update))

	found, err := repo.FindByID(ctx, uuid.MustParse(aliceID))
	require.NoError(t, err)
	assert.Equal(t, "Alice2", found.Name)
	assert.Equal(t, coordID, found.Coordinates.ID)
	assert.Equal(t, 7, found.Coordinates.X)
	assert.Equal(t, "minecraft:the_end", found.Coordinates.Dimension)
	require.NotNil(t, found.Inventory)
	assert.Equal(t, inventory, *found.Inventory)

	var players, coords int64
	db.Model(&models.Player{}).Count(&players)
	db.Model(&models.Coordinates{}).Count(&coords)
	assert.Equal(t, int64(1), players)
	assert.Equal(t, int64(1), coords)
}

func TestPlayerRepository_UpsertClearsInventory(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	inventory := "[]"
	player := CreateTestPlayer(aliceID, "Alice", 0, 0, 0, "minecraft:overworld")
	player.Inventory = &inventory
	require.NoError(t, repo.Upsert(ctx, player))

	player = CreateTestPlayer(aliceID, "Alice", 0, 0, 0, "minecraft:overworld")
	require.NoError(t, repo.Upsert(ctx, player))

	found, err := repo.FindByID(ctx, uuid.MustParse(aliceID))
	require.NoError(t, err)
	assert.Nil(t, found.Inventory)
}

func TestPlayerRepository_OfflineKeepsCoordinates(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, CreateTestPlayer(aliceID, "Alice", 5, 6, 7, "minecraft:overworld")))

	found, err := repo.FindByID(ctx, uuid.MustParse(aliceID))
	require.NoError(t, err)
	found.IsOnline = false
	found.Coordinates = nil
	require.NoError(t, repo.Upsert(ctx, found))

	again, err := repo.FindByID(ctx, uuid.MustParse(aliceID))
	require.NoError(t, err)
	assert.False(t, again.IsOnline)
	require.NotNil(t, again.Coordinates)
	assert.Equal(t, 5, again.Coordinates.X)
}

func TestPlayerRepository_FindMissing(t *testing.T) {
	repo := NewPlayerRepository(SetupTestDB(t))

	found, err := repo.FindByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestPlayerRepository_ListAndCount(t *testing.T) {
	db := SetupTestDB(t)
	repo := NewPlayerRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, CreateTestPlayer(bobID, "Bob", 1, 70, 2, "minecraft:the_end")))
	alice := CreateTestPlayer(aliceID, "Alice", 10, 64, -5, "minecraft:overworld")
	alice.IsOnline = false
	alice.LastOnlineAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Upsert(ctx, alice))

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Alice", all[0].Name)
	assert.NotNil(t, all[0].Coordinates)

	online, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "Bob", online[0].Name)

	count, err := repo.CountOnline(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
