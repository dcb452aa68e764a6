package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/mobilier/internal/db"
	"github.com/erazemk/mobilier/internal/fieldwork"
	"github.com/erazemk/mobilier/internal/geo"
	"github.com/erazemk/mobilier/internal/imaging"
	"github.com/erazemk/mobilier/internal/model"
	"github.com/erazemk/mobilier/internal/store"
)

func bench(id string, lat float64) model.Furniture {
	return model.Furniture{
		ID:        id,
		Type:      "Public bench",
		Category:  model.CategoryComfort,
		Latitude:  lat,
		Longitude: 3.0573,
	}
}

func TestImportRecords(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	board := fieldwork.NewBoard(store.Source{DB: database}, fieldwork.DefaultConfig)

	res, err := importRecords(ctx, database, board, []model.Furniture{
		bench("mob-1", 50.6292),
		bench("", 50.629245),
	}, "claire")
	require.NoError(t, err)
	assert.Equal(t, importResult{created: 2, duplicates: 1}, res)

	items, err := store.ListFurniture(ctx, database, store.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "claire", items[0].Agent)
	assert.Equal(t, model.StateCorrect, items[0].State, "defaults applied")

	update := items[0]
	update.State = model.StateDamaged
	res, err = importRecords(ctx, database, board, []model.Furniture{update}, "")
	require.NoError(t, err)
	assert.Equal(t, importResult{updated: 1}, res)
}

func TestImportRecordsStopsOnInvalid(t *testing.T) {
	database := db.NewTestDB(t)
	board := fieldwork.NewBoard(store.Source{DB: database}, fieldwork.DefaultConfig)

	bad := bench("", 50.6292)
	bad.Category = "chairs"
	_, err := importRecords(context.Background(), database, board, []model.Furniture{bench("", 50.6292), bad}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidCategory)
	assert.Contains(t, err.Error(), "record 2")
}

func TestPrintRecords(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printRecords(&buf, nil, geo.Point{})
	assert.Contains(t, buf.String(), "nothing in range")

	buf.Reset()
	f := bench("7", 50.629245)
	f.State = model.StateDangerous
	f.Agent = "claire"
	printRecords(&buf, []model.Furniture{f}, geo.Point{Lat: 50.6292, Lng: 3.0573})
	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "  7 "), line)
	assert.Contains(t, line, "dangerous")
	assert.Contains(t, line, "5.0 m")
	assert.Contains(t, line, "claire")
}

func TestPrintCounts(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	printCounts(&buf, "State", map[string]int{model.StateDangerous: 2, model.StateNew: 0}, model.StateLabels)
	out := buf.String()
	assert.Contains(t, out, "State:")
	assert.Contains(t, out, model.Label(model.StateLabels, model.StateDangerous))
	assert.Less(t, strings.Index(out, model.Label(model.StateLabels, model.StateDangerous)),
		strings.Index(out, model.Label(model.StateLabels, model.StateNew)), "keys sorted")
}

func TestResolveJWTSecret(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	generated, err := resolveJWTSecret(ctx, database, "")
	require.NoError(t, err)
	require.Len(t, generated, 64)

	again, err := resolveJWTSecret(ctx, database, "")
	require.NoError(t, err)
	assert.Equal(t, generated, again, "generated secret is reused")

	configured, err := resolveJWTSecret(ctx, database, "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", configured)

	// A later run without the setting keeps the configured secret.
	later, err := resolveJWTSecret(ctx, database, "")
	require.NoError(t, err)
	assert.Equal(t, "from-config", later)
}

func TestImportRecordsNormalisesPhotos(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	board := fieldwork.NewBoard(store.Source{DB: database}, fieldwork.DefaultConfig)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2048, 512))))
	f := bench("", 50.6292)
	f.Photo = "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	_, err := importRecords(ctx, database, board, []model.Furniture{f}, "claire")
	require.NoError(t, err)

	items, err := store.ListFurniture(ctx, database, store.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	data, mime, err := store.GetFurniturePhoto(ctx, database, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imaging.MaxDimension, cfg.Width)
	assert.Equal(t, 256, cfg.Height)

	bad := bench("", 50.7)
	bad.Photo = "data:image/png;base64,bm90IGFuIGltYWdl"
	_, err = importRecords(ctx, database, board, []model.Furniture{bad}, "claire")
	assert.Error(t, err)
}

func TestNearbyRequiresBothCoordinates(t *testing.T) {
	for _, args := range [][]string{{"--lat", "50.63"}, {"--lng", "3.05"}} {
		cmd := nearbyCmd()
		cmd.SetArgs(args)
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		err := cmd.Execute()
		require.Error(t, err, "args %v", args)
		assert.Contains(t, err.Error(), "must all be set")
	}
}
