package main

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/janelia-flyem/rasterchunk/config"
	"github.com/janelia-flyem/rasterchunk/storage"
)

func TestCommandArgs(t *testing.T) {
	cmd := Command{"Stats", "s3://bucket?region=us-east-1", "band=2", "key", "40", "30", "extra"}
	if cmd.Name() != "stats" {
		t.Errorf("unexpected name %q", cmd.Name())
	}
	var url, key, w, h string
	overflow := cmd.CommandArgs(&url, &key, &w, &h)
	if url != "s3://bucket?region=us-east-1" || key != "key" || w != "40" || h != "30" {
		t.Errorf("unexpected args %q %q %q %q", url, key, w, h)
	}
	if len(overflow) != 1 || overflow[0] != "extra" {
		t.Errorf("unexpected overflow %v", overflow)
	}
	if band, err := cmd.IntSetting("band", 1); err != nil || band != 2 {
		t.Errorf("band setting = %d, %v", band, err)
	}
	if limit, err := cmd.IntSetting("limit", 7); err != nil || limit != 7 {
		t.Errorf("limit default = %d, %v", limit, err)
	}
	if _, err := (Command{"align", "center=maybe"}).BoolSetting("center"); err == nil {
		t.Errorf("expected bad boolean to fail")
	}
}

func TestParseGeoTransform(t *testing.T) {
	gt, err := parseGeoTransform("100, 10, 0, 500, 0, -10")
	if err != nil || gt != [6]float64{100, 10, 0, 500, 0, -10} {
		t.Errorf("unexpected geotransform %v, %v", gt, err)
	}
	if _, err := parseGeoTransform("1,2,3"); err == nil {
		t.Errorf("expected short geotransform to fail")
	}
	if _, err := parseGeoTransform("1,2,3,4,5,x"); err == nil {
		t.Errorf("expected bad number to fail")
	}
}

func writeTestTiff(t *testing.T, filename string, width, height int, offset uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Pix[y*img.Stride+x] = uint8(x+y) + offset
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Decode("[chunking]\ndata_height = 8\npadding = 1\nworkers = 2\n[store]\nblock_height = 4\n")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	tiffA := filepath.Join(dir, "a.tif")
	tiffB := filepath.Join(dir, "b.tif")
	writeTestTiff(t, tiffA, 20, 30, 0)
	writeTestTiff(t, tiffB, 16, 24, 0)
	dsA := filepath.Join(dir, "a")
	dsB := filepath.Join(dir, "b")
	if err := os.Mkdir(dsB, 0755); err != nil {
		t.Fatal(err)
	}

	commands := []Command{
		{"plan", "100", "50", "4", "6"},
		{"import", dsA, tiffA, "geotransform=100,10,0,500,0,-10"},
		{"import", dsA, tiffA},
		{"import", dsB, tiffB, "geotransform=120,10,0,480,0,-10"},
		{"info", dsA},
		{"stats", dsA},
		{"export", dsA, "file://" + dir, "a.f64"},
		{"stats", "file://" + dir, "a.f64", "20", "30"},
		{"align", dsA, dsB, "limit=2"},
		{"align", dsA, dsB, "center=true"},
		{"about"},
	}
	for _, cmd := range commands {
		if err := DoCommand(ctx, cfg, cmd); err != nil {
			t.Fatalf("%q failed: %v", cmd, err)
		}
	}

	ds, err := storage.OpenReadOnly(dsA, nil)
	if err != nil {
		t.Fatal(err)
	}
	meta := ds.Meta()
	ds.Close()
	if meta.Width != 20 || meta.Height != 30 || meta.BlockHeight != 4 || meta.GeoTransform[0] != 100 {
		t.Errorf("unexpected imported dataset %s", meta)
	}

	failing := []Command{
		{},
		{"bogus"},
		{"plan", "100"},
		{"plan", "0", "10"},
		{"import", dsA},
		{"import", dsA, tiffB},
		{"info", filepath.Join(dir, "missing")},
		{"stats", dsA, "band=2"},
		{"stats", "file://" + dir, "a.f64"},
		{"align", dsA},
	}
	for _, cmd := range failing {
		if err := DoCommand(ctx, cfg, cmd); err == nil {
			t.Errorf("expected %q to fail", cmd)
		}
	}
}
