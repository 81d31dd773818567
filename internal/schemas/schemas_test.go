package schemas

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func tilesJSONFixture(mutate func(i int, tile map[string]any)) []byte {
	resources := []string{"wood", "wood", "wood", "wood", "brick", "brick", "brick", "wheat", "wheat", "wheat", "wheat", "sheep", "sheep", "sheep", "sheep", "ore", "ore", "ore", "desert"}
	numbers := []int{2, 3, 3, 4, 4, 5, 5, 6, 6, 8, 8, 9, 9, 10, 10, 11, 11, 12}
	out := make([]map[string]any, 0, len(resources))
	for i, r := range resources {
		tile := map[string]any{"id": fmt.Sprintf("tile-%d", i), "resource": r, "number": nil, "port": nil}
		if r != "desert" {
			tile["number"] = numbers[i]
		}
		if mutate != nil {
			mutate(i, tile)
		}
		out = append(out, tile)
	}
	b, _ := json.Marshal(out)
	return b
}

func TestTiles_ValidatesSamples(t *testing.T) {
	s, err := Tiles()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := ValidateJSON(s, tilesJSONFixture(nil)); err != nil {
		t.Fatalf("valid board rejected: %v", err)
	}

	bad := map[string][]byte{
		"unknown resource": tilesJSONFixture(func(i int, tile map[string]any) {
			if i == 0 {
				tile["resource"] = "gold"
			}
		}),
		"string number": tilesJSONFixture(func(i int, tile map[string]any) {
			if i == 0 {
				tile["number"] = "8"
			}
		}),
		"number too large": tilesJSONFixture(func(i int, tile map[string]any) {
			if i == 0 {
				tile["number"] = 13
			}
		}),
		"extra field": tilesJSONFixture(func(i int, tile map[string]any) {
			if i == 0 {
				tile["owner"] = "p1"
			}
		}),
		"bad port": tilesJSONFixture(func(i int, tile map[string]any) {
			if i == 0 {
				tile["port"] = "2:1"
			}
		}),
		"not an array": []byte(`{"id":"tile-0"}`),
		"too few":      []byte(`[]`),
		"trailing":     append(tilesJSONFixture(nil), []byte(` []`)...),
	}
	for name, raw := range bad {
		if err := ValidateJSON(s, raw); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

func TestSavedBoards_ValidatesSamples(t *testing.T) {
	s, err := SavedBoards()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	good := `[{"id":"map_1","name":"first","tiles":` + string(tilesJSONFixture(nil)) + `,"createdAt":"2026-10-15T10:00:00Z"}]`
	if err := ValidateJSON(s, []byte(good)); err != nil {
		t.Fatalf("valid collection rejected: %v", err)
	}
	if err := ValidateJSON(s, []byte(`[]`)); err != nil {
		t.Fatalf("empty collection rejected: %v", err)
	}

	badDate := strings.Replace(good, "2026-10-15T10:00:00Z", "yesterday", 1)
	if err := ValidateJSON(s, []byte(badDate)); err == nil {
		t.Fatalf("expected bad createdAt rejected")
	}
	badTiles := `[{"id":"map_1","name":"first","tiles":[],"createdAt":"2026-10-15T10:00:00Z"}]`
	if err := ValidateJSON(s, []byte(badTiles)); err == nil {
		t.Fatalf("expected empty tiles rejected")
	}
}
