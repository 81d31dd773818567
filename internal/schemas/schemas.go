// Package schemas holds the JSON Schemas for boards and saved-board
// collections. Decoders validate untrusted JSON against them before
// unmarshalling into Go types.
package schemas

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	baseURL = "https://hexboard.app/schemas/"

	TilesURL       = baseURL + "tiles.schema.json"
	SavedBoardsURL = baseURL + "saved_boards.schema.json"
)

//go:embed tiles.schema.json
var tilesJSON []byte

//go:embed saved_boards.schema.json
var savedBoardsJSON []byte

var (
	once        sync.Once
	tiles       *jsonschema.Schema
	savedBoards *jsonschema.Schema
	compileErr  error
)

func compile() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	c.AssertFormat = true
	if err := c.AddResource(TilesURL, bytes.NewReader(tilesJSON)); err != nil {
		compileErr = err
		return
	}
	if err := c.AddResource(SavedBoardsURL, bytes.NewReader(savedBoardsJSON)); err != nil {
		compileErr = err
		return
	}
	if tiles, compileErr = c.Compile(TilesURL); compileErr != nil {
		return
	}
	savedBoards, compileErr = c.Compile(SavedBoardsURL)
}

// Tiles returns the compiled board schema.
func Tiles() (*jsonschema.Schema, error) {
	once.Do(compile)
	return tiles, compileErr
}

// SavedBoards returns the compiled saved-board collection schema.
func SavedBoards() (*jsonschema.Schema, error) {
	once.Do(compile)
	return savedBoards, compileErr
}

// ValidateJSON parses raw as generic JSON and validates it against s.
func ValidateJSON(s *jsonschema.Schema, raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("json: trailing data")
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
