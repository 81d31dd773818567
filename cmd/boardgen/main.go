// Command boardgen generates boards and encodes or decodes share tokens
// without a running server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"hexboard.app/internal/board"
	"hexboard.app/internal/share"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("boardgen", flag.ContinueOnError)
	fset.SetOutput(stderr)
	var (
		seed     = fset.Uint64("seed", 0, "generator seed (0: random)")
		origin   = fset.String("origin", "http://localhost:8080", "origin for the printed share url")
		decode   = fset.String("decode", "", "decode a share token or /map/ url instead of generating")
		rows     = fset.Bool("rows", false, "print the board as rows of resources/numbers")
		compress = fset.Bool("compress", true, "zstd-compress the share token")
	)
	if err := fset.Parse(args); err != nil {
		return 2
	}

	codec, err := share.NewCodec(share.Options{Compress: *compress})
	if err != nil {
		fmt.Fprintln(stderr, "codec:", err)
		return 1
	}
	defer codec.Close()

	if tok := strings.TrimSpace(*decode); tok != "" {
		if i := strings.Index(tok, share.PathPrefix); i >= 0 {
			if t, ok := share.TokenFromPath(tok[i:]); ok {
				tok = t
			}
		}
		b, err := codec.Decode(tok)
		if err != nil {
			fmt.Fprintln(stderr, "decode:", err)
			return 1
		}
		return printBoard(stdout, stderr, b, *rows)
	}

	s := *seed
	if s == 0 {
		if s, err = board.NewSeed(); err != nil {
			fmt.Fprintln(stderr, "seed:", err)
			return 1
		}
	}
	b := board.NewGenerator(s).Generate()
	tok, err := codec.Encode(b)
	if err != nil {
		fmt.Fprintln(stderr, "encode:", err)
		return 1
	}
	fmt.Fprintf(stdout, "seed=%d\n", s)
	fmt.Fprintln(stdout, share.URL(*origin, tok))
	return printBoard(stdout, stderr, b, *rows)
}

func printBoard(stdout, stderr io.Writer, b board.Board, rows bool) int {
	if rows {
		for _, row := range b.Rows() {
			cells := make([]string, 0, len(row))
			for _, t := range row {
				cell := string(t.Resource)
				if t.Number != nil {
					cell = fmt.Sprintf("%s/%d", t.Resource, *t.Number)
				}
				cells = append(cells, cell)
			}
			fmt.Fprintln(stdout, strings.Join(cells, " "))
		}
		return 0
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		fmt.Fprintln(stderr, "write:", err)
		return 1
	}
	return 0
}
