// Command seatgen generates seats for one section polygon offline.
//
// It reads a JSON request of the form
//
//	{"polygon": [{"x":0,"y":0}, ...], "options": {"capacity": 120, ...}}
//
// from a file or stdin and writes the generated plan as JSON, or the seat
// list as CSV.  Flags override the matching request options.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/iliyamo/venue-seat-layout/internal/geometry"
	"github.com/iliyamo/venue-seat-layout/internal/seatgen"
)

type request struct {
	Polygon geometry.Polygon `json:"polygon"`
	Options seatgen.Options  `json:"options"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatalf("seatgen: %v", err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("seatgen", flag.ContinueOnError)
	in := fs.String("in", "-", "request file, - for stdin")
	format := fs.String("format", "json", "output format: json or csv")
	pattern := fs.String("pattern", "", "override options.pattern (grid, staggered, curved, radial)")
	capacity := fs.Int("capacity", 0, "override options.capacity when > 0")
	aisles := fs.String("aisles", "", "override options.aisle_positions, comma separated")
	estimate := fs.Bool("estimate", false, "print only the capacity estimate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	src := stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}
	var req request
	if err := json.NewDecoder(src).Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if *pattern != "" {
		req.Options.Pattern = seatgen.Pattern(*pattern)
	}
	if *capacity > 0 {
		req.Options.Capacity = *capacity
	}
	if *aisles != "" {
		positions, err := parseCSVIntSlice(*aisles)
		if err != nil {
			return err
		}
		req.Options.AislePositions = positions
	}

	plan := seatgen.NewPlan(req.Polygon, req.Options)
	if *estimate {
		_, err := fmt.Fprintln(stdout, plan.MaxCapacity)
		return err
	}
	switch strings.ToLower(*format) {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case "csv":
		return writeCSV(stdout, plan.Seats)
	}
	return fmt.Errorf("unknown format %q", *format)
}

// parseCSVIntSlice parses a comma-separated list of ints
func parseCSVIntSlice(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func writeCSV(w io.Writer, seats []seatgen.GeneratedSeat) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "label", "row", "number", "x", "y", "rotation"}); err != nil {
		return err
	}
	for _, s := range seats {
		rot := ""
		if s.Rotation != nil {
			rot = strconv.FormatFloat(*s.Rotation, 'f', 2, 64)
		}
		rec := []string{
			s.ID,
			s.Label,
			s.Row,
			strconv.Itoa(s.Number),
			strconv.FormatFloat(s.X, 'f', 2, 64),
			strconv.FormatFloat(s.Y, 'f', 2, 64),
			rot,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
