package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"field-service/internal/geo"
)

var areaCmd = &cobra.Command{
	Use:   "area <ring>",
	Short: "Print the area of a boundary given as [[lon,lat],...]",
	Long: `Reads a ring as a JSON array of [lon, lat] pairs, from the argument or
from stdin when the argument is "-", and prints its area in hectares.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := args[0]
		if raw == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			raw = string(data)
		}
		return printArea(cmd.OutOrStdout(), raw)
	},
}

func printArea(out io.Writer, raw string) error {
	var ring geo.Ring
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &ring); err != nil {
		return fmt.Errorf("invalid ring: %w", err)
	}
	if !geo.IsComplete(ring) {
		return fmt.Errorf("ring needs at least %d points, got %d", geo.MinVertices, len(ring))
	}
	if !geo.Finite(ring) {
		return fmt.Errorf("ring has non-finite coordinates")
	}

	fmt.Fprintf(out, "area:      %.2f ha\n", geo.AreaHectares(ring))
	fmt.Fprintf(out, "perimeter: %.1f m\n", geo.PerimeterMeters(ring))
	if c, ok := geo.Centroid(ring); ok {
		fmt.Fprintf(out, "centroid:  %.6f, %.6f\n", c.Lat, c.Lon)
	}
	fmt.Fprintf(out, "wkt:       %s\n", geo.WKT(ring))
	return nil
}
