// cmd/client is the Cobra-based CLI for geomemdb.
//
// Usage:
//
//	geomemctl geoadd mykey 37.7749 -122.4194          --server 127.0.0.1:6379
//	geomemctl geosearch 37.7749 -122.4194 5000         --server 127.0.0.1:6379
//	geomemctl geoget mykey                             --server 127.0.0.1:6379
//	geomemctl ping                                      --server 127.0.0.1:6379
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"geomemdb/internal/client"
)

var (
	serverAddr string
	timeout    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "geomemctl",
		Short: "CLI client for geomemdb",
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "s",
		"127.0.0.1:6379", "geomemdb node address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second,
		"request timeout")

	root.AddCommand(geoAddCmd(), geoSearchCmd(), geoGetCmd(), pingCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ─── geoadd ───────────────────────────────────────────────────────────────────

func geoAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geoadd <key> <lat> <lon> [lat lon ...]",
		Short: "Store a point or a polygon ring under key",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			nums := args[1:]
			if len(nums)%2 != 0 {
				return fmt.Errorf("coordinates must come in lat/lon pairs")
			}

			coords := make([][2]float64, len(nums)/2)
			for i := range coords {
				lat, err := strconv.ParseFloat(nums[2*i], 64)
				if err != nil {
					return fmt.Errorf("invalid lat %q: %w", nums[2*i], err)
				}
				lon, err := strconv.ParseFloat(nums[2*i+1], 64)
				if err != nil {
					return fmt.Errorf("invalid lon %q: %w", nums[2*i+1], err)
				}
				coords[i] = [2]float64{lat, lon}
			}

			c := client.New(serverAddr, timeout)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := c.GeoAdd(ctx, key, coords); err != nil {
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}
}

// ─── geosearch ────────────────────────────────────────────────────────────────

func geoSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geosearch <lat> <lon> <radiusMeters>",
		Short: "Find keys within radiusMeters of (lat, lon)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid lat %q: %w", args[0], err)
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid lon %q: %w", args[1], err)
			}
			radius, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid radius %q: %w", args[2], err)
			}

			c := client.New(serverAddr, timeout)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			keys, err := c.GeoSearch(ctx, lat, lon, radius)
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	}
}

// ─── geoget ───────────────────────────────────────────────────────────────────

func geoGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geoget <key>",
		Short: "Retrieve the stored geometry for key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverAddr, timeout)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			val, err := c.GeoGet(ctx, args[0])
			if err == client.ErrNotFound {
				fmt.Printf("key %q not found\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println(val)
			return nil
		},
	}
}

// ─── ping ─────────────────────────────────────────────────────────────────────

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Send a single HEARTBEAT probe to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(serverAddr, timeout)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := c.Heartbeat(ctx); err != nil {
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}
}
