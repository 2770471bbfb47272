// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
	"github.com/bureau-foundation/prefab/lib/prefab"
	"github.com/bureau-foundation/prefab/lib/scene"
	"github.com/bureau-foundation/prefab/lib/transform"
)

type placeParams struct {
	cli.JSONOutput
	ConfigFlags
	Level  string  `flag:"level,l" desc:"level to place the instance in" default:"Persistent"`
	Name   string  `flag:"name,n" desc:"instance name (default: template name)"`
	At     string  `flag:"at" desc:"world location as x,y,z" default:"0,0,0"`
	Yaw    float64 `flag:"yaw" desc:"yaw in degrees"`
	DryRun bool    `flag:"dry-run" desc:"place without storing the instance state"`
}

// placeResult is the JSON output for place.
type placeResult struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Template    string         `json:"template"`
	Version     int            `json:"instance_version"`
	Level       string         `json:"level"`
	Spawned     int            `json:"spawned"`
	Links       int            `json:"links"`
	Members     []placedMember `json:"members"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
	Stored      bool           `json:"stored"`
}

type placedMember struct {
	Name     string `json:"name"`
	Class    string `json:"class"`
	Location string `json:"location"`
	Rotation string `json:"rotation"`
}

func placeCommand(stdout io.Writer) *cli.Command {
	var params placeParams

	return &cli.Command{
		Name:    "place",
		Summary: "Instantiate a stored template",
		Description: `Place a stored template into a fresh level: spawn a live object for
every archetype at the requested world transform, rewrite references
between them, instance the script sequence, and record the instance's
baseline differences. The resulting instance state is written to the
store so later tools can synchronize it.`,
		Usage: "prefab place [flags] <template>",
		Examples: []cli.Example{
			{
				Description: "Place the Gatehouse at (1000, 500, 0) facing east",
				Command:     "prefab place --at 1000,500,0 --yaw 90 Gatehouse",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("place", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: prefab place [flags] <template>")
			}
			location, err := parseLocation(params.At)
			if err != nil {
				return err
			}
			placement := transform.Transform{
				Location: location,
				Rotation: transform.Rotator{Yaw: degreesToRotator(params.Yaw)},
			}

			session, err := params.openSession("place")
			if err != nil {
				return err
			}
			defer session.Close()
			ctx := context.Background()

			template, unresolved, err := session.store.Template(ctx, args[0], scene.Classes())
			if err != nil {
				return err
			}
			if len(unresolved) > 0 {
				session.logger.Warn("template references objects outside itself", "count", len(unresolved))
			}

			world := scene.NewWorld(scene.Config{Logger: session.logger})
			level, err := world.NewLevel(params.Level)
			if err != nil {
				return err
			}
			registry := prometheus.NewRegistry()
			instance, err := prefab.NewInstance(prefab.Config{
				Host:      world,
				Level:     level,
				Template:  template,
				Name:      params.Name,
				Transform: placement,
				Tolerance: session.config.Tolerance(),
				Logger:    session.logger,
				Metrics:   prefab.NewMetrics(registry),
			})
			if err != nil {
				return err
			}
			report, err := instance.InstancePrefab()
			if err != nil {
				return err
			}
			if err := instance.SaveDifferences(); err != nil {
				return err
			}

			result := placeResult{
				ID:       instance.ID().String(),
				Name:     instance.Name(),
				Template: template.Name(),
				Version:  instance.InstanceVersion(),
				Level:    level.Name(),
				Spawned:  report.Spawned,
				Links:    report.Links,
				Members:  []placedMember{},
			}
			for _, live := range instance.Members().LiveObjects() {
				placed := live.Transform()
				result.Members = append(result.Members, placedMember{
					Name:     live.Name(),
					Class:    live.Class().Name(),
					Location: placed.Location.String(),
					Rotation: placed.Rotation.String(),
				})
			}
			for _, diagnostic := range report.Diagnostics {
				result.Diagnostics = append(result.Diagnostics, diagnostic.String())
			}

			if !params.DryRun {
				if err := session.store.PutInstanceState(ctx, instance.State()); err != nil {
					return err
				}
				result.Stored = true
			}
			logCounters(session.logger, registry)

			if done, err := params.EmitJSON(stdout, result); done {
				return err
			}
			fmt.Fprintf(stdout, "placed %s (%s version %d) in %s: %d spawned, %d links\n",
				result.Name, result.Template, result.Version, result.Level, result.Spawned, result.Links)
			for _, member := range result.Members {
				fmt.Fprintf(stdout, "  %s\t%s at %s %s\n", member.Name, member.Class, member.Location, member.Rotation)
			}
			for _, diagnostic := range result.Diagnostics {
				fmt.Fprintf(stdout, "  warning: %s\n", diagnostic)
			}
			if result.Stored {
				fmt.Fprintf(stdout, "stored as %s\n", result.ID)
			}
			return nil
		},
	}
}

// parseLocation parses "x,y,z".
func parseLocation(text string) (transform.Vector, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return transform.Vector{}, fmt.Errorf("--at: want x,y,z, got %q", text)
	}
	var coordinates [3]float64
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return transform.Vector{}, fmt.Errorf("--at: %w", err)
		}
		coordinates[i] = value
	}
	return transform.Vector{X: coordinates[0], Y: coordinates[1], Z: coordinates[2]}, nil
}

func degreesToRotator(degrees float64) int32 {
	units := math.Round(degrees * transform.FullTurn / 360)
	return int32(math.Remainder(units, transform.FullTurn))
}

// logCounters writes every nonzero counter in registry at debug level.
func logCounters(logger *slog.Logger, registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		logger.Debug("gathering metrics failed", "error", err)
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			counter := metric.GetCounter()
			if counter == nil || counter.GetValue() == 0 {
				continue
			}
			attributes := []any{"metric", family.GetName(), "value", counter.GetValue()}
			for _, label := range metric.GetLabel() {
				attributes = append(attributes, label.GetName(), label.GetValue())
			}
			logger.Debug("counter", attributes...)
		}
	}
}
