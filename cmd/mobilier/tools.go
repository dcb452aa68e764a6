package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/erazemk/mobilier/internal/export"
	"github.com/erazemk/mobilier/internal/fieldwork"
	"github.com/erazemk/mobilier/internal/geo"
	"github.com/erazemk/mobilier/internal/imaging"
	"github.com/erazemk/mobilier/internal/model"
	"github.com/erazemk/mobilier/internal/stats"
	"github.com/erazemk/mobilier/internal/store"
)

func nearbyCmd() *cobra.Command {
	var lat, lng, radius float64
	var typeLabel string

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List records around a coordinate",
		Long: `List the records within --radius meters of --lat/--lng, in store order.
With --type only records of exactly that type are listed, which is the
duplicate check run when a field agent submits a new record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			at := geo.Point{Lat: lat, Lng: lng}
			if !cmd.Flags().Changed("lat") {
				at = e.cfg.Fallback()
			}
			if !at.Valid() {
				return fmt.Errorf("%w: %v, %v", model.ErrInvalidCoordinates, lat, lng)
			}
			if !cmd.Flags().Changed("radius") {
				radius = e.cfg.Geo.EditRadius
				if typeLabel != "" {
					radius = e.cfg.Geo.DuplicateRadius
				}
			}

			board := fieldwork.NewBoard(store.Source{DB: e.db}, e.cfg.Board())
			items, err := board.Nearby(cmd.Context(), at, radius)
			if err != nil {
				return err
			}
			if typeLabel != "" {
				if kt, ok := model.LookupType(typeLabel); ok {
					typeLabel = kt.Label
				}
				items = geo.FindPotentialDuplicates(items, at, typeLabel, radius)
			}

			printRecords(cmd.OutOrStdout(), items, at)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude (default: geo.fallback_lat)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude (default: geo.fallback_lng)")
	cmd.Flags().Float64VarP(&radius, "radius", "r", 0, "radius in meters (default: geo.edit_radius, or geo.duplicate_radius with --type)")
	cmd.Flags().StringVarP(&typeLabel, "type", "t", "", "only records of this exact type, or a catalogue id such as bench")
	cmd.MarkFlagsRequiredTogether("lat", "lng")
	return cmd
}

func watchCmd() *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a stream of positions and print the editable records",
		Long: `Read "lat,lng" lines from stdin (blank lines and # comments are skipped)
and print the records within the edit radius after each position.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			board := fieldwork.NewBoard(store.Source{DB: e.db}, e.cfg.Board())
			feed := geo.NewFeed()
			fixes, unsubscribe := feed.Subscribe(16)
			defer unsubscribe()

			scanErr := make(chan error, 1)
			go func() {
				scanErr <- geo.ScanFixes(cmd.Context(), cmd.InOrStdin(), feed)
				feed.Close()
			}()

			out := cmd.OutOrStdout()
			err = board.Follow(cmd.Context(), agent, fixes, func(p geo.Point, nearby []model.Furniture) {
				fmt.Fprintf(out, "%s %.6f, %.6f\n", color.New(color.Bold).Sprint("@"), p.Lat, p.Lng)
				printRecords(out, nearby, p)
			})
			if err != nil {
				return err
			}
			return <-scanErr
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "cli", "agent name the positions are recorded for")
	return cmd
}

func exportCmd() *cobra.Command {
	var output string
	var filter store.Filter

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the census as semicolon separated CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if cmd.Flags().Changed("processed") {
				processed, _ := cmd.Flags().GetBool("processed")
				filter.Processed = &processed
			}

			items, err := store.ListFurniture(cmd.Context(), e.db, filter)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				if output == "." {
					output = export.FileName(time.Now())
				}
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating export file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := export.WriteCSV(w, items, time.Local); err != nil {
				return err
			}
			if output != "" {
				slog.Info("export written", "path", output, "records", len(items))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "." for the dated default name (default: stdout)`)
	cmd.Flags().StringVar(&filter.Category, "category", "", "only this category")
	cmd.Flags().StringVar(&filter.State, "state", "", "only this state")
	cmd.Flags().StringVar(&filter.Manager, "manager", "", "only this manager")
	cmd.Flags().StringVar(&filter.Agent, "agent", "", "only records by this agent")
	cmd.Flags().Bool("processed", false, "only records office validation completed (or, with =false, still pending)")
	return cmd
}

func statsCmd() *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print census counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			items, err := store.ListFurniture(cmd.Context(), e.db, store.Filter{Agent: agent})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if agent != "" {
				p := stats.NewProfile(agent, items)
				fmt.Fprintf(out, "Agent %s: %d records, %d with photo, %s urgent, %d to watch\n",
					p.Agent, p.Total, p.WithPhoto, color.New(color.FgRed).Sprint(p.Urgent), p.ToWatch)
				printCounts(out, "State", p.ByState, model.StateLabels)
				printCounts(out, "Manager", p.ByManager, model.ManagerLabels)
				return nil
			}

			d := stats.NewDashboard(items)
			fmt.Fprintf(out, "Total %d, %s, %s, %d processed\n", d.Total,
				color.New(color.FgRed).Sprintf("%d dangerous", d.Dangerous),
				color.New(color.FgGreen).Sprintf("%d good", d.Good), d.Processed)
			printCounts(out, "State", d.ByState, model.StateLabels)
			printCounts(out, "Category", d.ByCategory, model.CategoryLabels)
			printCounts(out, "Manager", d.ByManager, model.ManagerLabels)
			printCounts(out, "Criticality", d.ByCriticality, model.CriticalityLabels)
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "show one agent's profile instead of the dashboard")
	return cmd
}

func importCmd() *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Upsert records from a JSON array",
		Long: `Import records exported by the field app. Records with no id or a
temporary id (anything but a stored integer id) are created; others
update the stored record.
Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			var records []model.Furniture
			if err := json.NewDecoder(r).Decode(&records); err != nil {
				return fmt.Errorf("decoding import file: %w", err)
			}

			board := fieldwork.NewBoard(store.Source{DB: e.db}, e.cfg.Board())
			res, err := importRecords(cmd.Context(), e.db, board, records, agent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s created, %s updated, %s flagged as possible duplicates\n",
				color.New(color.FgGreen).Sprint(res.created),
				color.New(color.FgBlue).Sprint(res.updated),
				color.New(color.FgYellow).Sprint(res.duplicates))
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent recorded on imported records without one")
	return cmd
}

type importResult struct {
	created, updated, duplicates int
}

func importRecords(ctx context.Context, db *sql.DB, board *fieldwork.Board, records []model.Furniture, agent string) (importResult, error) {
	var res importResult
	for i, f := range records {
		if f.Agent == "" {
			f.Agent = agent
		}
		f.ApplyDefaults()
		if err := f.Validate(); err != nil {
			return res, fmt.Errorf("record %d: %w", i+1, err)
		}
		if f.Photo != "" {
			photo, err := imaging.NormalizeDataURI(f.Photo)
			if err != nil {
				return res, fmt.Errorf("record %d: %w", i+1, err)
			}
			f.Photo = photo
		}

		stored, created, err := store.UpsertFurniture(ctx, db, f)
		if err != nil {
			return res, fmt.Errorf("record %d: %w", i+1, err)
		}
		if !created {
			res.updated++
			continue
		}
		res.created++

		dups, err := board.Duplicates(ctx, *stored)
		if err != nil {
			return res, err
		}
		if len(dups) > 0 {
			res.duplicates++
			slog.Warn("possible duplicate", "id", stored.ID, "type", stored.Type, "matches", len(dups))
		}
	}
	return res, nil
}

func printRecords(w io.Writer, items []model.Furniture, at geo.Point) {
	if len(items) == 0 {
		fmt.Fprintln(w, color.New(color.Faint).Sprint("  (nothing in range)"))
		return
	}
	for _, f := range items {
		fmt.Fprintf(w, "  %-6s %-28s %s %6.1f m  %s\n",
			f.ID, f.Type, stateColor(f.State).Sprintf("%-10s", f.State),
			geo.Distance(at, f.Position()), f.Agent)
	}
}

func stateColor(state string) *color.Color {
	switch state {
	case model.StateNew, model.StateCorrect:
		return color.New(color.FgGreen)
	case model.StateDamaged:
		return color.New(color.FgYellow)
	case model.StateDangerous:
		return color.New(color.FgRed, color.Bold)
	}
	return color.New(color.Reset)
}

func printCounts(w io.Writer, title string, counts map[string]int, labels map[string]string) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s:\n", color.New(color.Bold).Sprint(title))
	for _, k := range keys {
		fmt.Fprintf(w, "  %-40s %d\n", model.Label(labels, k), counts[k])
	}
}
