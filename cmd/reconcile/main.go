package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robzajac581/glowra-search-api-sub002/internal/config"
	"github.com/robzajac581/glowra-search-api-sub002/internal/correct"
	"github.com/robzajac581/glowra-search-api-sub002/internal/ingest"
	"github.com/robzajac581/glowra-search-api-sub002/internal/logging"
	"github.com/robzajac581/glowra-search-api-sub002/internal/match"
	"github.com/robzajac581/glowra-search-api-sub002/internal/places"
	"github.com/robzajac581/glowra-search-api-sub002/internal/report"
	"github.com/robzajac581/glowra-search-api-sub002/internal/store"
)

var log *zap.Logger

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load environment: %v\n", err)
		os.Exit(1)
	}

	var err error
	log, err = logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Glowra clinic reconciliation engine",
		Long:  `Reconciles externally sourced clinic rows against the canonical clinic set: fuzzy matching, review reports, and human-confirmed corrections.`,
	}

	rootCmd.AddCommand(createMatchCmd())
	rootCmd.AddCommand(createApplyCorrectionsCmd())
	rootCmd.AddCommand(createEnrichCmd())
	rootCmd.AddCommand(createLookupCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func createMatchCmd() *cobra.Command {
	var (
		sourcesFile string
		reportDir   string
		label       string
		enrich      bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run one reconciliation pass and write a review report",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			started := time.Now()

			sources, err := ingest.NewLoader(log).Load(sourcesFile)
			if err != nil {
				log.Fatal("failed to load sources", zap.Error(err))
			}

			if enrich {
				enricher := places.NewEnricher(places.NewClient(log), log)
				if _, err := enricher.Enrich(ctx, sources); err != nil {
					log.Fatal("enrichment aborted", zap.Error(err))
				}
			}

			st, err := store.Open(log)
			if err != nil {
				log.Fatal("failed to connect to store", zap.Error(err))
			}
			defer st.Close()

			clinics, err := st.LoadClinics(ctx)
			if err != nil {
				log.Fatal("failed to load clinics", zap.Error(err))
			}

			classifier := match.NewClassifier(config.DefaultThresholds(), log)
			decisions, skipped := classifier.Classify(sources, clinics)

			path, err := report.NewWriter(reportDir, log).Write(decisions)
			if err != nil {
				log.Fatal("failed to write report", zap.Error(err))
			}

			runID, err := st.CreateRun(ctx, uuid.NewString(), label)
			if err != nil {
				log.Fatal("failed to create run record", zap.Error(err))
			}
			if err := st.SaveDecisions(ctx, runID, decisions); err != nil {
				log.Fatal("failed to persist decisions", zap.Error(err))
			}

			matched := 0
			for _, d := range decisions {
				if d.Matched {
					matched++
				}
			}

			fmt.Printf("Scanned %d source rows against %d clinics in %v\n",
				len(sources), len(clinics), time.Since(started).Round(time.Millisecond))
			fmt.Printf("  already linked: %d\n", skipped)
			fmt.Printf("  duplicates:     %d\n", matched)
			fmt.Printf("  new clinics:    %d\n", len(decisions)-matched)
			fmt.Printf("Report written to %s\n", path)
		},
	}

	cmd.Flags().StringVar(&sourcesFile, "sources", "", "CSV export of source clinic rows (required)")
	cmd.Flags().StringVar(&reportDir, "reports", "reports", "directory for review report artifacts")
	cmd.Flags().StringVar(&label, "label", "", "label recorded on the run row")
	cmd.Flags().BoolVar(&enrich, "enrich", false, "resolve missing coordinates from the places provider first")
	cmd.MarkFlagRequired("sources")

	return cmd
}

func createApplyCorrectionsCmd() *cobra.Command {
	var (
		inputFile   string
		sourcesFile string
	)

	cmd := &cobra.Command{
		Use:   "apply-corrections",
		Short: "Reverse reviewer-confirmed wrong matches and re-create them as new clinics",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			input, err := report.ReadCorrections(inputFile)
			if err != nil {
				log.Fatal("failed to read correction input", zap.Error(err))
			}
			if len(input.DefinitelyWrong) == 0 {
				fmt.Println("No corrections to apply.")
				return
			}

			sources, err := ingest.NewLoader(log).Load(sourcesFile)
			if err != nil {
				log.Fatal("failed to load sources", zap.Error(err))
			}

			actions, err := buildActions(input, sources)
			if err != nil {
				log.Fatal("failed to resolve corrections against sources", zap.Error(err))
			}

			st, err := store.Open(log)
			if err != nil {
				log.Fatal("failed to connect to store", zap.Error(err))
			}
			defer st.Close()

			alloc, err := store.NewIDAllocator(ctx, st)
			if err != nil {
				log.Fatal("failed to seed id allocator", zap.Error(err))
			}

			batchID := uuid.NewString()
			results := correct.NewApplier(st, alloc, batchID, log).Apply(ctx, actions)

			complete, created, failed := 0, 0, 0
			for _, r := range results {
				switch r.State {
				case correct.StateComplete:
					complete++
					fmt.Printf("  clinic %d -> %d (%s)\n", r.Action.WrongClinicID, r.NewClinicID, r.Action.Source.Name)
				case correct.StateCreated:
					created++
					fmt.Printf("  clinic %d -> %d (%s) NEEDS MANUAL FOLLOW-UP: %v\n",
						r.Action.WrongClinicID, r.NewClinicID, r.Action.Source.Name, r.Err)
				default:
					failed++
					fmt.Printf("  clinic %d FAILED: %v\n", r.Action.WrongClinicID, r.Err)
				}
			}

			fmt.Printf("Batch %s: %d complete, %d need follow-up, %d failed\n", batchID, complete, created, failed)
		},
	}

	cmd.Flags().StringVar(&inputFile, "input", "", "correction input artifact from the reviewer (required)")
	cmd.Flags().StringVar(&sourcesFile, "sources", "", "the CSV export the matching run was made from (required)")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("sources")

	return cmd
}

// buildActions resolves each confirmed-wrong entry back to its source row.
// The source index must reference the same CSV export the matching run
// used; a name mismatch aborts rather than re-creating the wrong clinic.
func buildActions(input *report.CorrectionInput, sources []match.Source) ([]correct.Action, error) {
	actions := make([]correct.Action, 0, len(input.DefinitelyWrong))

	for _, wm := range input.DefinitelyWrong {
		if wm.SourceRecord < 0 || wm.SourceRecord >= len(sources) {
			return nil, fmt.Errorf("correction references source row %d, but only %d rows loaded", wm.SourceRecord, len(sources))
		}
		src := sources[wm.SourceRecord]
		if wm.SourceName != "" && src.Name != wm.SourceName {
			return nil, fmt.Errorf("source row %d is %q, correction says %q: wrong export?", wm.SourceRecord, src.Name, wm.SourceName)
		}

		actions = append(actions, correct.Action{
			Source:        src,
			PlaceID:       src.PlaceID,
			WrongClinicID: wm.WrongTargetID,
		})
	}

	return actions, nil
}

func createEnrichCmd() *cobra.Command {
	var sourcesFile string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Resolve missing coordinates for a source export",
		Run: func(cmd *cobra.Command, args []string) {
			sources, err := ingest.NewLoader(log).Load(sourcesFile)
			if err != nil {
				log.Fatal("failed to load sources", zap.Error(err))
			}

			enricher := places.NewEnricher(places.NewClient(log), log)
			enriched, err := enricher.Enrich(context.Background(), sources)
			if err != nil {
				log.Fatal("enrichment aborted", zap.Error(err))
			}

			fmt.Printf("Enriched %d of %d rows\n", enriched, len(sources))
		},
	}

	cmd.Flags().StringVar(&sourcesFile, "sources", "", "CSV export of source clinic rows (required)")
	cmd.MarkFlagRequired("sources")

	return cmd
}

func createLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <query>",
		Short: "Search the places provider by free text",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			results, err := places.NewClient(log).SearchText(context.Background(), args[0])
			if err != nil {
				log.Fatal("search failed", zap.Error(err))
			}

			for _, p := range results {
				fmt.Printf("%-30s %s (%s)\n", p.Name, p.Address, p.PlaceID)
			}
			fmt.Printf("%d places\n", len(results))
		},
	}
}

func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test store connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			st, err := store.Open(log)
			if err != nil {
				log.Fatal("failed to connect to store", zap.Error(err))
			}
			defer st.Close()

			count, err := st.CountClinics(context.Background())
			if err != nil {
				log.Fatal("failed to count clinics", zap.Error(err))
			}

			fmt.Println("Store connection successful!")
			fmt.Printf("Clinics loaded: %d\n", count)
		},
	}
}
