package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/himanishpuri/SoundAlike/internal/audio"
	"github.com/himanishpuri/SoundAlike/pkg/logger"
	"github.com/himanishpuri/SoundAlike/pkg/models"
	"github.com/himanishpuri/SoundAlike/pkg/soundalike"
	"github.com/himanishpuri/SoundAlike/pkg/utils"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// expandPaths turns directory arguments into the audio files beneath them.
func expandPaths(args []string) ([]string, error) {
	formats := audio.NewLoader().Formats()
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := utils.ListFiles(arg, formats)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

func printFailures(w io.Writer, failures []*models.Failure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\n⚠️  %d file(s) skipped:\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "   %s: %v\n", f.Path, f.Kind)
	}
}

func printResults(w io.Writer, results []soundalike.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "\n📭 No candidates to rank")
		return
	}
	fmt.Fprintf(w, "\n🎯 Top %d match(es):\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(w, "%d. %-40s %6.2f%%\n", i+1, r.Name, r.Score*100)
	}
}

func newGenerateCmd() *cobra.Command {
	var store bool

	cmd := &cobra.Command{
		Use:   "generate <audio_file>",
		Short: "Fingerprint one file and print the record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			var rec *models.Record
			if store {
				var key string
				key, rec, err = svc.Add(cmd.Context(), args[0])
				if err == nil {
					logger.Infof("Stored %s as %q", args[0], key)
				}
			} else {
				rec, err = svc.Generate(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().BoolVar(&store, "store", false, "Also upsert the fingerprint into the catalogue")
	return cmd
}

func newIndexCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "index <dir|file>...",
		Short: "Fingerprint files (recursing into directories) and store them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPaths(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "📭 No supported audio files found")
				return nil
			}

			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			var progress soundalike.Progress
			if !quiet {
				bar := progressbar.NewOptions(len(paths),
					progressbar.OptionSetDescription("Fingerprinting"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(50),
					progressbar.OptionShowIts(),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				)
				defer bar.Finish()
				progress = func(done, total int, path string, err error) {
					bar.Add(1)
				}
			}

			start := time.Now()
			report, err := svc.Index(cmd.Context(), paths, progress)
			if report != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Indexed %s file(s) in %s\n",
					humanize.Comma(int64(report.Succeeded())), time.Since(start).Round(time.Millisecond))
				printFailures(cmd.OutOrStdout(), report.Failures)
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare <audio_a> <audio_b>",
		Short: "Score the similarity of two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			a, err := svc.Generate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			b, err := svc.Generate(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			bd, err := svc.Compare(a, b)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, bd)
			}
			fmt.Fprintf(out, "\n🔍 %s vs %s\n\n", filepath.Base(args[0]), filepath.Base(args[1]))
			fmt.Fprintf(out, "   MFCC:                %.4f\n", bd.MFCC)
			fmt.Fprintf(out, "   Chroma:              %.4f\n", bd.Chroma)
			fmt.Fprintf(out, "   Spectral centroid:   %.4f\n", bd.Centroid)
			fmt.Fprintf(out, "   Spectral rolloff:    %.4f\n", bd.Rolloff)
			fmt.Fprintf(out, "   Harmonic/percussive: %.4f\n", bd.HarmonicPercussive)
			fmt.Fprintf(out, "   Perceptual hashes:   %.4f\n", bd.Hash)
			fmt.Fprintf(out, "\n   Similarity:          %.2f%%\n", bd.Total*100)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the breakdown as JSON")
	return cmd
}

func newRankCmd() *cobra.Command {
	var (
		dir    string
		topK   int
		asJSON bool
		store  bool
	)

	cmd := &cobra.Command{
		Use:   "rank <query_file>",
		Short: "Rank the catalogue (or a folder with --dir) by similarity to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if store && dir == "" {
				return fmt.Errorf("--store only applies to --dir rankings")
			}
			svc, err := createService(soundalike.WithStoreRanked(store))
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			var results []soundalike.Result
			var failures []*models.Failure
			if dir != "" {
				results, failures, err = rankFolder(cmd.Context(), cmd.ErrOrStderr(), svc, args[0], dir, topK, asJSON)
			} else {
				var query *models.Record
				query, err = svc.Generate(cmd.Context(), args[0])
				if err == nil {
					results, err = svc.RankCatalogue(cmd.Context(), query, topK)
				}
			}
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			printResults(cmd.OutOrStdout(), results)
			printFailures(cmd.OutOrStdout(), failures)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Fingerprint every audio file in this folder instead of using the catalogue")
	cmd.Flags().IntVarP(&topK, "top", "k", soundalike.DefaultTopK, "Number of matches to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&store, "store", false, "With --dir, also add the query and every folder file to the catalogue")
	return cmd
}

func rankFolder(ctx context.Context, w io.Writer, svc soundalike.Service, query, dir string, topK int, quiet bool) ([]soundalike.Result, []*models.Failure, error) {
	paths, err := expandPaths([]string{dir})
	if err != nil {
		return nil, nil, err
	}

	var progress soundalike.Progress
	var p *mpb.Progress
	var bar *mpb.Bar
	if !quiet && len(paths) > 0 {
		p = mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(w))
		bar = p.AddBar(int64(len(paths)),
			mpb.PrependDecorators(
				decor.Name("Fingerprinting: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.AverageETA(decor.ET_STYLE_GO),
			),
		)
		progress = func(done, total int, path string, err error) {
			bar.Increment()
		}
	}

	results, failures, err := svc.RankPaths(ctx, query, paths, topK, progress)
	if p != nil {
		// a failed query never advances the bar
		if !bar.Completed() {
			bar.Abort(false)
		}
		p.Wait()
	}
	return results, failures, err
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalogue keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			keys, err := svc.List()
			if err != nil {
				return fmt.Errorf("failed to list fingerprints: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "\n📭 No fingerprints in catalogue")
				return nil
			}

			fmt.Fprintf(out, "\n📚 Found %s fingerprint(s):\n\n", humanize.Comma(int64(len(keys))))
			for i, key := range keys {
				fmt.Fprintf(out, "%d. %s\n", i+1, key)
			}

			path := resolveCataloguePath(currentBackend())
			if size, err := diskUsage(path); err == nil {
				fmt.Fprintf(out, "\n💾 %s on disk at %s\n", humanize.Bytes(uint64(size)), path)
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a fingerprint from the catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer svc.Close()

			if err := svc.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Successfully deleted %s\n", args[0])
			return nil
		},
	}
}

// diskUsage sums regular file sizes under path (a file or a directory).
func diskUsage(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	files, err := utils.ListFiles(path, nil)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, f := range files {
		if fi, err := os.Stat(f); err == nil {
			total += fi.Size()
		}
	}
	return total, nil
}
