package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jpfielding/barch.go/pkg/catalog"
	"github.com/spf13/cobra"
)

func NewBatchCmd(ctx context.Context, st *settings) *cobra.Command {
	var mode string
	var workers int
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "convert every file in a directory",
		Long:  "compress every bitmap and decompress every barch file found directly in <dir>; --mode limits the direction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doCompress, doDecompress := true, true
			switch mode {
			case "both":
			case "compress":
				doDecompress = false
			case "decompress":
				doCompress = false
			default:
				return fmt.Errorf("unknown mode %q (compress|decompress|both)", mode)
			}
			opts, err := st.convertOptions()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = st.cfg.Catalog.Workers
			}
			cat, err := catalog.Open(args[0], catalog.Options{
				BitmapExt: st.cfg.Catalog.BitmapExt,
				PackedExt: st.cfg.Catalog.CompressedExt,
			})
			if err != nil {
				return err
			}
			d := catalog.NewDispatcher(cat, workers, opts)

			var skipped int
			for _, e := range cat.Entries() {
				var err error
				switch {
				case e.Status == catalog.NotCompressed && doCompress:
					_, err = d.Compress(ctx, e.Path)
				case e.Status == catalog.Compressed && doDecompress:
					_, err = d.Decompress(ctx, e.Path)
				default:
					continue
				}
				if err != nil {
					skipped++
					slog.WarnContext(ctx, "skipped", "file", e.Name, "error", err)
				}
			}

			var errs []error
			results := d.Wait()
			for _, r := range results {
				if r.Err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", r.Entry.Name, r.Err))
				}
			}
			slog.InfoContext(ctx, "batch done", "dir", cat.Dir(), "jobs", len(results), "failed", len(errs), "skipped", skipped)
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "both", "direction: compress, decompress or both")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent conversions")
	return cmd
}
