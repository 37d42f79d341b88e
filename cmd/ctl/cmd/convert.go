package cmd

import (
	"context"
	"log/slog"

	"github.com/jpfielding/barch.go/pkg/compress/barch"
	"github.com/jpfielding/barch.go/pkg/convert"
	"github.com/spf13/cobra"
)

func NewCompressCmd(ctx context.Context, st *settings) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "compress <in.bmp>",
		Short: "pack an 8-bit bitmap",
		Long:  "pack an 8-bit bottom-up bitmap into a barch file, written to <in>" + barch.Extension + " unless -o is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := st.convertOptions()
			if err != nil {
				return err
			}
			in := args[0]
			dst := out
			if dst == "" {
				dst = in + st.cfg.Catalog.CompressedExt
			}
			if err := convert.Compress(ctx, in, dst, opts); err != nil {
				return err
			}
			slog.InfoContext(ctx, "compressed", "in", in, "out", dst)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

func NewDecompressCmd(ctx context.Context, st *settings) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "decompress <in.barch>",
		Short: "unpack a barch file into a bitmap",
		Long:  "unpack a barch file into an 8-bit bitmap, written to <in>.bmp unless -o is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := st.convertOptions()
			if err != nil {
				return err
			}
			in := args[0]
			dst := out
			if dst == "" {
				dst = in + st.cfg.Catalog.BitmapExt
			}
			if err := convert.Decompress(ctx, in, dst, opts); err != nil {
				return err
			}
			slog.InfoContext(ctx, "decompressed", "in", in, "out", dst)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}
