package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jpfielding/barch.go/pkg/bmp"
	"github.com/jpfielding/barch.go/pkg/compress/barch"
	"github.com/jpfielding/barch.go/pkg/util"
	"github.com/spf13/cobra"
)

func NewInspectCmd(ctx context.Context, st *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "print bitmap headers or packed stats",
		Long:  "print the headers of a bitmap or the size figures of a barch file, with an md5 and uuid fingerprint of the content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%w: %v", bmp.ErrIO, err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "file:     %s (%d bytes)\n", args[0], len(data))
			fmt.Fprintf(w, "md5:      %s\n", util.Md5ThenHex(data))
			fmt.Fprintf(w, "uuid:     %s\n", util.HashUUID(data))
			if bytes.HasPrefix(data, []byte("BM")) {
				return inspectBitmap(w, data)
			}
			return inspectPacked(w, data, st)
		},
	}
	return cmd
}

func inspectBitmap(w io.Writer, data []byte) error {
	h, err := bmp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "format:   bmp\n")
	fmt.Fprintf(w, "size:     %dx%d, %d bpp, stride %d\n", h.Info.Width, h.Info.Height, h.Info.BitCount, h.Stride())
	fmt.Fprintf(w, "offset:   %d (colors used %d)\n", h.File.OffBits, h.Info.ColorsUsed)
	return nil
}

func inspectPacked(w io.Writer, data []byte, st *settings) error {
	p, err := barch.ReadPacked(bytes.NewReader(data))
	if err != nil {
		return err
	}
	axis, err := barch.ParseAxis(st.cfg.Codec.Axis)
	if err != nil {
		return err
	}
	s := p.Stats()
	fmt.Fprintf(w, "format:   barch\n")
	fmt.Fprintf(w, "size:     %dx%d, %d lines (%d white)\n", p.Width, p.Height, s.Lines, s.Sentinels)
	fmt.Fprintf(w, "payload:  %d bytes, %d encoded, %d raw, ratio %.3f\n", s.PackedBytes, s.EncodedSize, s.RawSize, s.Ratio)
	if err := p.Validate(axis); err != nil {
		fmt.Fprintf(w, "warning:  %v\n", err)
	}
	return nil
}
