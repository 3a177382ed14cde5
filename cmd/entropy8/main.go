// entropy8 is the command-line tool for .e8 archives: create, list, extract.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	entropy8 "github.com/ATG-code/Entropy8"
)

var (
	password  string
	codecName string
	level     int
	outputDir string
)

func main() {
	root := &cobra.Command{
		Use:           "entropy8",
		Short:         "create, list and extract Entropy8 (.e8) archives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&password, "password", "p", "", "encrypt/decrypt the archive with this password")

	root.AddCommand(createCommand())
	root.AddCommand(listCommand())
	root.AddCommand(extractCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "entropy8:", err)
		os.Exit(1)
	}
}

func createCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create archive.e8 file...",
		Short: "create an archive from files",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCreate,
	}
	cmd.Flags().StringVarP(&codecName, "codec", "c", "zstd", "codec: store, lz4, lzma or zstd")
	cmd.Flags().IntVarP(&level, "level", "l", entropy8.DefaultLevel, "compression level")
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	cv := entropy8.FindCodec(codecName)
	if cv == nil {
		return fmt.Errorf("unknown codec %q", codecName)
	}

	out, err := os.Create(args[0])
	if err != nil {
		return err
	}
	stream, err := entropy8.NewFileStream(out)
	if err != nil {
		return err
	}

	ar, err := entropy8.Create(stream, password)
	if err != nil {
		stream.Destroy()
		return err
	}

	var items []entropy8.AddItem
	var open []*os.File
	defer func() {
		for _, f := range open {
			f.Close()
		}
	}()

	added := 0
	for _, path := range args[1:] {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			fmt.Fprintf(os.Stderr, "skip (not file): %s\n", path)
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		open = append(open, f)
		content, err := entropy8.NewFileStream(f)
		if err != nil {
			return err
		}
		items = append(items, entropy8.AddItem{
			Path:    info.Name(),
			Content: content,
			Codec:   cv.ID,
			Level:   level,
		})
		added++
	}

	if err := ar.AddAll(items, nil); err != nil {
		ar.Close()
		return err
	}
	if err := ar.Close(); err != nil {
		return err
	}
	fmt.Printf("Created %s with %d file(s).\n", args[0], added)
	return nil
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list archive.e8",
		Short: "list archive entries",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	ar, err := openArchive(args[0])
	if err != nil {
		return err
	}
	defer ar.Close()

	n := ar.Count()
	fmt.Printf("Entries: %d\n", n)
	for i := 0; i < n; i++ {
		e, err := ar.Entry(i)
		if err != nil {
			return err
		}
		fmt.Printf("  %s  (%d bytes, %s)\n", e.Path, e.UncompressedSize, e.Codec)
	}
	return nil
}

func extractCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract archive.e8",
		Short: "extract all entries",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "output directory")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	ar, err := openArchive(args[0])
	if err != nil {
		return err
	}
	defer ar.Close()

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	for i := 0; i < ar.Count(); i++ {
		e, err := ar.Entry(i)
		if err != nil {
			return err
		}
		// Entry paths are flattened to their base name so a hostile archive
		// cannot escape the output directory.
		dst, err := os.Create(safeJoin(outputDir, e.Path))
		if err != nil {
			return err
		}
		out, err := entropy8.NewFileStream(dst)
		if err != nil {
			dst.Close()
			return err
		}
		extractErr := ar.Extract(i, out, nil)
		out.Destroy()
		if extractErr != nil {
			return extractErr
		}
		fmt.Printf("  %s\n", e.Path)
	}
	return nil
}

func safeJoin(dir, name string) string {
	return filepath.Join(dir, filepath.Base(name))
}

func openArchive(path string) (*entropy8.Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stream, err := entropy8.NewFileStream(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	ar, err := entropy8.Open(stream, password)
	if err != nil {
		stream.Destroy()
		return nil, err
	}
	return ar, nil
}
