// Command flatten renders a saved composition against its base photo and
// writes the flattened image, without opening the editor.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"overlay-studio/internal/export"
	"overlay-studio/internal/render"
	"overlay-studio/internal/scene"
	"overlay-studio/internal/session"
	"overlay-studio/internal/template"
)

func main() {
	projectPath := flag.String("project", "", "Path to a saved .overlay.json composition")
	photoPath := flag.String("photo", "", "Path to the base photo")
	outPath := flag.String("out", "", "Output file (.png or .jpg); defaults to <photo>-overlay.png")
	quality := flag.Float64("quality", 0.92, "JPEG quality, 0..1")
	templatesDir := flag.String("templates", "", "Directory to resolve template sources against")
	flag.Parse()

	if *projectPath == "" || *photoPath == "" {
		fmt.Println("Usage: flatten -project <path> -photo <path> [-out <path>] [-quality 0.92]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*projectPath)
	if err != nil {
		fatalf("Failed to read project: %v", err)
	}
	var proj session.ProjectFile
	if err := json.Unmarshal(data, &proj); err != nil {
		fatalf("Failed to parse project: %v", err)
	}
	if proj.Width <= 0 || proj.Height <= 0 {
		fatalf("Invalid canvas size %dx%d", proj.Width, proj.Height)
	}

	f, err := os.Open(*photoPath)
	if err != nil {
		fatalf("Failed to open photo: %v", err)
	}
	base, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		fatalf("Failed to decode photo: %v", err)
	}
	fmt.Printf("Loaded %s photo: %dx%d pixels\n", format, base.Bounds().Dx(), base.Bounds().Dy())

	s := scene.New(proj.BaseName, proj.Width, proj.Height)
	s.Restore(proj.Layers)
	fmt.Printf("Composition: %d layer(s) on a %dx%d canvas\n", len(s.Layers), s.Width, s.Height)

	// Relative template sources are resolved against -templates, then
	// against the project file's directory.
	library := template.NewLibrary()
	resolver := render.ResolverFunc(func(source string) (image.Image, error) {
		img, err := library.Resolve(source)
		if err == nil || filepath.IsAbs(source) {
			return img, err
		}
		for _, dir := range []string{*templatesDir, filepath.Dir(*projectPath)} {
			if dir == "" {
				continue
			}
			if img, err2 := library.Resolve(filepath.Join(dir, source)); err2 == nil {
				return img, nil
			}
		}
		return nil, err
	})

	out := *outPath
	if out == "" {
		stem := strings.TrimSuffix(*photoPath, filepath.Ext(*photoPath))
		out = stem + "-overlay.png"
	}
	outFormat := export.FormatPNG
	switch strings.ToLower(filepath.Ext(out)) {
	case ".jpg", ".jpeg":
		outFormat = export.FormatJPEG
	}

	exporter := export.New(render.New(render.NewCache(resolver)))
	artifact, err := exporter.Export(s, base, outFormat, *quality)
	if err != nil {
		fatalf("Export failed: %v", err)
	}
	defer artifact.Release()

	if err := os.WriteFile(out, artifact.Blob, 0o644); err != nil {
		fatalf("Failed to write output: %v", err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", out, len(artifact.Blob))
	if len(artifact.Skipped) > 0 {
		fmt.Printf("Skipped %d layer(s) with unresolvable sources:\n", len(artifact.Skipped))
		for _, src := range artifact.Skipped {
			fmt.Printf("  %s\n", src)
		}
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
