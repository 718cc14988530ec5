// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// bundleCandidates are the output-directory files worth shipping in a
// diagnostics bundle, when present.
var bundleCandidates = []string{
	".state.json",
	"metadata.json",
	"font-family-mapping.json",
	"footer_config.json",
	"icon_config.json",
	"callout_config.json",
	"toc-extracted.txt",
	ReportFileName,
	CompletionFileName,
}

// WriteBundle zips the conversion's state, configs, and reports plus the
// invoking command line into dir/diagnostic-bundle.zip. Missing candidate
// files are skipped. Returns the files actually bundled.
func WriteBundle(dir string, args []string) ([]string, error) {
	path := filepath.Join(dir, BundleFileName)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	var bundled []string

	for _, name := range bundleCandidates {
		src := filepath.Join(dir, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := addFile(zw, src, name); err != nil {
			zw.Close()
			return nil, err
		}
		bundled = append(bundled, name)
	}

	w, err := zw.Create("args.txt")
	if err != nil {
		zw.Close()
		return nil, fmt.Errorf("adding args.txt: %w", err)
	}
	if _, err := io.WriteString(w, strings.Join(args, " ")+"\n"); err != nil {
		zw.Close()
		return nil, fmt.Errorf("writing args.txt: %w", err)
	}
	bundled = append(bundled, "args.txt")

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing bundle: %w", err)
	}
	return bundled, nil
}

func addFile(zw *zip.Writer, src, name string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %s to bundle: %w", name, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("copying %s into bundle: %w", name, err)
	}
	return nil
}
