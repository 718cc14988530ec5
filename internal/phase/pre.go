// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package phase

import (
	"fmt"
	"os"

	"github.com/pdiddy/rulebook-engine/internal/fsutil"
	"github.com/pdiddy/rulebook-engine/internal/preflight"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// ImagesDirName and PreprocessedDirName are the output subdirectories
// created for every conversion.
const (
	ImagesDirName       = "images"
	PreprocessedDirName = "preprocessed"
	ImageManifestName   = "image-manifest.json"
)

// preflightPhase analyzes the document and gates on extractable text.
type preflightPhase struct{}

func (p *preflightPhase) Number() int            { return 0 }
func (p *preflightPhase) Name() string           { return "pre-flight" }
func (p *preflightPhase) Artifact(string) string { return preflight.MetadataFileName }

func (p *preflightPhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(0, p.Name())

	var rep *preflight.Report
	if !runStep(&pr, "0.1", "analyze document metadata", func() (string, error) {
		var err error
		rep, err = preflight.Analyze(pc.Doc, pc.Config.Preflight)
		if err != nil {
			return "", err
		}
		if err := preflight.Save(pc.OutputDir(), rep); err != nil {
			return "", err
		}
		return preflight.MetadataFileName, nil
	}) {
		return pr
	}

	preflight.Print(pc.Out, rep)

	if err := preflight.Gate(rep, pc.Config.Preflight); err != nil {
		switch {
		case pc.AutoProceed:
			warnStep(&pr, "0.2", "extractable-text gate", err.Error())
		case pc.Confirm("document may be scanned; convert anyway?"):
			warnStep(&pr, "0.2", "extractable-text gate", err.Error())
		default:
			pr.AddStep(types.StepResult{
				ID:          "0.2",
				Description: "extractable-text gate",
				Kind:        types.StepAuto,
				Status:      types.StepError,
				Category:    types.ErrUserAbort,
				Message:     err.Error(),
			})
		}
		return pr
	}
	runStep(&pr, "0.2", "extractable-text gate", func() (string, error) { return "", nil })
	return pr
}

// imagesPhase extracts the document's images and writes the image-free
// preprocessed PDF the text phases read cleanly.
type imagesPhase struct{}

func (p *imagesPhase) Number() int            { return 1 }
func (p *imagesPhase) Name() string           { return "image extraction" }
func (p *imagesPhase) Artifact(string) string { return ImagesDirName + "/" + ImageManifestName }

func (p *imagesPhase) Execute(pc *Context) types.PhaseResult {
	pr := types.NewPhaseResult(1, p.Name())

	imagesDir := pc.Path(ImagesDirName)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		pr.AddStep(types.StepResult{
			ID: "1.1", Description: "create images directory",
			Kind: types.StepAuto, Status: types.StepError, Message: err.Error(),
		})
		return pr
	}

	if err := pc.Doc.ExtractImages(imagesDir); err != nil {
		// A document without extractable images still converts.
		warnStep(&pr, "1.1", "extract images", fmt.Sprintf("image extraction: %v", err))
	} else {
		runStep(&pr, "1.1", "extract images", func() (string, error) { return ImagesDirName, nil })
	}

	if !runStep(&pr, "1.2", "write image manifest", func() (string, error) {
		images, err := pc.Doc.Images()
		if err != nil {
			return "", err
		}
		name := ImagesDirName + "/" + ImageManifestName
		if err := fsutil.AtomicWriteJSON(pc.Path(name), images); err != nil {
			return "", err
		}
		return name, nil
	}) {
		return pr
	}

	if err := os.MkdirAll(pc.Path(PreprocessedDirName), 0o755); err != nil {
		warnStep(&pr, "1.3", "write preprocessed PDF", err.Error())
		return pr
	}
	book := BookName(pc.State.SourcePDF)
	preprocessed := PreprocessedDirName + "/" + book + "-noimages.pdf"
	if err := pc.Doc.WriteWithoutImages(pc.Path(preprocessed)); err != nil {
		// Best effort: text extraction falls back to the original PDF.
		warnStep(&pr, "1.3", "write preprocessed PDF", err.Error())
		return pr
	}
	runStep(&pr, "1.3", "write preprocessed PDF", func() (string, error) { return preprocessed, nil })
	return pr
}
