// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfio

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/rulebook-engine/pkg/types"
)

// Outline returns the flattened document outline. Page targets come from
// pdfcpu's bookmark reader; when the document has outline titles but no
// resolvable destinations, entries carry page 0.
func (d *fileDocument) Outline() ([]OutlineEntry, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, types.NewError(types.ErrFile, err, "reopening %s for outline", d.path)
	}
	defer f.Close()

	bms, err := api.Bookmarks(f, model.NewDefaultConfiguration())
	if err != nil || len(bms) == 0 {
		// Fall back to the raw outline tree: titles without page targets.
		return d.outlineTitles(), nil
	}

	var entries []OutlineEntry
	flattenBookmarks(bms, 1, &entries)
	return entries, nil
}

// flattenBookmarks walks the bookmark tree depth-first.
func flattenBookmarks(bms []pdfcpu.Bookmark, level int, out *[]OutlineEntry) {
	for _, bm := range bms {
		title := strings.TrimSpace(bm.Title)
		if title != "" {
			*out = append(*out, OutlineEntry{Level: level, Title: title, Page: bm.PageFrom})
		}
		if len(bm.Kids) > 0 {
			flattenBookmarks(bm.Kids, level+1, out)
		}
	}
}

// Images lists placed images across the document: object number and pixel
// dimensions from the XObject, placement rect recovered best-effort from
// the page content stream.
func (d *fileDocument) Images() ([]ImageInfo, error) {
	ctx, err := api.ReadContextFile(d.path)
	if err != nil {
		return nil, types.NewError(types.ErrPDF, err, "reading %s for image census", d.path)
	}

	var infos []ImageInfo
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		placements := pagePlacements(ctx, pageNr)
		for _, objNr := range pdfcpu.ImageObjNrs(ctx, pageNr) {
			info := ImageInfo{Page: pageNr, ObjNr: objNr}
			if entry, ok := ctx.Table[objNr]; ok && entry != nil {
				if sd, ok := entry.Object.(pdftypes.StreamDict); ok {
					if w := sd.IntEntry("Width"); w != nil {
						info.Width = *w
					}
					if h := sd.IntEntry("Height"); h != nil {
						info.Height = *h
					}
				}
			}
			if p, ok := placements[objNr]; ok {
				info.Name = p.name
				r := p.rect
				info.Rect = &r
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// ExtractImages writes every document image into outDir using pdfcpu's
// image extractor.
func (d *fileDocument) ExtractImages(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return types.NewError(types.ErrFile, err, "creating image directory %s", outDir)
	}
	if err := api.ExtractImagesFile(d.path, outDir, nil, model.NewDefaultConfiguration()); err != nil {
		return types.NewError(types.ErrPDF, err, "extracting images from %s", d.path)
	}
	return nil
}

// WriteWithoutImages writes a copy of the document with an opaque white
// rectangle drawn over every recovered image placement. Images whose
// placement could not be recovered are left in place; text extraction is
// unaffected either way.
func (d *fileDocument) WriteWithoutImages(outPath string) error {
	ctx, err := api.ReadContextFile(d.path)
	if err != nil {
		return types.NewError(types.ErrPDF, err, "reading %s for preprocessing", d.path)
	}

	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		placements := pagePlacements(ctx, pageNr)
		if len(placements) == 0 {
			continue
		}
		var buf strings.Builder
		for _, p := range placements {
			r := p.rect
			fmt.Fprintf(&buf, "q 1 1 1 rg %.2f %.2f %.2f %.2f re f Q\n",
				r.X0, r.Y0, r.X1-r.X0, r.Y1-r.Y0)
		}
		if err := appendPageContent(ctx, pageNr, []byte(buf.String())); err != nil {
			return err
		}
	}

	if err := api.WriteContextFile(ctx, outPath); err != nil {
		return types.NewError(types.ErrPDF, err, "writing preprocessed PDF %s", outPath)
	}
	return nil
}

// appendPageContent adds a content stream to the end of a page's Contents.
func appendPageContent(ctx *model.Context, pageNr int, content []byte) error {
	sd, err := ctx.XRefTable.NewStreamDictForBuf(content)
	if err != nil {
		return types.NewError(types.ErrPDF, err, "building overlay stream for page %d", pageNr)
	}
	ir, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return types.NewError(types.ErrPDF, err, "registering overlay stream for page %d", pageNr)
	}

	pageDict, _, _, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return types.NewError(types.ErrPDF, err, "resolving page %d dictionary", pageNr)
	}

	obj, found := pageDict.Find("Contents")
	if !found {
		pageDict.Update("Contents", *ir)
		return nil
	}
	switch contents := obj.(type) {
	case pdftypes.Array:
		pageDict.Update("Contents", append(contents, *ir))
	default:
		pageDict.Update("Contents", pdftypes.Array{obj, *ir})
	}
	return nil
}

// placement records where one image resource lands on a page.
type placement struct {
	name string
	rect Rect
}

// pagePlacements scans a page's content stream for image draws: the last
// transformation matrix before each "/Name Do" gives the placement
// rectangle. Nested coordinate transforms are not composed; for rulebook
// layouts a single cm per image is the norm.
func pagePlacements(ctx *model.Context, pageNr int) map[int]placement {
	result := map[int]placement{}

	xobjects := pageXObjects(ctx, pageNr)
	if len(xobjects) == 0 {
		return result
	}

	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return result
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return result
	}

	tokens := strings.Fields(string(data))
	var nums []float64
	var cm [6]float64
	haveCM := false
	pendingName := ""

	for _, tok := range tokens {
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			nums = append(nums, v)
			if len(nums) > 6 {
				nums = nums[1:]
			}
			continue
		}
		switch {
		case tok == "cm" && len(nums) >= 6:
			copy(cm[:], nums[len(nums)-6:])
			haveCM = true
		case strings.HasPrefix(tok, "/"):
			pendingName = strings.TrimPrefix(tok, "/")
		case tok == "Do" && pendingName != "":
			if objNr, ok := xobjects[pendingName]; ok && haveCM {
				// cm = [sx 0 0 sy tx ty] for an axis-aligned placement.
				result[objNr] = placement{
					name: pendingName,
					rect: Rect{X0: cm[4], Y0: cm[5], X1: cm[4] + cm[0], Y1: cm[5] + cm[3]},
				}
			}
			pendingName = ""
		}
		nums = nums[:0]
	}
	return result
}

// pageXObjects maps the page's XObject resource names to object numbers.
func pageXObjects(ctx *model.Context, pageNr int) map[string]int {
	result := map[string]int{}

	_, _, attrs, err := ctx.PageDict(pageNr, false)
	if err != nil || attrs == nil || attrs.Resources == nil {
		return result
	}
	obj, found := attrs.Resources.Find("XObject")
	if !found {
		return result
	}
	xoDict, err := ctx.DereferenceDict(obj)
	if err != nil {
		return result
	}
	for name, entry := range xoDict {
		if ir, ok := entry.(pdftypes.IndirectRef); ok {
			result[name] = ir.ObjectNumber.Value()
		}
	}
	return result
}
