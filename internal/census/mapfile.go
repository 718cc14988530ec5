// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package census

import (
	"os"
	"path/filepath"

	"github.com/pdiddy/rulebook-engine/internal/fsutil"
	"github.com/pdiddy/rulebook-engine/pkg/types"
)

const (
	// MappingFileName is the signature registry, the shared contract file
	// between the census, outline, detection, and resolution phases.
	MappingFileName = "font-family-mapping.json"

	// FooterConfigFileName records footer/watermark/page-number signatures.
	FooterConfigFileName = "footer_config.json"

	// IconConfigFileName records icon-font signatures.
	IconConfigFileName = "icon_config.json"
)

// SaveMap writes the registry atomically to dir/font-family-mapping.json.
// Every mutator rewrites the file in full.
func SaveMap(dir string, m *types.SignatureMap) error {
	return fsutil.AtomicWriteJSON(filepath.Join(dir, MappingFileName), m)
}

// LoadMap reads the registry from dir. Returns a state error when the file
// is absent, since callers only load after the census phase declared it.
func LoadMap(dir string) (*types.SignatureMap, error) {
	path := filepath.Join(dir, MappingFileName)
	var m types.SignatureMap
	if err := fsutil.ReadJSON(path, &m); err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.ErrState, err,
				"signature map %s is missing", path).
				WithRemediation("re-run the census: pdf-convert --phase 2")
		}
		return nil, types.NewError(types.ErrState, err, "reading signature map %s", path)
	}
	if m.Signatures == nil {
		m.Signatures = map[string]*types.FontSignature{}
	}
	return &m, nil
}

// furnitureConfig is the on-disk shape of footer_config.json and
// icon_config.json.
type furnitureConfig struct {
	Entries []FurnitureEntry `json:"entries"`
}

// SaveFurnitureConfigs splits the classified furniture into the footer and
// icon config files.
func SaveFurnitureConfigs(dir string, entries []FurnitureEntry) error {
	var footer, icon furnitureConfig
	for _, e := range entries {
		if e.Kind == KindIconFont {
			icon.Entries = append(icon.Entries, e)
		} else {
			footer.Entries = append(footer.Entries, e)
		}
	}
	if err := fsutil.AtomicWriteJSON(filepath.Join(dir, FooterConfigFileName), footer); err != nil {
		return err
	}
	return fsutil.AtomicWriteJSON(filepath.Join(dir, IconConfigFileName), icon)
}
