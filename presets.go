package ospfs

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// Preset is a named starter configuration for FormatImage: a known-geometry
// table generalized from physical disk geometries to OSPFS block/inode
// counts.
type Preset struct {
	Slug         string `csv:"slug"`
	Description  string `csv:"description"`
	TotalBlocks  uint32 `csv:"total_blocks"`
	TotalInodes  uint32 `csv:"total_inodes"`
}

// TotalSizeBytes returns the minimum image size, in bytes, this preset
// requires.
func (p Preset) TotalSizeBytes() int64 {
	return int64(p.TotalBlocks) * BlockSize
}

//go:embed presets.csv
var presetsRawCSV string

var presets map[string]Preset

// GetPreset looks up a named starter configuration by slug.
func GetPreset(slug string) (Preset, error) {
	preset, ok := presets[slug]
	if ok {
		return preset, nil
	}
	return Preset{}, fmt.Errorf("no predefined ospfs image preset exists with slug %q", slug)
}

// PresetSlugs returns every known preset slug, for CLI help text.
func PresetSlugs() []string {
	slugs := make([]string, 0, len(presets))
	for slug := range presets {
		slugs = append(slugs, slug)
	}
	return slugs
}

func init() {
	presets = make(map[string]Preset)
	reader := strings.NewReader(presetsRawCSV)
	err := gocsv.UnmarshalToCallback(
		reader,
		func(row Preset) error {
			if _, exists := presets[row.Slug]; exists {
				return fmt.Errorf("duplicate definition for preset %q", row.Slug)
			}
			presets[row.Slug] = row
			return nil
		},
	)
	if err != nil && err != io.EOF {
		panic(err)
	}
}
