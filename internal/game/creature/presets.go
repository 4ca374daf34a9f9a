package creature

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/element"
	"github.com/cory-johannsen/arena/internal/game/stats"
)

// yamlPresetFile is the top-level YAML structure for the preset file.
type yamlPresetFile struct {
	Presets []yamlPreset `yaml:"presets"`
}

// yamlPreset is the YAML representation of one preset creature design.
type yamlPreset struct {
	Name      string    `yaml:"name"`
	Element   string    `yaml:"element"`
	BaseStats yamlStats `yaml:"base_stats"`
	Moves     []string  `yaml:"moves"`
	Sprite    string    `yaml:"sprite"`
}

type yamlStats struct {
	HP  int `yaml:"hp"`
	Atk int `yaml:"atk"`
	Def int `yaml:"def"`
	Spc int `yaml:"spc"`
	Spd int `yaml:"spd"`
}

// Preset is a ready-made creature design a player can adopt without
// hand-crafting stats, moves, and a sprite.
type Preset struct {
	Name      string
	Element   element.Element
	BaseStats stats.Block
	MoveIDs   [4]string
	Sprite    string
}

// Record builds an unowned level-floor creature record from the preset.
// Callers assign ID, OwnerID, and CreatedAt before persisting.
func (p Preset) Record() Record {
	return Record{
		Name:      p.Name,
		Element:   p.Element,
		BaseStats: p.BaseStats,
		MoveIDs:   p.MoveIDs,
		Sprite:    p.Sprite,
		Level:     stats.LevelMin,
	}
}

// LoadPresets reads and validates the preset creature designs from a YAML
// file.
//
// Postcondition: every returned preset passes Record.Validate.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset file %s: %w", path, err)
	}

	var file yamlPresetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing preset file %s: %w", path, err)
	}
	if len(file.Presets) == 0 {
		return nil, fmt.Errorf("preset file %s contains no presets", path)
	}

	presets := make([]Preset, 0, len(file.Presets))
	for i, yp := range file.Presets {
		elem, err := element.Parse(yp.Element)
		if err != nil {
			return nil, fmt.Errorf("preset %d (%s): %w", i, yp.Name, err)
		}
		if len(yp.Moves) != 4 {
			return nil, fmt.Errorf("preset %d (%s): expected 4 moves, got %d", i, yp.Name, len(yp.Moves))
		}
		p := Preset{
			Name:    yp.Name,
			Element: elem,
			BaseStats: stats.Block{
				HP:  yp.BaseStats.HP,
				Atk: yp.BaseStats.Atk,
				Def: yp.BaseStats.Def,
				Spc: yp.BaseStats.Spc,
				Spd: yp.BaseStats.Spd,
			},
			MoveIDs: [4]string{yp.Moves[0], yp.Moves[1], yp.Moves[2], yp.Moves[3]},
			Sprite:  yp.Sprite,
		}
		record := p.Record()
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("preset %d (%s): %w", i, yp.Name, err)
		}
		presets = append(presets, p)
	}

	return presets, nil
}
