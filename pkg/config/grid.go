package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Section is one numbered period of the school day.
type Section struct {
	Index int    `yaml:"index"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// SectionGrid maps section numbers to clock times. It only affects labels;
// occurrences are always placed by section number.
type SectionGrid struct {
	Sections []Section `yaml:"sections"`
}

// LoadSectionGrid reads a YAML grid file. An empty path yields an empty grid.
func LoadSectionGrid(path string) (*SectionGrid, error) {
	if path == "" {
		return &SectionGrid{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read section grid: %w", err)
	}
	return ParseSectionGrid(raw)
}

// ParseSectionGrid decodes and validates a grid document.
func ParseSectionGrid(raw []byte) (*SectionGrid, error) {
	var grid SectionGrid
	if err := yaml.Unmarshal(raw, &grid); err != nil {
		return nil, fmt.Errorf("decode section grid: %w", err)
	}
	seen := make(map[int]bool, len(grid.Sections))
	for _, s := range grid.Sections {
		if s.Index < 1 {
			return nil, fmt.Errorf("section index %d must be positive", s.Index)
		}
		if seen[s.Index] {
			return nil, fmt.Errorf("section %d listed twice", s.Index)
		}
		seen[s.Index] = true
		start, err := time.Parse("15:04", s.Start)
		if err != nil {
			return nil, fmt.Errorf("section %d start %q: %w", s.Index, s.Start, err)
		}
		end, err := time.Parse("15:04", s.End)
		if err != nil {
			return nil, fmt.Errorf("section %d end %q: %w", s.Index, s.End, err)
		}
		if !end.After(start) {
			return nil, fmt.Errorf("section %d ends before it starts", s.Index)
		}
	}
	return &grid, nil
}

// Label renders a section as "3 (10:00-10:45)", or just the number when the
// grid does not know it.
func (g *SectionGrid) Label(index int) string {
	if g != nil {
		for _, s := range g.Sections {
			if s.Index == index {
				return fmt.Sprintf("%d (%s-%s)", index, s.Start, s.End)
			}
		}
	}
	return fmt.Sprintf("%d", index)
}
