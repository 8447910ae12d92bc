package model

// AspectPreset maps a named social-media format to fixed output dimensions.
type AspectPreset struct {
	Key    string
	Width  int
	Height int
}

// Ratio returns the numeric width/height aspect ratio of the preset.
func (p AspectPreset) Ratio() float64 {
	return float64(p.Width) / float64(p.Height)
}

// Preset keys.
const (
	AspectSquare    = "square"
	AspectPortrait  = "portrait"
	AspectLandscape = "landscape"
	AspectStory     = "story"
)

// presets is the immutable, process-wide preset table.
var presets = map[string]AspectPreset{
	AspectSquare:    {Key: AspectSquare, Width: 1080, Height: 1080},
	AspectPortrait:  {Key: AspectPortrait, Width: 1080, Height: 1350},
	AspectLandscape: {Key: AspectLandscape, Width: 1080, Height: 608},
	AspectStory:     {Key: AspectStory, Width: 1080, Height: 1920},
}

// PresetFor looks up a preset by key. The second return is false for
// unknown keys.
func PresetFor(key string) (AspectPreset, bool) {
	p, ok := presets[key]
	return p, ok
}

// DefaultPreset is the preset used when the caller supplies no key.
func DefaultPreset() AspectPreset {
	return presets[AspectSquare]
}
