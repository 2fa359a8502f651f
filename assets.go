package asset_shrinker

const KB = 1 << 10
const MB = 1 << 20
const GB = 1 << 30

// Asset is one file of the fixed list, relative to the public directory.
type Asset struct {
	Input     string `yaml:"input"`
	Output    string `yaml:"output"`
	MaxSizeKB int    `yaml:"max_size_kb"`
}

// Budget is the largest allowed output size in bytes.
func (a Asset) Budget() int {
	return a.MaxSizeKB * KB
}

const CoverImageName = "金融工具箱app封面.png"

func DefaultAssets() []Asset {
	return []Asset{
		{Input: "icon-192.png", Output: "icon-192.png", MaxSizeKB: 50},
		{Input: "icon-512.png", Output: "icon-512.png", MaxSizeKB: 200},
		{Input: CoverImageName, Output: CoverImageName, MaxSizeKB: 300},
	}
}
