package asset_shrinker

import (
	"sync"
	"time"
)

type Options struct {
	PublicDir    string
	ConfigPath   string
	Probe        string
	BackupSuffix string
	DryRun       bool
	Butteraugli  bool
}

type Processor struct {
	Options
	Config *Config
	Assets []AssetFile

	searcher *Searcher

	// guards Assets while the TUI reads them from another goroutine
	lock sync.Mutex
}

type MediaType int

const (
	UnknownType MediaType = iota
	PNG
	JPG
	WebP
	GIF
)

type ProcessingStage int

const (
	Waiting ProcessingStage = iota
	ProcessingInProgress
	ProcessingError
	ProcessingSuccess
	Missing
)

type AssetFile struct {
	Asset
	Type MediaType
	Size int // in bytes

	Stage      ProcessingStage
	ShrunkSize int
	Error      error // if processing failed

	Width, Height int
	Resized       bool
	Quality       int
	Scale         float64
	Attempts      int

	PSNR        float64
	Butteraugli float64 // negative when not computed

	BackupPath string
	StartTime  time.Time
}

type ProcessingRequest struct {
	InputPath  string
	OutputPath string
	Target     *AssetFile
}

type ShrunkStats struct {
	Total   int
	Count   int
	Failed  int
	Missing int

	SizeBefore int
	SizeAfter  int
}

// UI is notified whenever the state of an asset changes.
type UI interface {
	Update()
}

type nopUI struct{}

func (nopUI) Update() {}
