package app

import (
	"path/filepath"

	"github.com/vk/chatgear/features/export"
	"github.com/vk/chatgear/features/folders"
	"github.com/vk/chatgear/features/formula"
	"github.com/vk/chatgear/features/prompts"
	"github.com/vk/chatgear/features/tabtitle"
	"github.com/vk/chatgear/features/timeline"
	"github.com/vk/chatgear/features/width"
	"github.com/vk/chatgear/internal/feature"
	"github.com/vk/chatgear/internal/page"
)

// coreFeatures is the definitive list of all feature modules compiled
// into the chatgear binary.
func coreFeatures(pg page.Page, dataDir string) []feature.Feature {
	return []feature.Feature{
		timeline.New(pg),
		folders.New(pg, dataDir),
		prompts.New(pg, filepath.Join(dataDir, "prompts.yaml")),
		export.New(pg, dataDir),
		width.New(pg),
		tabtitle.New(pg),
		formula.New(pg),
	}
}
