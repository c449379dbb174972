package notes

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/db"
	"github.com/plugnplai/relnotes/extract"
)

// TemplateSettingKey is the settings key for a database-stored template
// override. When set it takes precedence over template files on disk.
const TemplateSettingKey = "notes_template"

var (
	templateContent string
	templateOnce    sync.Once
)

// defaultTemplate is used when no template file is present in the data
// directory
const defaultTemplate = `# Release Notes

## Point 1: <Feature Name>

**Previous State:**
<What was before?>

**New State:**
<What's new?>

**Customer Benefits:**
- <Benefit 1>
- <Benefit 2>

## Point 2: <Next Feature Name>

**Previous State:**
...
`

var templateCandidates = []string{"template.md", "template.pdf", "template.txt"}

// Template returns the reference release notes template. A template
// stored via settings wins; otherwise template.md, template.pdf, or
// template.txt from the data directory is loaded on first use, falling
// back to a built-in skeleton.
func Template() string {
	if v, err := db.GetSetting(TemplateSettingKey); err == nil && v != "" {
		return v
	}
	templateOnce.Do(func() {
		templateContent = loadTemplate(config.Get().TemplateDir())
	})
	return templateContent
}

func loadTemplate(dir string) string {
	for _, name := range templateCandidates {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		text, err := extract.Text(name, data)
		if err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to load template file")
			continue
		}

		logger.Info().Str("path", path).Msg("loaded release notes template")
		return text
	}

	logger.Info().Msg("no template file found, using built-in template")
	return defaultTemplate
}
