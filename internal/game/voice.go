package game

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownLocale is returned for voice locales agcli does not know.
var ErrUnknownLocale = errors.New("unknown voice locale")

// Locale is a voice-over language.
type Locale int

const (
	English Locale = iota
	Japanese
	Korean
	Chinese
)

var locales = [...]struct {
	code   string
	folder string
}{
	English:  {"en-us", "English(US)"},
	Japanese: {"ja-jp", "Japanese"},
	Korean:   {"ko-kr", "Korean"},
	Chinese:  {"zh-cn", "Chinese"},
}

// Locales lists every known voice locale.
func Locales() []Locale {
	return []Locale{English, Japanese, Korean, Chinese}
}

// ParseLocale accepts a locale code ("ja-jp") or folder name ("Japanese"),
// case-insensitively.
func ParseLocale(s string) (Locale, error) {
	s = strings.TrimSpace(s)
	for i, l := range locales {
		if strings.EqualFold(s, l.code) || strings.EqualFold(s, l.folder) {
			return Locale(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLocale, s)
}

// Code is the API language code.
func (l Locale) Code() string {
	if l < 0 || int(l) >= len(locales) {
		return ""
	}
	return locales[l].code
}

// Name is the folder name, also used as the display name.
func (l Locale) Name() string {
	if l < 0 || int(l) >= len(locales) {
		return "Unknown"
	}
	return locales[l].folder
}

func (l Locale) String() string { return l.Name() }

// Data directories of the global and the Chinese client.
const (
	globalDataDir = "GenshinImpact_Data"
	chinaDataDir  = "YuanShen_Data"
)

// DataDir returns the data directory of the installation under root.
func DataDir(root string) string {
	if info, err := os.Stat(filepath.Join(root, chinaDataDir)); err == nil && info.IsDir() {
		return chinaDataDir
	}
	return globalDataDir
}

// VoiceDir is the folder holding one sub-folder per installed locale.
func VoiceDir(root string) string {
	return filepath.Join(root, DataDir(root),
		"StreamingAssets", "Audio", "GeneratedSoundBanks", "Windows")
}

// VoiceInstalled reports whether locale is installed under root.
func VoiceInstalled(root string, l Locale) bool {
	info, err := os.Stat(filepath.Join(VoiceDir(root), l.Name()))
	return err == nil && info.IsDir()
}

// InstalledLocales lists the locales installed under root.
func InstalledLocales(root string) []Locale {
	var out []Locale
	for _, l := range Locales() {
		if VoiceInstalled(root, l) {
			out = append(out, l)
		}
	}
	return out
}

// VoiceSize sums the sizes of every file of an installed locale.
func VoiceSize(root string, l Locale) (uint64, error) {
	var total uint64
	err := filepath.WalkDir(filepath.Join(VoiceDir(root), l.Name()),
		func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				info, err := d.Info()
				if err != nil {
					return err
				}
				total += uint64(info.Size())
			}
			return nil
		})
	return total, err
}

// VoiceManifestName is the pkg_version file listing a locale's files.
func VoiceManifestName(l Locale) string {
	return "Audio_" + l.Name() + "_pkg_version"
}
