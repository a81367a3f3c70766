package browser

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// chromeNames are looked up in PATH when no install location matches
var chromeNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"msedge",
}

// FindChrome locates a Chrome/Chromium executable. A configured path wins,
// then CHROME_PATH, then the usual install locations and PATH. An empty
// result lets chromedp fall back to its own lookup.
func FindChrome(configured string) string {
	for _, path := range []string{configured, os.Getenv("CHROME_PATH")} {
		if path == "" {
			continue
		}
		if isExecutable(path) {
			return path
		}
		log.Warn().Str("path", path).Msg("Chrome path is not executable, ignoring")
	}

	for _, path := range installLocations() {
		if isExecutable(path) {
			log.Debug().Str("path", path).Str("os", runtime.GOOS).Msg("Chrome found at standard location")
			return path
		}
	}

	for _, name := range chromeNames {
		if path, err := exec.LookPath(name); err == nil {
			log.Debug().Str("path", path).Msg("Chrome found in PATH")
			return path
		}
	}

	log.Warn().Str("os", runtime.GOOS).Msg("Chrome not found, will use chromedp default (may fail)")
	return ""
}

func installLocations() []string {
	home := os.Getenv("HOME")

	switch runtime.GOOS {
	case "darwin":
		apps := []string{"Google Chrome.app/Contents/MacOS/Google Chrome", "Chromium.app/Contents/MacOS/Chromium"}
		var out []string
		for _, app := range apps {
			out = append(out, filepath.Join("/Applications", app))
			if home != "" {
				out = append(out, filepath.Join(home, "Applications", app))
			}
		}
		return out

	case "windows":
		var out []string
		for _, base := range []string{os.Getenv("ProgramFiles"), os.Getenv("ProgramFiles(x86)"), os.Getenv("LocalAppData")} {
			if base == "" {
				continue
			}
			out = append(out,
				filepath.Join(base, `Google\Chrome\Application\chrome.exe`),
				filepath.Join(base, `Microsoft\Edge\Application\msedge.exe`),
			)
		}
		return out

	default:
		out := []string{
			"/usr/bin/google-chrome-stable",
			"/usr/bin/google-chrome",
			"/usr/bin/chromium-browser",
			"/usr/bin/chromium",
			"/snap/bin/chromium",
		}
		if home != "" {
			out = append(out, filepath.Join(home, ".local/share/flatpak/exports/bin/com.google.Chrome"))
		}
		return out
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0111 != 0
}

// ChromeVersion returns the version string reported by the browser at chromePath
func ChromeVersion(chromePath string) string {
	if chromePath == "" {
		return "unknown"
	}
	if runtime.GOOS == "windows" {
		return "detected"
	}

	output, err := exec.Command(chromePath, "--version").Output()
	if err != nil {
		return "detected"
	}
	return strings.TrimSpace(string(output))
}
