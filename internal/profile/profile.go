// Package profile manages the user's persistent podium profile.
// The profile is stored at ~/.config/podium/profile.json and is created
// once via the interactive setup flow, then referenced on every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	Name         string `json:"name"`
	UserID       int    `json:"user_id"`       // sent as ?user_id= on session start
	BackendURL   string `json:"backend_url"`   // analysis service base URL
	ReportFormat string `json:"report_format"` // "markdown" | "json" | "yaml"
	OutputDir    string `json:"output_dir"`    // default report output dir
	Beep         bool   `json:"beep"`          // ring the terminal bell on long pauses
}

func profilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.json"), nil
}

// ConfigDir returns the podium config directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "podium"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'podium setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// RunSetup runs the interactive setup wizard on in/out and returns the
// resulting profile. If existing is non-nil, it supplies each prompt's default.
func RunSetup(in io.Reader, out io.Writer, existing *Profile) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		ans = strings.ToLower(ans)
		return ans == "y" || ans == "yes", nil
	}

	prof := &Profile{
		UserID:       1,
		BackendURL:   "http://localhost:8000",
		ReportFormat: "markdown",
		OutputDir:    ".",
		Beep:         true,
	}
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   podium · first-time setup     │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error
	if prof.Name, err = ask("  Your name (shown in reports)", prof.Name); err != nil {
		return nil, err
	}

	id, err := ask("  User id on the coaching backend", strconv.Itoa(prof.UserID))
	if err != nil {
		return nil, err
	}
	if n, convErr := strconv.Atoi(id); convErr == nil && n > 0 {
		prof.UserID = n
	}

	if prof.BackendURL, err = ask("  Backend URL", prof.BackendURL); err != nil {
		return nil, err
	}

	format, err := ask("  Report format (markdown/json/yaml)", prof.ReportFormat)
	if err != nil {
		return nil, err
	}
	switch format {
	case "json", "yaml":
		prof.ReportFormat = format
	default:
		prof.ReportFormat = "markdown"
	}

	if prof.OutputDir, err = ask("  Default output directory", prof.OutputDir); err != nil {
		return nil, err
	}

	if prof.Beep, err = askBool("  Ring the terminal bell on long pauses", prof.Beep); err != nil {
		return nil, err
	}

	fmt.Fprintln(out)
	return prof, nil
}
