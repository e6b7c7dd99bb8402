package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// SettingsDirName is the settings folder under the home directory
	SettingsDirName = ".napari-j"

	// SettingsFile holds the connection settings
	SettingsFile = "naparij.yml"

	// DefaultSettingsFile is the copy Reset restores from
	DefaultSettingsFile = "naparij_default.yml"
)

// Settings are the connection settings of the platform
type Settings struct {
	Connection struct {
		FijiPath      string `yaml:"fiji_path"`
		JVMPath       string `yaml:"jvm_path"`
		AutostartFIJI bool   `yaml:"autostart_fiji"`
	} `yaml:"connection"`
}

// Notifier shows a titled message to the user
type Notifier interface {
	Notify(title, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(title, message string)

func (f NotifierFunc) Notify(title, message string) { f(title, message) }

// SettingsStore manages the settings file in one folder
type SettingsStore struct {
	Dir      string
	Settings Settings
	notifier Notifier
}

// NewSettingsStore returns a store in dir. An empty dir means ~/.napari-j.
func NewSettingsStore(dir string, notifier Notifier) (*SettingsStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("error locating home directory: %w", err)
		}
		dir = filepath.Join(home, SettingsDirName)
	}
	if notifier == nil {
		notifier = NotifierFunc(func(string, string) {})
	}
	return &SettingsStore{Dir: dir, notifier: notifier}, nil
}

func (s *SettingsStore) path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Ensure creates the folder and a settings file with defaults if missing. The
// default paths are the home directory, or the settings folder when there is
// no home directory.
func (s *SettingsStore) Ensure() error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("error creating settings directory: %w", err)
	}
	if _, err := os.Stat(s.path(SettingsFile)); err == nil {
		return nil
	}
	// without a home directory the paths point at the settings folder
	home, err := os.UserHomeDir()
	if err != nil {
		home = s.Dir
	}
	def := Settings{}
	def.Connection.FijiPath = home
	def.Connection.JVMPath = home
	return s.write(def)
}

// Load reads the settings file
func (s *SettingsStore) Load() error {
	data, err := os.ReadFile(s.path(SettingsFile))
	if err != nil {
		return fmt.Errorf("error reading settings file: %w", err)
	}
	var st Settings
	if err := yaml.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("error parsing settings file: %w", err)
	}
	s.Settings = st
	return nil
}

// Save writes the current settings and tells the user
func (s *SettingsStore) Save() error {
	if err := s.write(s.Settings); err != nil {
		return err
	}
	s.notifier.Notify("Settings saved...", "The settings have been saved.")
	return nil
}

func (s *SettingsStore) write(st Settings) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("error marshaling settings: %w", err)
	}
	if err := os.WriteFile(s.path(SettingsFile), data, 0644); err != nil {
		return fmt.Errorf("error writing settings file: %w", err)
	}
	return nil
}

func (s *SettingsStore) SetFIJIPath(path string)  { s.Settings.Connection.FijiPath = path }
func (s *SettingsStore) SetJVMPath(path string)   { s.Settings.Connection.JVMPath = path }
func (s *SettingsStore) SetAutostartFIJI(on bool) { s.Settings.Connection.AutostartFIJI = on }

// MakeDefault copies the settings file to the default copy. The outcome is
// reported through the notifier; failures are not returned.
func (s *SettingsStore) MakeDefault() bool {
	const title = "make settings default..."
	if err := copyFile(s.path(SettingsFile), s.path(DefaultSettingsFile)); err != nil {
		s.notifier.Notify(title, "Failed to make the settings default.")
		return false
	}
	s.notifier.Notify(title, "The settings have been defined as default.")
	return true
}

// Reset restores the settings file from the default copy and reloads it.
// The outcome is reported through the notifier; failures are not returned.
func (s *SettingsStore) Reset() bool {
	const title = "reset settings..."
	if err := copyFile(s.path(DefaultSettingsFile), s.path(SettingsFile)); err != nil {
		s.notifier.Notify(title, "Failed to reset the settings.")
		return false
	}
	if err := s.Load(); err != nil {
		s.notifier.Notify(title, "Failed to reset the settings.")
		return false
	}
	s.notifier.Notify(title, "The settings have been reset.")
	return true
}

// IsLimeSegInstalled reports whether the platform's jars folder holds a
// LimeSeg jar
func (s *SettingsStore) IsLimeSegInstalled() bool {
	entries, err := os.ReadDir(filepath.Join(s.Settings.Connection.FijiPath, "jars"))
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "limeseg") {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
