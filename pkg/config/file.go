package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/izyuk/BatteryData/pkg/utils/ptr"
)

var defaultFileConfig = &RawFileConfig{
	RefreshIntervalSeconds:  ptr.To(5.0),
	EstimationWindowMinutes: ptr.To(3),
	ChartWindowMinutes:      ptr.To(60),
	ShowWatts:               ptr.To(true),
	CompactLabel:            ptr.To(false),
	StatusBarExpanded:       ptr.To(false),
}

var _ Config = &File{}

// File is a JSON-file-backed Config.
type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

// RawFileConfig is the on-disk shape. Unset keys fall back to defaults.
type RawFileConfig struct {
	RefreshIntervalSeconds  *float64 `json:"refreshIntervalSeconds,omitempty"`
	EstimationWindowMinutes *int     `json:"estimationWindowMinutes,omitempty"`
	ChartWindowMinutes      *int     `json:"chartWindowMinutes,omitempty"`
	ShowWatts               *bool    `json:"showWatts,omitempty"`
	CompactLabel            *bool    `json:"compactLabel,omitempty"`
	StatusBarExpanded       *bool    `json:"statusBarExpanded,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	return &RawFileConfig{
		RefreshIntervalSeconds:  ptr.To(c.RefreshIntervalSeconds()),
		EstimationWindowMinutes: ptr.To(c.EstimationWindowMinutes()),
		ChartWindowMinutes:      ptr.To(c.ChartWindowMinutes()),
		ShowWatts:               ptr.To(c.ShowWatts()),
		CompactLabel:            ptr.To(c.CompactLabel()),
		StatusBarExpanded:       ptr.To(c.StatusBarExpanded()),
	}, nil
}

func (f *File) RefreshIntervalSeconds() float64 {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.RefreshIntervalSeconds, *defaultFileConfig.RefreshIntervalSeconds)
}

func (f *File) EstimationWindowMinutes() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.EstimationWindowMinutes, *defaultFileConfig.EstimationWindowMinutes)
}

func (f *File) ChartWindowMinutes() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.ChartWindowMinutes, *defaultFileConfig.ChartWindowMinutes)
}

func (f *File) ShowWatts() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.ShowWatts, *defaultFileConfig.ShowWatts)
}

func (f *File) CompactLabel() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.CompactLabel, *defaultFileConfig.CompactLabel)
}

func (f *File) StatusBarExpanded() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.StatusBarExpanded, *defaultFileConfig.StatusBarExpanded)
}

func (f *File) SetRefreshIntervalSeconds(v float64) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.RefreshIntervalSeconds = &v
}

func (f *File) SetEstimationWindowMinutes(v int) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.EstimationWindowMinutes = &v
}

func (f *File) SetChartWindowMinutes(v int) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.ChartWindowMinutes = &v
}

func (f *File) SetShowWatts(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.ShowWatts = &b
}

func (f *File) SetCompactLabel(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.CompactLabel = &b
}

func (f *File) SetStatusBarExpanded(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.StatusBarExpanded = &b
}

func (f *File) Snapshot() Snapshot {
	return Snapshot{
		RefreshInterval:   ClampRefreshInterval(f.RefreshIntervalSeconds()),
		EstimationWindow:  time.Duration(f.EstimationWindowMinutes()) * time.Minute,
		ChartWindow:       time.Duration(f.ChartWindowMinutes()) * time.Minute,
		ShowWatts:         f.ShowWatts(),
		CompactLabel:      f.CompactLabel(),
		StatusBarExpanded: f.StatusBarExpanded(),
	}
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"refreshIntervalSeconds":  f.RefreshIntervalSeconds(),
		"estimationWindowMinutes": f.EstimationWindowMinutes(),
		"chartWindowMinutes":      f.ChartWindowMinutes(),
		"showWatts":               f.ShowWatts(),
		"compactLabel":            f.CompactLabel(),
		"statusBarExpanded":       f.StatusBarExpanded(),
	}
}
