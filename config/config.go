// Package config loads batchrun configuration from ini files.
//
// The embedded defaults are read first, followed by every file given on the
// command line. Later files override options set by earlier ones.
package config

import (
	_ "embed"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"gopkg.in/ini.v1"

	"github.com/gruntwork-io/batchrun/internal/errors"
	"github.com/gruntwork-io/batchrun/pkg/log"
	"github.com/gruntwork-io/batchrun/util"
)

const (
	SectionOutput  = "output"
	SectionExecute = "execute"

	// TaskSectionPrefix starts the name of every section that declares a task, e.g. `[task.ocean]`.
	TaskSectionPrefix = "task."

	KeyBaseDirectory     = "baseDirectory"
	KeyLogsSubdirectory  = "logsSubdirectory"
	KeyGenerate          = "generate"
	KeyParallelTaskCount = "parallelTaskCount"
	KeyCommandPrefix     = "commandPrefix"

	KeyCommand          = "command"
	KeyTags             = "tags"
	KeyWorkingDirectory = "workingDirectory"

	ConfigsSubdirectory  = "configs"
	SnapshotFilePrefix   = "config."
	DefaultParallelCount = 1
)

//go:embed default.cfg
var defaultConfig []byte

// Config is the merged configuration of a run.
type Config struct {
	file *ini.File

	// Files lists the absolute paths of the config files given by the user, in load order. Subtasks are
	// launched with the same list.
	Files []string

	// DefaultFile is the absolute path of the file that replaced the embedded defaults, if any.
	DefaultFile string

	// WorkingDir is the absolute directory relative paths are resolved against.
	WorkingDir string
}

// TaskConfig is a single `[task.<name>]` section.
type TaskConfig struct {
	Name             string
	Command          string
	WorkingDirectory string
	Tags             []string
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	defaultFile string
	workingDir  string
	logger      log.Logger
}

// WithDefaultFile replaces the embedded defaults with the given file. A missing file is reported as a warning
// and the remaining files are expected to carry a full set of options.
func WithDefaultFile(path string) Option {
	return func(opts *loadOptions) {
		opts.defaultFile = path
	}
}

// WithWorkingDir sets the directory relative paths are resolved against. Defaults to the current working directory.
func WithWorkingDir(dir string) Option {
	return func(opts *loadOptions) {
		opts.workingDir = dir
	}
}

// WithLogger sets the logger used to report load warnings.
func WithLogger(l log.Logger) Option {
	return func(opts *loadOptions) {
		opts.logger = l
	}
}

// Load reads the defaults followed by the given files.
func Load(files []string, opts ...Option) (*Config, error) {
	options := &loadOptions{logger: log.Default()}

	for _, opt := range opts {
		opt(options)
	}

	if options.workingDir == "" {
		dir, err := os.Getwd()
		if err != nil {
			return nil, errors.New(err)
		}

		options.workingDir = dir
	}

	workingDir, err := filepath.Abs(options.workingDir)
	if err != nil {
		return nil, errors.New(err)
	}

	defaultFile, err := absPath(options.defaultFile)
	if err != nil {
		return nil, err
	}

	sources := make([]any, 0, len(files)+1)

	switch {
	case options.defaultFile == "":
		sources = append(sources, defaultConfig)
	case util.IsFile(options.defaultFile):
		sources = append(sources, options.defaultFile)
	default:
		options.logger.Warnf("Did not find default config %s. Assuming other config file(s) contain a full set of configuration options.", options.defaultFile)
	}

	absFiles := make([]string, 0, len(files))

	for _, path := range files {
		if !util.IsFile(path) {
			return nil, errors.New(ConfigFileNotFoundError{Path: path})
		}

		absFile, err := absPath(path)
		if err != nil {
			return nil, err
		}

		sources = append(sources, absFile)
		absFiles = append(absFiles, absFile)
	}

	if len(sources) == 0 {
		return nil, errors.New(NoConfigFilesError{})
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, sources[0], sources[1:]...)
	if err != nil {
		return nil, errors.New(err)
	}

	return &Config{
		file:        file,
		Files:       absFiles,
		DefaultFile: defaultFile,
		WorkingDir:  workingDir,
	}, nil
}

// absPath resolves path against the current working directory, the way it is opened. An empty path stays empty.
func absPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.New(err)
	}

	return abs, nil
}

// Has returns true if the option is set in any of the loaded files.
func (cfg *Config) Has(section, key string) bool {
	sec, err := cfg.file.GetSection(section)
	if err != nil {
		return false
	}

	return sec.HasKey(key)
}

// Get returns the option value or an error if the option is not set.
func (cfg *Config) Get(section, key string) (string, error) {
	if !cfg.Has(section, key) {
		return "", errors.New(MissingOptionError{Section: section, Key: key})
	}

	return cfg.file.Section(section).Key(key).String(), nil
}

// GetWithDefault returns the option value or `def` if the option is not set.
func (cfg *Config) GetWithDefault(section, key, def string) string {
	if !cfg.Has(section, key) {
		return def
	}

	return cfg.file.Section(section).Key(key).String()
}

// GetInt returns the option as an integer or `def` if the option is not set.
func (cfg *Config) GetInt(section, key string, def int) (int, error) {
	if !cfg.Has(section, key) {
		return def, nil
	}

	raw := strings.TrimSpace(cfg.file.Section(section).Key(key).String())

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(InvalidOptionError{Section: section, Key: key, Value: raw, Err: err})
	}

	return val, nil
}

// Set overrides an option in memory.
func (cfg *Config) Set(section, key, val string) {
	cfg.file.Section(section).Key(key).SetValue(val)
}

// SetGenerate overrides `[output] generate` with a comma-separated list from the command line.
func (cfg *Config) SetGenerate(list string) {
	elements := strings.Split(list, ",")
	quoted := make([]string, 0, len(elements))

	for _, element := range elements {
		quoted = append(quoted, "'"+strings.TrimSpace(element)+"'")
	}

	cfg.Set(SectionOutput, KeyGenerate, "["+strings.Join(quoted, ", ")+"]")
}

// Generate returns the `[output] generate` elements in order.
func (cfg *Config) Generate() ([]string, error) {
	raw, err := cfg.Get(SectionOutput, KeyGenerate)
	if err != nil {
		return nil, err
	}

	return ParseList(raw), nil
}

// LogsDirectory returns the absolute path of the directory holding per-task logs.
func (cfg *Config) LogsDirectory() (string, error) {
	baseDir, err := util.CanonicalPath(cfg.GetWithDefault(SectionOutput, KeyBaseDirectory, "."), cfg.WorkingDir)
	if err != nil {
		return "", err
	}

	subdir, err := cfg.Get(SectionOutput, KeyLogsSubdirectory)
	if err != nil {
		return "", err
	}

	return util.CanonicalPath(subdir, baseDir)
}

// CommandPrefix returns the `[execute] commandPrefix` split into arguments.
func (cfg *Config) CommandPrefix() ([]string, error) {
	raw := cfg.GetWithDefault(SectionExecute, KeyCommandPrefix, "")

	args, err := shlex.Split(raw)
	if err != nil {
		return nil, errors.New(InvalidOptionError{Section: SectionExecute, Key: KeyCommandPrefix, Value: raw, Err: err})
	}

	return args, nil
}

// ParallelTaskCount returns the `[execute] parallelTaskCount` option.
func (cfg *Config) ParallelTaskCount() (int, error) {
	return cfg.GetInt(SectionExecute, KeyParallelTaskCount, DefaultParallelCount)
}

// Tasks returns every declared task in the order its section first appears.
func (cfg *Config) Tasks() ([]TaskConfig, error) {
	var tasks []TaskConfig

	for _, sec := range cfg.file.Sections() {
		name, ok := strings.CutPrefix(sec.Name(), TaskSectionPrefix)
		if !ok {
			continue
		}

		if name == "" {
			return nil, errors.New(InvalidTaskSectionError{Section: sec.Name()})
		}

		if !sec.HasKey(KeyCommand) {
			return nil, errors.New(MissingOptionError{Section: sec.Name(), Key: KeyCommand})
		}

		workingDir := sec.Key(KeyWorkingDirectory).String()
		if workingDir != "" {
			var err error

			if workingDir, err = util.CanonicalPath(workingDir, cfg.WorkingDir); err != nil {
				return nil, err
			}
		}

		tasks = append(tasks, TaskConfig{
			Name:             name,
			Command:          sec.Key(KeyCommand).String(),
			WorkingDirectory: workingDir,
			Tags:             ParseList(sec.Key(KeyTags).String()),
		})
	}

	return tasks, nil
}

// WriteTo writes the effective configuration to w.
func (cfg *Config) WriteTo(w io.Writer) (int64, error) {
	return cfg.file.WriteTo(w)
}

// SnapshotPath returns the path of the snapshot written for the given task.
func SnapshotPath(logsDir, taskName string) string {
	return util.JoinPath(logsDir, ConfigsSubdirectory, SnapshotFilePrefix+taskName)
}

// Snapshot dumps the effective configuration to `<logsDir>/configs/config.<taskName>`.
func (cfg *Config) Snapshot(logsDir, taskName string) error {
	if err := util.EnsureDirectory(util.JoinPath(logsDir, ConfigsSubdirectory)); err != nil {
		return err
	}

	if err := cfg.file.SaveTo(SnapshotPath(logsDir, taskName)); err != nil {
		return errors.New(err)
	}

	return nil
}

// ParseList splits a list option. Both `['a', 'b']` and `a, b` are accepted.
func ParseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	var list []string

	for _, element := range strings.Split(raw, ",") {
		element = strings.Trim(strings.TrimSpace(element), `'"`)
		if element != "" {
			list = append(list, element)
		}
	}

	return list
}
