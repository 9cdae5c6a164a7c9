package config

import (
	"fmt"
)

// Custom error types

// ConfigFileNotFoundError is returned when a config file given on the command line does not exist.
type ConfigFileNotFoundError struct {
	Path string
}

func (err ConfigFileNotFoundError) Error() string {
	return "Config file " + err.Path + " does not exist"
}

// NoConfigFilesError is returned when neither defaults nor user config files could be read.
type NoConfigFilesError struct{}

func (err NoConfigFilesError) Error() string {
	return "No config files to load"
}

// MissingOptionError is returned when a required option is not set in any config file.
type MissingOptionError struct {
	Section string
	Key     string
}

func (err MissingOptionError) Error() string {
	return fmt.Sprintf("Option %q is missing from section [%s]", err.Key, err.Section)
}

// InvalidOptionError is returned when an option value cannot be parsed.
type InvalidOptionError struct {
	Err     error
	Section string
	Key     string
	Value   string
}

func (err InvalidOptionError) Error() string {
	return fmt.Sprintf("Invalid value %q for option %q in section [%s]: %v", err.Value, err.Key, err.Section, err.Err)
}

func (err InvalidOptionError) Unwrap() error {
	return err.Err
}

type InvalidTaskSectionError struct {
	Section string
}

func (err InvalidTaskSectionError) Error() string {
	return fmt.Sprintf("Section [%s] does not name a task", err.Section)
}
