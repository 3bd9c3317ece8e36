package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrMissing = errors.New("missing required configuration")

const (
	RepositoryS3    = "s3"
	RepositoryLocal = "local"
	// RepositoryStdout prints keys without storing anything or recording
	// progress.
	RepositoryStdout = "stdout"

	DefaultRegion    = "us-east-1"
	DefaultExtension = ".tif"
	DefaultQuality   = 85
)

type Logger struct {
	Level string `yaml:"level"`
}

// Reconcile configures merging catalog CSVs with a file system inventory.
type Reconcile struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Inventory string `yaml:"inventory" mapstructure:"csv"`
	Root      string `yaml:"root" mapstructure:"path"`
	Output    string `yaml:"output" mapstructure:"output"`
	Extension string `yaml:"extension" mapstructure:"ext"`
}

// Publish configures the thumbnail publishing run.
type Publish struct {
	Dir            string `yaml:"dir" mapstructure:"dir"`
	Size           string `yaml:"size" mapstructure:"size"`
	Progress       string `yaml:"progress" mapstructure:"csv"`
	Repository     string `yaml:"repository" mapstructure:"repository"`
	Bucket         string `yaml:"bucket" mapstructure:"bucket"`
	Region         string `yaml:"region" mapstructure:"region"`
	Profile        string `yaml:"profile" mapstructure:"profile"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force-path-style"`
	Prefix         string `yaml:"prefix" mapstructure:"prefix"`
	LocalPath      string `yaml:"local_path" mapstructure:"local-path"`
	Quality        int    `yaml:"quality" mapstructure:"quality"`
	Report         string `yaml:"report" mapstructure:"report"`
	StatusAddr     string `yaml:"status_addr" mapstructure:"status-addr"`
}

type Thumbnailer struct {
	Logger    Logger    `yaml:"logger"`
	Reconcile Reconcile `yaml:"reconcile"`
	Publish   Publish   `yaml:"publish"`
}

func Default() *Thumbnailer {
	return &Thumbnailer{
		Logger: Logger{Level: "info"},
		Reconcile: Reconcile{
			Extension: DefaultExtension,
		},
		Publish: Publish{
			Repository: RepositoryS3,
			Region:     DefaultRegion,
			Quality:    DefaultQuality,
		},
	}
}

func NewThumbnailerFromFile(fpath string) (*Thumbnailer, error) {
	bs, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	thumbnailer := Default()
	if err := yaml.Unmarshal(bs, thumbnailer); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fpath, err)
	}

	return thumbnailer, nil
}

// Load reads fpath, or returns the defaults when fpath is empty.
func Load(fpath string) (*Thumbnailer, error) {
	if fpath == "" {
		return Default(), nil
	}
	return NewThumbnailerFromFile(fpath)
}

func missing(what string) error {
	return fmt.Errorf("%w: %s", ErrMissing, what)
}

func (r Reconcile) Validate() error {
	switch {
	case r.Dir == "":
		return missing("no directory of CSV files supplied (--dir)")
	case r.Output == "":
		return missing("no output file path/name supplied (--output)")
	case r.Inventory == "":
		return missing("no file system CSV file supplied (--csv)")
	case r.Root == "":
		return missing("missing file system path to TIF directory (--path)")
	}
	return nil
}

func (p Publish) Validate() error {
	switch {
	case p.Dir == "":
		return missing("no directory of CSV files supplied (--dir)")
	case p.Size == "":
		return missing("no thumbnail size supplied (--size)")
	}

	switch p.Repository {
	case RepositoryS3:
		if p.Bucket == "" {
			return missing("no destination S3 bucket supplied (--bucket)")
		}
	case RepositoryLocal:
		if p.LocalPath == "" {
			return missing("no local repository path supplied (--local-path)")
		}
	case RepositoryStdout:
	default:
		return fmt.Errorf("unknown repository type: %q", p.Repository)
	}

	if p.Quality < 1 || p.Quality > 100 {
		return fmt.Errorf("invalid JPEG quality: %d", p.Quality)
	}
	return nil
}
