// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/joho/godotenv"
	"github.com/matt-FFFFFF/dmsbatch/internal/config"
	"github.com/matt-FFFFFF/dmsbatch/internal/config/hcl"
	"github.com/matt-FFFFFF/dmsbatch/internal/fetch"
	"github.com/matt-FFFFFF/dmsbatch/internal/options"
	"github.com/matt-FFFFFF/dmsbatch/internal/profile"
	"github.com/urfave/cli/v3"
)

const (
	configFlag        = "config"
	profileFlag       = "profile"
	programFlag       = "program"
	batchFileFlag     = "batchfile"
	outDirFlag        = "outdir"
	summaryPrefixFlag = "summaryprefix"
	ncpusFlag         = "ncpus"
	useExistingFlag   = "use-existing"
	envFlag           = "env"
	envFileFlag       = "env-file"

	programOptionsCategory = "Program options"
)

var (
	// ErrLoadConfig is returned when the configuration file cannot be read or decoded.
	ErrLoadConfig = errors.New("failed to load configuration file")
	// ErrUnsupportedConfig is returned for configuration files that are neither YAML nor HCL.
	ErrUnsupportedConfig = errors.New("unsupported configuration file type, use .yaml, .yml or .hcl")
	// ErrEnvFile is returned when a dotenv file cannot be loaded.
	ErrEnvFile = errors.New("failed to load env file")
)

// settingFlags are the orchestrator's own settings.
func settingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage: "Configuration file (.yaml, .yml or .hcl). " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources.",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     profileFlag,
			Usage:    "Program profile, default " + config.DefaultProfile,
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     programFlag,
			Usage:    "Path of the per-job program, overriding the profile",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:      batchFileFlag,
			Aliases:   []string{"b"},
			Usage:     "CSV batch file with one row per job; may be a go-getter URL",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     outDirFlag,
			Aliases:  []string{"o"},
			Usage:    "Directory for per-job and summary output, default " + config.DefaultOutDir,
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     summaryPrefixFlag,
			Aliases:  []string{"s"},
			Usage:    "Prefix of the summary artifacts and the batch log",
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:     ncpusFlag,
			Aliases:  []string{"p"},
			Usage:    "Number of jobs to run at once, -1 for every core",
			Value:    config.DefaultNCPUs,
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:        useExistingFlag,
			Usage:       "Skip the batch when every output already exists, and pass use_existing to each job",
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.StringMapFlag{
			Name:  envFlag,
			Usage: "Extra environment for the per-job program, KEY=VALUE",
		},
		&cli.StringSliceFlag{
			Name:      envFileFlag,
			Usage:     "Load environment variables from a dotenv file before reading the configuration",
			TakesFile: true,
		},
	}
}

// optionFlags returns one flag per row-overridable option of p.
func optionFlags(p *profile.Profile) []cli.Flag {
	var flags []cli.Flag

	for _, opt := range p.Schema().All() {
		if opt.Category != options.RowOverridable {
			continue
		}

		switch opt.Kind {
		case options.PresenceFlag:
			flags = append(flags, &cli.BoolFlag{
				Name:     opt.Name,
				Usage:    opt.Usage,
				Category: programOptionsCategory,
				OnlyOnce: true,
			})
		case options.List:
			flags = append(flags, &cli.StringSliceFlag{
				Name:     opt.Name,
				Usage:    fmt.Sprintf("%s (list of %s)", opt.Usage, opt.Type),
				Category: programOptionsCategory,
			})
		default:
			flags = append(flags, &cli.StringFlag{
				Name:     opt.Name,
				Usage:    fmt.Sprintf("%s (%s)", opt.Usage, opt.Type),
				Category: programOptionsCategory,
				OnlyOnce: true,
			})
		}
	}

	return flags
}

// loadEnvFiles loads dotenv files into the process environment. Variables
// already set are kept.
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		return nil
	}

	if err := godotenv.Load(files...); err != nil {
		return errors.Join(ErrEnvFile, err)
	}

	return nil
}

// buildConfig layers the configuration file under the command line flags.
func buildConfig(ctx context.Context, cmd *cli.Command) (config.GlobalConfig, error) {
	raw, err := loadConfig(ctx, cmd.String(configFlag))
	if err != nil {
		return config.GlobalConfig{}, err
	}

	p, err := profile.Lookup(firstNonEmpty(cmd.String(profileFlag), raw.Profile, config.DefaultProfile))
	if err != nil {
		return config.GlobalConfig{}, errors.Join(config.ErrInvalidConfig, err)
	}

	fileSrc, err := raw.Source(p)
	if err != nil {
		return config.GlobalConfig{}, errors.Join(config.ErrInvalidConfig, err)
	}

	cliSrc, err := flagSource(cmd, p)
	if err != nil {
		return config.GlobalConfig{}, errors.Join(config.ErrInvalidConfig, err)
	}

	return config.Build(fileSrc, cliSrc) //nolint:wrapcheck
}

// loadConfig reads and decodes src. An empty src is an empty configuration.
func loadConfig(ctx context.Context, src string) (config.Raw, error) {
	if src == "" {
		return config.Raw{}, nil
	}

	var (
		raw config.Raw
		err error
	)

	switch ext := configExt(src); ext {
	case ".yaml", ".yml":
		var data []byte

		data, err = fetch.Get(ctx, src)
		if err == nil {
			raw, err = config.DecodeYAML(data)
		}
	case hcl.FileExt:
		if !fetch.IsRemote(src) {
			raw, err = hcl.LoadFile(src)
			break
		}

		var data []byte

		data, err = fetch.Get(ctx, src)
		if err == nil {
			raw, err = hcl.Decode(src, data, hcl.Environ())
		}
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedConfig, src)
	}

	if err != nil {
		return config.Raw{}, fmt.Errorf("%w: %s: %w", ErrLoadConfig, src, err)
	}

	return raw, nil
}

// configExt returns the lower-cased extension of src, ignoring any go-getter
// query string.
func configExt(src string) string {
	src, _, _ = strings.Cut(src, "?")
	return strings.ToLower(path.Ext(src))
}

// flagSource returns the layer given on the command line. Only flags the
// user set count.
func flagSource(cmd *cli.Command, p *profile.Profile) (config.Source, error) {
	src := config.Source{
		Profile:       cmd.String(profileFlag),
		Program:       cmd.String(programFlag),
		BatchFile:     cmd.String(batchFileFlag),
		OutDir:        cmd.String(outDirFlag),
		SummaryPrefix: cmd.String(summaryPrefixFlag),
		Env:           cmd.StringMap(envFlag),
	}

	if cmd.IsSet(ncpusFlag) {
		n := cmd.Int(ncpusFlag)
		src.NCPUs = &n
	}

	if cmd.IsSet(useExistingFlag) {
		b := cmd.Bool(useExistingFlag)
		src.UseExisting = &b
	}

	vals, err := flagOptions(cmd, p)
	if err != nil {
		return config.Source{}, err
	}

	src.Options = vals

	return src, nil
}

func flagOptions(cmd *cli.Command, p *profile.Profile) (options.Values, error) {
	var (
		m    = make(map[string]options.Value)
		errs error
	)

	for _, opt := range p.Schema().All() {
		if opt.Category != options.RowOverridable || !cmd.IsSet(opt.Name) {
			continue
		}

		var (
			v   options.Value
			err error
		)

		switch opt.Kind {
		case options.PresenceFlag:
			v = options.Bool(cmd.Bool(opt.Name))
		case options.List:
			v, err = options.ParseList(opt, cmd.StringSlice(opt.Name))
		default:
			v, err = options.Parse(opt, cmd.String(opt.Name))
		}

		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}

		m[opt.Name] = v
	}

	if errs != nil {
		return options.Values{}, errs
	}

	return options.NewValues(m), nil
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}

	return ""
}
