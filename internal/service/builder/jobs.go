package builder

import (
	"context"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/scheduler"
)

// defaultFormats returns the single format built when the configuration
// requests none: the conventional installer of the active platform.
func defaultFormats(platform string) []string {
	switch platform {
	case string(packager.PlatformWindows):
		return []string{string(packager.FormatExe)}
	case string(packager.PlatformMacOS):
		return []string{string(packager.FormatDMG)}
	default:
		return []string{string(packager.FormatDeb)}
	}
}

// assembleJobs turns the requested format list into scheduler jobs. An
// unknown format or a missing packager becomes a job that fails when
// executed, so it appears in the report next to its siblings instead of
// aborting the whole invocation up front.
func (b *builder) assembleJobs(sourcePath string) []scheduler.Job {
	formats := b.cfg.Formats
	if len(formats) == 0 {
		formats = defaultFormats(b.cfg.Platform)
	}

	jobs := make([]scheduler.Job, 0, len(formats))

	for _, format := range formats {
		jobs = append(jobs, b.formatJob(format, sourcePath))
	}

	return jobs
}

// formatJob builds the job for one requested format.
func (b *builder) formatJob(format, sourcePath string) scheduler.Job {
	name := b.cfg.Platform + "/" + format

	target, err := packager.ParseTarget(b.cfg.Platform, format)
	if err != nil {
		return failingJob(name, err)
	}

	ctor, err := b.registry.Get(target)
	if err != nil {
		return failingJob(name, err)
	}

	return scheduler.Job{
		Name: target.String(),
		Run: func(ctx context.Context) (string, error) {
			return ctor().Package(ctx, &packager.Request{
				Config:     b.cfg,
				SourcePath: sourcePath,
				OutputDir:  b.cfg.OutputDir,
				Ledger:     b.led,
			})
		},
	}
}

// failingJob wraps a lookup error as a job so it is reported uniformly.
func failingJob(name string, err error) scheduler.Job {
	return scheduler.Job{
		Name: name,
		Run: func(context.Context) (string, error) {
			return "", err
		},
	}
}
