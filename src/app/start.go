package app

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Blackdeer1524/StorageCore/src"
	"github.com/Blackdeer1524/StorageCore/src/cfg"
	"github.com/Blackdeer1524/StorageCore/src/pkg/utils"
)

const tracerName = "github.com/Blackdeer1524/StorageCore/src/app"

// Task is a unit of work run against an opened storage.
type Task func(ctx context.Context, s *Storage, log src.Logger) error

// TaskEntrypoint opens the storage described by the configuration, runs one
// task against it and closes it.
type TaskEntrypoint struct {
	ConfigPath string
	Name       string
	Task       Task

	// FS and Log default to the OS filesystem and a zap logger chosen by
	// the configured environment.
	FS  afero.Fs
	Log src.Logger

	runID   string
	cfg     cfg.Config
	storage *Storage
}

var _ Entrypoint = &TaskEntrypoint{}

func (e *TaskEntrypoint) Init(_ context.Context) error {
	config, err := cfg.LoadConfig(e.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	e.cfg = config
	e.runID = uuid.NewString()

	if e.Log == nil {
		var log *zap.Logger
		if e.cfg.Environment == cfg.EnvDev {
			log = utils.Must(zap.NewDevelopment())
		} else {
			log = utils.Must(zap.NewProduction())
		}

		e.Log = log.Sugar().With("run_id", e.runID, "task", e.Name)
	}

	if e.FS == nil {
		e.FS = afero.NewOsFs()
	}

	e.storage, err = OpenStorage(e.cfg, e.FS, e.Log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	return nil
}

func (e *TaskEntrypoint) Run(ctx context.Context) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(
		ctx,
		e.Name,
		trace.WithAttributes(attribute.String("run_id", e.runID)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	e.Log.Infow("task started")

	if err := e.Task(ctx, e.storage, e.Log); err != nil {
		e.Log.Errorw("task failed", "error", err)
		return err
	}

	e.Log.Infow("task finished")
	return nil
}

func (e *TaskEntrypoint) Close() (err error) {
	if e.storage != nil {
		err = e.storage.Close()
		e.storage = nil
	}

	if e.Log != nil {
		if err != nil {
			e.Log.Errorw("failed to close storage", "error", err)
		}

		if logErr := e.Log.Sync(); logErr != nil && !isConsoleSyncError(logErr) {
			err = errors.Join(err, logErr)
		}
	}

	return
}

// Syncing a terminal or pipe fails with EINVAL or ENOTTY on Linux.
func isConsoleSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
