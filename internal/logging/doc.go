// Package logging provides structured logging for pypeline runs.
//
// The package wraps Go's log/slog. A [Logger] can write to the console, to a
// JSON log file in the build directory, or to both at once.
//
// # Console Output
//
// When the console writer is a terminal the records are rendered by
// slog.TextHandler; otherwise (CI logs, pipes, test buffers) they are JSON.
//
// # Log File
//
// With [Options.Dir] set, records are also appended to Dir/pypeline.log as
// JSON. The file is rotated by [RotatingWriter] once it would exceed
// [RotationConfig.MaxSizeMB]; rotated files are named pypeline.log.1 (newest)
// through pypeline.log.N and may be gzip compressed.
//
// # Basic Usage
//
//	logger, err := logging.New(logging.Options{
//	    Level:   "info",
//	    Console: os.Stderr,
//	    Dir:     "build",
//	})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithGroup("install").WithStep("CreateVEnv").Info("step finished", "skipped", true)
package logging
