// Package logging provides structured logging for autoplan runs.
//
// It wraps log/slog. Records go to a JSON log file inside a configurable
// directory, optionally mirrored to stderr as text when the run is verbose.
//
// # Usage
//
//	logger, err := logging.New(logging.Options{
//	    Dir:      ".autoplan/logs",
//	    Level:    logging.LevelInfo,
//	    Verbose:  verbose,
//	    Rotation: logging.DefaultRotationConfig(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	runLog := logger.WithRun(session.ID)
//	runLog.WithPhase(2).Info("phase started", "name", "API Handlers")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"phase started","run_id":"...","phase":2,"name":"API Handlers"}
//
// # Rotation
//
// The log file rotates once it exceeds RotationConfig.MaxSizeMB. Backups
// are named autoplan.log.1 (newest) through autoplan.log.N and are gzip
// compressed when RotationConfig.Compress is set.
//
// Use [NopLogger] in tests.
package logging
