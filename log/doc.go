// Package log provides the leveled logging interface used by teamgraph.
//
// Logger is a small printf-style interface with Debug, Info, Warn and Error.
// Two implementations ship with the package: DefaultLogger over the standard
// library logger, and GologLogger over kataras/golog, which the binaries
// install at startup:
//
//	level, err := log.ParseLevel(cfg.LogLevel)
//	if err != nil {
//		return err
//	}
//	log.SetDefaultLogger(log.NewServiceLogger(os.Stderr, level))
//
// The package-level Debug, Info, Warn and Error functions write to the
// default logger.
package log
