// Package logger builds *slog.Logger values for the service and holds the attribute
// helpers used across packages so keys stay consistent (user_id, tier,
// subscription_id, event_id, and so on).
//
// New takes functional options. Environment presets pick format and level:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "tutorhub"),
//		logger.WithConfig(cfg.Log),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//
// Context extractors run on every record, so request scoped values such as the
// request id appear without being passed explicitly. Error and Errors return an
// empty attribute for nil errors, which lets callers log unconditionally.
package logger
