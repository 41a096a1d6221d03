// Package logger provee un logger estructurado (zap) para todo el servicio.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("password.set"))
//	log.Info("password updated", logger.UserID(uid))
//
// Los middlewares HTTP inyectan un logger "scoped" en el contexto con
// request_id/method/path; From(ctx) lo recupera o cae al singleton.
package logger
