// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Init se llama una vez en main; los middlewares HTTP inyectan un logger con
// request_id/method/path que los services recuperan con From(ctx).
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Login"))
//	log.Info("login ok", logger.UserID(id))
//
// "dev" escribe en consola con colores, "prod" en JSON.
package logger
