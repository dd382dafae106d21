// Package envconfig assembles a gateAuth.Config plus process settings from a
// YAML file, a .env file and the environment, in that order of increasing
// precedence.
//
// Secrets (JWT_ACCESS_SECRET, ENCRYPTION_SECRET) are read from the environment
// only. Numeric and boolean variables are parsed strictly: booleans accept
// exactly "true" or "false", integers must be base-10 with no surrounding
// garbage. Every problem is reported as a *gateAuth.ConfigError naming the
// variable.
package envconfig
