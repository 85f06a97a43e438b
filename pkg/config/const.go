package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "TRAILQUEST"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "TRAILQUEST_DB_DSN"
	EnvDBHost = "TRAILQUEST_DB_HOST"
	EnvDBUser = "TRAILQUEST_DB_USER"
	EnvDBName = "TRAILQUEST_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
