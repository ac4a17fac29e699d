package config

const (
	// EnvPrefix is passed to envconfig; all variables use the MENSAHUB_ prefix.
	EnvPrefix = "mensahub"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MENSAHUB_DB_DSN"
	EnvDBHost = "MENSAHUB_DB_HOST"
	EnvDBUser = "MENSAHUB_DB_USER"
	EnvDBName = "MENSAHUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
