package config

// EnvPrefix is the prefix applied by envconfig to every variable.
const EnvPrefix = "BATDONGSCAM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "BATDONGSCAM_DB_DSN"
	EnvDBHost = "BATDONGSCAM_DB_HOST"
	EnvDBUser = "BATDONGSCAM_DB_USER"
	EnvDBName = "BATDONGSCAM_DB_NAME"
)

// legacyDBEnvVars are the variables required when no full DSN is provided.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
