package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "TIENDA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv        = "TIENDA_APP_ENV"
	EnvPort          = "TIENDA_APP_PORT"
	EnvPublicBaseURL = "TIENDA_PUBLIC_BASE_URL"

	EnvDBDSN  = "TIENDA_DB_DSN"
	EnvDBHost = "TIENDA_DB_HOST"
	EnvDBUser = "TIENDA_DB_USER"
	EnvDBName = "TIENDA_DB_NAME"

	EnvRedisURL = "TIENDA_REDIS_URL"

	EnvJWTSecret  = "TIENDA_JWT_SECRET"
	EnvJWTIssuer  = "TIENDA_JWT_ISSUER"
	EnvJWTExpMins = "TIENDA_JWT_EXPIRATION_MINUTES"

	EnvMercadoPagoAccessToken   = "TIENDA_MERCADOPAGO_ACCESS_TOKEN"
	EnvMercadoPagoWebhookSecret = "TIENDA_MERCADOPAGO_WEBHOOK_SECRET"

	EnvSkydropxClientID     = "TIENDA_SKYDROPX_CLIENT_ID"
	EnvSkydropxClientSecret = "TIENDA_SKYDROPX_CLIENT_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
