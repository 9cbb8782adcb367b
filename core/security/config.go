package security

// Config holds configuration for token issuance and the bootstrap admin account.
type Config struct {
	// SecretKey signs access tokens. Required by the HTTP server.
	SecretKey string `mapstructure:"secret_key" default:""`
	// Algorithm is the HMAC signing method (HS256, HS384, HS512).
	Algorithm string `mapstructure:"algorithm" default:"HS256"`
	// AccessTokenExpireMinutes is the lifetime of an issued token.
	AccessTokenExpireMinutes int `mapstructure:"access_token_expire_minutes" default:"60"`
	// AdminUsername is the account created by `user create-admin`.
	AdminUsername string `mapstructure:"admin_username" default:"admin"`
	// AdminPassword is the initial password of the admin account.
	AdminPassword string `mapstructure:"admin_password" default:""`
	// AdminEmail is optional.
	AdminEmail string `mapstructure:"admin_email" default:""`
}
