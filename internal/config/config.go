package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppPort       string
	DBDSN         string
	JWTSecret     string
	JWTExpiresMin int

	RedisAddr     string
	RedisPassword string

	UploadDir  string
	AppBaseURL string

	FrontendBaseURL string

	MercadoPagoAccessToken string
	MercadoPagoBaseURL     string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string

	GoogleClientID string
	GoogleSecret   string
	GoogleRedirect string
}

func Load() Config {
	expires, _ := strconv.Atoi(get("JWT_EXPIRES_MIN", "60"))
	return Config{
		AppPort:       get("APP_PORT", "8080"),
		DBDSN:         must("DB_DSN"),
		JWTSecret:     must("JWT_SECRET"),
		JWTExpiresMin: expires,

		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),

		UploadDir:  get("UPLOAD_DIR", "./uploads"),
		AppBaseURL: get("APP_BASE_URL", ""),

		FrontendBaseURL: get("FRONTEND_BASE_URL", "http://localhost:3000"),

		MercadoPagoAccessToken: get("MERCADOPAGO_ACCESS_TOKEN", ""),
		MercadoPagoBaseURL:     get("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"),

		SMTPHost: get("SMTP_HOST", ""),
		SMTPPort: get("SMTP_PORT", "587"),
		SMTPUser: get("SMTP_USER", ""),
		SMTPPass: get("SMTP_PASS", ""),
		MailFrom: get("MAIL_FROM", "no-reply@entrenar.app"),

		GoogleClientID: get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:   get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect: get("GOOGLE_REDIRECT_URL", ""),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
