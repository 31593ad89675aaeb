package config

import (
	"fmt"
	"os"
	"strconv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）

	JWTSecret string // JWT署名シークレット

	GoEnv string // dev/prod

	RedisAddr    string // 注文イベント配信用redis（host:port）
	RedisChannel string // pub/subチャンネル名

	BankCode        string // 振込先の銀行コード
	BankAccountNo   string // 振込先の口座番号
	BankAccountName string // 受取人名（QRにそのまま載る）
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv: os.Getenv("GO_ENV"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisChannel: os.Getenv("REDIS_CHANNEL"),

		BankCode:        os.Getenv("BANK_CODE"),
		BankAccountNo:   os.Getenv("BANK_ACCOUNT_NO"),
		BankAccountName: os.Getenv("BANK_ACCOUNT_NAME"),
	}

	//チャンネル名だけはデフォルトあり
	if cfg.RedisChannel == "" {
		cfg.RedisChannel = "order-events"
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.RedisAddr == "" {
		return Config{}, fmt.Errorf("REDIS_ADDR is required")
	}
	if cfg.BankCode == "" {
		return Config{}, fmt.Errorf("BANK_CODE is required")
	}
	if cfg.BankAccountNo == "" {
		return Config{}, fmt.Errorf("BANK_ACCOUNT_NO is required")
	}
	if cfg.BankAccountName == "" {
		return Config{}, fmt.Errorf("BANK_ACCOUNT_NAME is required")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
