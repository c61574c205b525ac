package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Services ServicesConfig `mapstructure:"services"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name      string `mapstructure:"name"`
	Version   string `mapstructure:"version"`
	JWTSecret string `mapstructure:"jwt_secret"`
	MachineID int64  `mapstructure:"machine_id"`
	LogLevel  string `mapstructure:"log_level"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
}

// HTTPConfig HTTP服务配置
type HTTPConfig struct {
	Network string `mapstructure:"network"`
	Addr    string `mapstructure:"addr"`
	Timeout string `mapstructure:"timeout"`
}

// GRPCConfig gRPC服务配置
type GRPCConfig struct {
	Network string `mapstructure:"network"`
	Addr    string `mapstructure:"addr"`
	Timeout string `mapstructure:"timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	PostgreSQL    PostgreSQLConfig    `mapstructure:"postgresql"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// PostgreSQLConfig PostgreSQL配置
type PostgreSQLConfig struct {
	DSN    string `mapstructure:"dsn"`
	DBName string `mapstructure:"db_name"`
}

// ElasticsearchConfig Elasticsearch配置
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
}

// ServicesConfig 下游服务gRPC地址
type ServicesConfig struct {
	SocialGRPCAddr string `mapstructure:"social_grpc_addr"`
}

// 各服务默认端口
var defaultPorts = map[string][2]string{
	"user-service":   {"21001", "22001"},
	"social-service": {"21002", "22002"},
	"feed-service":   {"21003", "22003"},
	"search-service": {"21004", "22004"},
}

// LoadConfig 加载配置：可选的config.yaml，环境变量覆盖，按服务名填充默认值
func LoadConfig(serviceName string) *Config {
	ports, ok := defaultPorts[serviceName]
	if !ok {
		panic(fmt.Sprintf("未知的服务名称: %s，支持的服务名称: user-service, social-service, feed-service, search-service", serviceName))
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.SetEnvPrefix("MELODIARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", serviceName)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.jwt_secret", "melodiary-dev")
	v.SetDefault("app.machine_id", 1)
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":"+ports[0])
	v.SetDefault("server.http.timeout", "30s")
	v.SetDefault("server.grpc.network", "tcp")
	v.SetDefault("server.grpc.addr", ":"+ports[1])
	v.SetDefault("server.grpc.timeout", "30s")

	v.SetDefault("database.postgresql.dsn",
		"host=localhost user=postgres password=postgres dbname=melodiary port=5432 sslmode=disable")
	v.SetDefault("database.postgresql.db_name", "melodiary")
	v.SetDefault("database.elasticsearch.addresses", []string{"http://localhost:9200"})

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", serviceName+"-group")

	v.SetDefault("services.social_grpc_addr", "localhost:"+defaultPorts["social-service"][1])

	// 配置文件可选，缺失时使用默认值和环境变量
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Sprintf("读取配置文件失败: %v", err))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("解析配置失败: %v", err))
	}

	return &cfg
}
