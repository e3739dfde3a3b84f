package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type TelegramConfig struct {
	ApiKey      string `yaml:"api_key" env:"BOT_TOKEN" env-default:""`
	BotUsername string `yaml:"bot_username" env:"BOT_USERNAME" env-default:""`
	OwnerId     int64  `yaml:"owner_id" env:"OWNER_ID" env-default:"0"`
	WebAppUrl   string `yaml:"webapp_url" env:"FRONTEND_WEBAPP_URL" env-default:""`
}

type MySqlConfig struct {
	HostName string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"groupsight"`
	Prefix   string `yaml:"prefix" env-default:"gs_"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"groupsight"`
}

type GateConfig struct {
	VerifyTTLSeconds int `yaml:"verify_ttl_seconds" env-default:"120"`
	SweepBatch       int `yaml:"sweep_batch" env-default:"50"`
}

type BroadcastConfig struct {
	ChunkSize int     `yaml:"chunk_size" env-default:"30"`
	PauseSec  float64 `yaml:"pause_sec" env-default:"1.2"`
}

type ApiConfig struct {
	AdminSecret string `yaml:"admin_secret" env:"ADMIN_SECRET" env-default:"changeme"`
}

type SchedulerConfig struct {
	SnapshotEveryMin int `yaml:"snapshot_every_min" env:"CHANNEL_SNAPSHOT_EVERY_MIN" env-default:"30"`
}

type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	MySql     MySqlConfig     `yaml:"mysql"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Gate      GateConfig      `yaml:"gate"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Api       ApiConfig       `yaml:"api"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Listen    Listen          `yaml:"listen"`
	Location  string          `yaml:"location" env-default:"UTC"`
	Env       string          `yaml:"env" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
