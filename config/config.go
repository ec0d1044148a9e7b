package config

import (
	"fmt"
	"os"
	"time"

	"git.fiblab.net/sim/mobility/routecache"
	"git.fiblab.net/sim/mobility/router"
	"git.fiblab.net/sim/mobility/workspace"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// 轨迹输入
type Trace struct {
	Path    string  `yaml:"path,omitempty"`     // 轨迹文件或{db}.{col}，为空表示不使用轨迹
	MinTime float64 `yaml:"min_time,omitempty"` // 丢弃早于该时间的采样点
	UseIDs  bool    `yaml:"use_ids,omitempty"`  // 使用轨迹自带的ID，否则按顺序分配
}

// 静态智能体的道路放置策略
type Street struct {
	OnStreets     bool           `yaml:"on_streets"`      // 放置到最近的道路上
	OnlyOnStreets bool           `yaml:"only_on_streets"` // 无法吸附到道路时拒绝加入
	SnapVehicle   router.Vehicle `yaml:"snap_vehicle"`    // 吸附使用的路网
}

// 路径缓存
type Cache struct {
	Size          int           `yaml:"size" validate:"gt=0"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" validate:"gte=0"`   // 0表示不过期
	SweepInterval time.Duration `yaml:"sweep_interval" validate:"gte=0"` // 0表示使用IdleTimeout的一半
}

type Workspace struct {
	Roots []string `yaml:"roots,omitempty" validate:"dive,required"` // 按顺序尝试的候选目录
}

// Config YAML配置文件的根结构
type Config struct {
	Map       string           `yaml:"map" validate:"required"` // OSM地图文件（.osm/.xml/.pbf）
	MongoURI  string           `yaml:"mongo_uri,omitempty"`
	Vehicles  []router.Vehicle `yaml:"vehicles,omitempty" validate:"min=1,unique"`
	Trace     Trace            `yaml:"trace,omitempty"`
	Street    Street           `yaml:"street"`
	Cache     Cache            `yaml:"cache"`
	Workspace Workspace        `yaml:"workspace,omitempty"`
}

func Default() Config {
	return Config{
		Vehicles: append([]router.Vehicle(nil), router.VEHICLES...),
		Street: Street{
			OnStreets:     true,
			OnlyOnStreets: true,
			SnapVehicle:   router.BIKE,
		},
		Cache: Cache{
			Size:        routecache.DEFAULT_SIZE,
			IdleTimeout: routecache.DEFAULT_IDLE_TIMEOUT,
		},
		Workspace: Workspace{
			Roots: workspace.DefaultRoots(),
		},
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if !c.Street.SnapVehicle.Valid() {
		return fmt.Errorf("invalid snap vehicle %d", int(c.Street.SnapVehicle))
	}
	if c.Trace.Path != "" && c.TracePath() == nil {
		return fmt.Errorf("invalid trace path %q", c.Trace.Path)
	}
	return nil
}

// 轨迹输入位置，未配置或无法解析时返回nil
func (c *Config) TracePath() *Path {
	p, err := NewPath(c.Trace.Path)
	if err != nil {
		return nil
	}
	return p
}

// 在默认配置的基础上解析YAML，未知字段视为错误
func Parse(b []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return Config{}, fmt.Errorf("config parse err: %w", err)
	}
	if len(c.Workspace.Roots) == 0 {
		c.Workspace.Roots = workspace.DefaultRoots()
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validate err: %w", err)
	}
	return c, nil
}

func Load(file string) (Config, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return Config{}, err
	}
	c, err := Parse(b)
	if err != nil {
		return Config{}, err
	}
	log.Debugf("%+v", c)
	return c, nil
}
