package router

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
)

// 出行方式
type Vehicle int

const (
	FOOT Vehicle = iota
	BIKE
	CAR

	// 出行方式数量，用于定长槽位表
	VEHICLE_COUNT = int(CAR) + 1
)

var (
	// 全部出行方式，按枚举顺序
	VEHICLES = []Vehicle{FOOT, BIKE, CAR}

	vehicleNames = map[Vehicle]string{
		FOOT: "foot",
		BIKE: "bike",
		CAR:  "car",
	}
)

func (v Vehicle) String() string {
	if name, ok := vehicleNames[v]; ok {
		return name
	}
	return "vehicle(" + strconv.Itoa(int(v)) + ")"
}

func (v Vehicle) Valid() bool {
	return v >= FOOT && v <= CAR
}

func ParseVehicle(s string) (Vehicle, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v, name := range vehicleNames {
		if name == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown vehicle %q", s)
}

func (v Vehicle) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("invalid vehicle %d", int(v))
	}
	return []byte(v.String()), nil
}

func (v *Vehicle) UnmarshalText(text []byte) error {
	parsed, err := ParseVehicle(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// yaml.v2
func (v *Vehicle) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return v.UnmarshalText([]byte(s))
}

// 单位：m/s
const (
	FOOT_SPEED     = 5 / 3.6
	BIKE_SPEED     = 15 / 3.6
	CAR_MAX_SPEED  = 130 / 3.6
	CYCLEWAY_SPEED = 18 / 3.6
)

// 各等级道路的默认机动车速度（km/h）
var carSpeeds = map[string]float64{
	"motorway":       100,
	"motorway_link":  60,
	"trunk":          80,
	"trunk_link":     50,
	"primary":        60,
	"primary_link":   40,
	"secondary":      50,
	"secondary_link": 40,
	"tertiary":       40,
	"tertiary_link":  30,
	"unclassified":   30,
	"residential":    30,
	"living_street":  10,
	"service":        15,
	"road":           20,
}

// 步行不可通行的道路等级
var footForbidden = map[string]bool{
	"motorway":      true,
	"motorway_link": true,
	"trunk":         true,
	"trunk_link":    true,
}

// 步行可通行的其他道路等级（机动车道之外）
var footOnly = map[string]bool{
	"footway":    true,
	"pedestrian": true,
	"path":       true,
	"steps":      true,
	"track":      true,
	"cycleway":   true,
	"bridleway":  true,
	"corridor":   true,
}

// 道路通行性编码
type encoding struct {
	forward, backward bool
	speed             float64 // m/s
}

// 根据OSM way的标签计算指定出行方式下的通行性与速度
func encode(v Vehicle, tags osm.Tags) encoding {
	highway := tags.Find("highway")
	if highway == "" {
		return encoding{}
	}
	if denied(tags.Find("access")) && !allowedFor(v, tags) {
		return encoding{}
	}
	switch v {
	case FOOT:
		if footForbidden[highway] || denied(tags.Find("foot")) {
			return encoding{}
		}
		if _, ok := carSpeeds[highway]; !ok && !footOnly[highway] {
			return encoding{}
		}
		return encoding{forward: true, backward: true, speed: FOOT_SPEED}
	case BIKE:
		if footForbidden[highway] || highway == "steps" || highway == "corridor" || denied(tags.Find("bicycle")) {
			return encoding{}
		}
		speed := BIKE_SPEED
		switch highway {
		case "cycleway":
			speed = CYCLEWAY_SPEED
		case "footway", "pedestrian", "bridleway":
			// 人行道仅在明确允许时通行
			if !allowed(tags.Find("bicycle")) {
				return encoding{}
			}
		case "path", "track":
		default:
			if _, ok := carSpeeds[highway]; !ok {
				return encoding{}
			}
		}
		forward, backward := oneway(tags)
		if tags.Find("oneway:bicycle") == "no" {
			forward, backward = true, true
		}
		return encoding{forward: forward, backward: backward, speed: speed}
	case CAR:
		kmh, ok := carSpeeds[highway]
		if !ok || denied(tags.Find("motor_vehicle")) || denied(tags.Find("motorcar")) {
			return encoding{}
		}
		if limit := parseMaxSpeed(tags.Find("maxspeed")); limit > 0 {
			kmh = limit
		}
		forward, backward := oneway(tags)
		return encoding{forward: forward, backward: backward, speed: min(kmh/3.6, CAR_MAX_SPEED)}
	default:
		return encoding{}
	}
}

// 单行道方向
func oneway(tags osm.Tags) (forward, backward bool) {
	switch tags.Find("oneway") {
	case "yes", "1", "true":
		return true, false
	case "-1", "reverse":
		return false, true
	case "no", "0", "false":
		return true, true
	}
	if tags.Find("junction") == "roundabout" || tags.Find("highway") == "motorway" {
		return true, false
	}
	return true, true
}

func denied(value string) bool {
	switch value {
	case "no", "private", "agricultural", "forestry", "delivery":
		return true
	}
	return false
}

func allowed(value string) bool {
	switch value {
	case "yes", "designated", "permissive", "destination":
		return true
	}
	return false
}

// access=no时，仍可被特定出行方式标签放行
func allowedFor(v Vehicle, tags osm.Tags) bool {
	switch v {
	case FOOT:
		return allowed(tags.Find("foot"))
	case BIKE:
		return allowed(tags.Find("bicycle"))
	case CAR:
		return allowed(tags.Find("motor_vehicle")) || allowed(tags.Find("motorcar"))
	}
	return false
}

// 解析maxspeed标签，返回km/h，无法解析时返回0
func parseMaxSpeed(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	factor := 1.0
	if strings.HasSuffix(value, "mph") {
		factor = 1.609344
		value = strings.TrimSpace(strings.TrimSuffix(value, "mph"))
	} else {
		value = strings.TrimSpace(strings.TrimSuffix(value, "km/h"))
	}
	speed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return 0
	}
	return speed * factor
}

// 各出行方式的最大速度，用于A*启发函数
func maxSpeed(v Vehicle) float64 {
	switch v {
	case FOOT:
		return FOOT_SPEED
	case BIKE:
		return CYCLEWAY_SPEED
	default:
		return CAR_MAX_SPEED
	}
}
