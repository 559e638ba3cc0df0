// Package achievement 定义固定的成就目录及其达成条件。
package achievement

// ID 为成就标识。
type ID string

const (
	MemeLord  ID = "meme_lord"
	WaterKing ID = "water_king"
	NightOwl  ID = "night_owl"
	EarlyBird ID = "early_bird"
)

// Metric 描述成就所依据的聚合指标。
type Metric int

const (
	// MetricDailyMessages 当天发言总数。
	MetricDailyMessages Metric = iota
	// MetricHourWindow 当天指定小时区间 [FromHour, ToHour) 的发言数。
	MetricHourWindow
	// MetricOriginatedMemes 用户原创梗的传播次数。
	MetricOriginatedMemes
)

// Definition 为单个成就的静态配置。
type Definition struct {
	ID            ID
	Name          string
	NameEN        string
	Description   string
	DescriptionEN string
	Unit          string
	UnitEN        string
	Threshold     int64
	Metric        Metric
	FromHour      int
	ToHour        int
}

// Reached 判断聚合值是否达到阈值。
func (d Definition) Reached(value int64) bool {
	return value >= d.Threshold
}

// Catalog 是只读的成就目录，按展示顺序保存。
type Catalog struct {
	defs []Definition
	byID map[ID]int
}

// NewCatalog 根据定义列表构造目录，重复 ID 以后者为准。
func NewCatalog(defs ...Definition) Catalog {
	c := Catalog{
		defs: make([]Definition, 0, len(defs)),
		byID: make(map[ID]int, len(defs)),
	}
	for _, def := range defs {
		if idx, ok := c.byID[def.ID]; ok {
			c.defs[idx] = def
			continue
		}
		c.byID[def.ID] = len(c.defs)
		c.defs = append(c.defs, def)
	}
	return c
}

// Default 返回内置的四个成就。
func Default() Catalog {
	return NewCatalog(
		Definition{
			ID:            WaterKing,
			Name:          "🏆水王",
			NameEN:        "🏆Water King",
			Description:   "单日发言超过50条",
			DescriptionEN: "50+ messages in a single day",
			Unit:          "条",
			UnitEN:        "messages",
			Threshold:     50,
			Metric:        MetricDailyMessages,
		},
		Definition{
			ID:            NightOwl,
			Name:          "🌙夜猫子",
			NameEN:        "🌙Night Owl",
			Description:   "凌晨0-5点发言3次",
			DescriptionEN: "3 messages between 0:00 and 5:00",
			Unit:          "次",
			UnitEN:        "times",
			Threshold:     3,
			Metric:        MetricHourWindow,
			FromHour:      0,
			ToHour:        5,
		},
		Definition{
			ID:            EarlyBird,
			Name:          "🐦早起鸟",
			NameEN:        "🐦Early Bird",
			Description:   "早上6-8点发言3次",
			DescriptionEN: "3 messages between 6:00 and 8:00",
			Unit:          "次",
			UnitEN:        "times",
			Threshold:     3,
			Metric:        MetricHourWindow,
			FromHour:      6,
			ToHour:        8,
		},
		Definition{
			ID:            MemeLord,
			Name:          "🤪梗王",
			NameEN:        "🤪Meme Lord",
			Description:   "原创梗被引用10次以上",
			DescriptionEN: "Your memes were picked up 10+ times",
			Unit:          "个",
			UnitEN:        "memes",
			Threshold:     10,
			Metric:        MetricOriginatedMemes,
		},
	)
}

// All 返回目录副本，调用方修改不会影响目录本身。
func (c Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Get 按 ID 查找成就定义。
func (c Catalog) Get(id ID) (Definition, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[idx], true
}

// ByMetric 返回指定指标的全部成就。
func (c Catalog) ByMetric(metric Metric) []Definition {
	var out []Definition
	for _, def := range c.defs {
		if def.Metric == metric {
			out = append(out, def)
		}
	}
	return out
}
