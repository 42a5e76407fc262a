package agent

// Record 是一条业务数据记录。字段集合是开放的，
// 分类与动作解析只读取自己关心的键。
type Record map[string]any

// Float 读取数值字段，缺失或类型不符时返回 0。
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// String 读取字符串字段，缺失时返回空串。
func (r Record) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// StringOr 读取字符串字段，缺失时返回给定默认值。
func (r Record) StringOr(key, fallback string) string {
	if v, ok := r[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Clone 返回记录的浅拷贝，保证调用方无法篡改原始数据。
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	cloned := make(Record, len(r))
	for key, value := range r {
		cloned[key] = value
	}
	return cloned
}
