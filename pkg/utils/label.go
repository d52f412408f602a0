package utils

import "strings"

// Label 记录候选商品在 Pipeline 中经过的处理，用于解释与排查。
// 例如 rank_model=xgboost/rank、filter=expr/filter、lookup=file/postprocess。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / rerank / postprocess
}

// NewLabel 构造 Label
func NewLabel(value, source string) Label {
	return Label{Value: value, Source: source}
}

// MergeLabel 合并同名 Label，保留历史：
// - Value 以 '|' 累积
// - Source 以 ',' 累积，重复的来源只记一次
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "" || hasSource(existing.Source, incoming.Source):
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

func hasSource(list, source string) bool {
	for _, s := range strings.Split(list, ",") {
		if s == source {
			return true
		}
	}
	return false
}
